package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/utils"
)

type WalletHandler struct {
	DB *gorm.DB
}

func NewWalletHandler(db *gorm.DB) *WalletHandler {
	return &WalletHandler{DB: db}
}

// GetBalance returns the caller's wallet.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var wallet models.Wallet
	if err := h.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Wallet not found"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"balance":                wallet.Balance,
			"escrow_balance":         wallet.EscrowBalance,
			"balance_display":        utils.FormatCurrency(wallet.Balance),
			"escrow_balance_display": utils.FormatCurrency(wallet.EscrowBalance),
		},
	})
}

// ListTransactions returns the caller's ledger entries, newest first.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	offset := (page - 1) * limit

	var trxs []models.WalletTransaction
	var total int64

	q := h.DB.Model(&models.WalletTransaction{}).Where("user_id = ?", userID)
	if t := c.Query("type"); t != "" {
		q = q.Where("type = ?", t)
	}
	q.Count(&total)

	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&trxs).Error; err != nil {
		log.Println("Error fetching wallet transactions:", err)
		return fail500(c, "Failed to fetch transactions")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    trxs,
		"meta":    fiber.Map{"page": page, "limit": limit, "total": total},
	})
}
