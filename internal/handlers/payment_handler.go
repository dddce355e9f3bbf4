package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
	"github.com/coffeeforfeedback/platform_be/internal/services/payment"
	"github.com/coffeeforfeedback/platform_be/internal/utils"
)

type PaymentHandler struct {
	DB      *gorm.DB
	Gateway *payment.HTTPGateway
}

func NewPaymentHandler(db *gorm.DB, gateway *payment.HTTPGateway) *PaymentHandler {
	return &PaymentHandler{DB: db, Gateway: gateway}
}

// EstimateFees returns the gateway fee estimate for an amount. Display
// only; ledger postings never include it.
func (h *PaymentHandler) EstimateFees(c *fiber.Ctx) error {
	amount := int64(c.QueryInt("amount", 0))
	if amount <= 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "amount must be positive"})
	}

	fee := utils.EstimateGatewayFee(amount)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"amount":      amount,
			"gateway_fee": fee,
			"total":       amount + fee,
			"fee_display": utils.FormatCurrency(fee),
		},
	})
}

// GatewayCallbackPayload is the async status update the gateway posts back.
type GatewayCallbackPayload struct {
	Reference   string `json:"reference"`
	MerchantRef string `json:"merchant_ref"`
	Amount      int64  `json:"amount"`
	GatewayFee  int64  `json:"gateway_fee"`
	Status      string `json:"status"` // PAID, EXPIRED, FAILED, REFUND
	PaidAt      int64  `json:"paid_at"`
	Note        string `json:"note"`
}

// HandleCallback ingests gateway status updates into the escrow
// transaction trail. Project state is owned by the workflow engine, so a
// callback never moves a project forward by itself; it only records what
// the gateway said.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	// 1. Get Signature from Header
	signature := c.Get("X-Callback-Signature")
	if signature == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Missing signature"})
	}

	// 2. Validate Signature
	body := c.Body()
	if !h.Gateway.ValidateSignature(signature, string(body)) {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid signature"})
	}

	// 3. Parse Payload
	var payload GatewayCallbackPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid payload"})
	}

	// 4. Only known statuses may land in the column
	status := models.EscrowTrxStatus(payload.Status)
	switch status {
	case models.EscrowTrxStatusPaid, models.EscrowTrxStatusFailed,
		models.EscrowTrxStatusExpired, models.EscrowTrxStatusRefund:
	default:
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Unknown status: " + payload.Status})
	}

	// 5. Update the transaction record
	var trx models.EscrowTransaction
	if err := h.DB.Where("reference = ?", payload.Reference).First(&trx).Error; err != nil {
		log.Printf("Escrow transaction not found for ref: %s", payload.Reference)
		return c.JSON(fiber.Map{"success": false, "message": "Transaction not found, ignored"})
	}

	trx.Status = status
	trx.GatewayFee = payload.GatewayFee
	trx.Note = payload.Note
	if payload.PaidAt > 0 {
		t := time.Unix(payload.PaidAt, 0)
		trx.PaidAt = &t
	}
	if err := h.DB.Save(&trx).Error; err != nil {
		log.Printf("Failed to update escrow transaction %s: %v", trx.ID, err)
		return fail500(c, "Failed to update transaction")
	}

	return c.JSON(fiber.Map{"success": true})
}
