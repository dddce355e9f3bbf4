package wallet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeeforfeedback/platform_be/internal/models"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// Credit adds funds to a user's wallet balance and creates a ledger entry.
// This should be called within a DB transaction.
func (s *WalletService) Credit(tx *gorm.DB, userID uuid.UUID, amount int64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to credit must be greater than zero")
	}

	// 1. Update Wallet balance atomically
	result := tx.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wallet not found for user %s", userID)
	}

	// 2. Create WalletTransaction (Ledger)
	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxCredit,
		Description: description,
		ReferenceID: &referenceID,
	}

	if err := tx.Create(&ledger).Error; err != nil {
		return err
	}

	return nil
}

// Refund returns funds to a user's wallet balance (e.g. a cancelled,
// already-funded project) and creates a ledger entry. This should be called
// within a DB transaction.
func (s *WalletService) Refund(tx *gorm.DB, userID uuid.UUID, amount int64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to refund must be greater than zero")
	}

	result := tx.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wallet not found for user %s", userID)
	}

	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxRefund,
		Description: description,
		ReferenceID: &referenceID,
	}

	if err := tx.Create(&ledger).Error; err != nil {
		return err
	}

	return nil
}

// Debit deducts funds from a user's wallet balance and creates a ledger
// entry. The guarded UPDATE keeps the balance from ever going negative.
// This should be called within a DB transaction.
func (s *WalletService) Debit(tx *gorm.DB, userID uuid.UUID, amount int64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to debit must be greater than zero")
	}

	result := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("failed to deduct balance: wallet not found or insufficient balance")
	}

	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxDebit,
		Description: description,
		ReferenceID: &referenceID,
	}

	if err := tx.Create(&ledger).Error; err != nil {
		return err
	}

	return nil
}
