package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet holds a user's available and escrowed funds. Amounts are integer
// paise; both columns must never go below zero.
type Wallet struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Balance       int64 `gorm:"not null;default:0" json:"balance"`
	EscrowBalance int64 `gorm:"not null;default:0" json:"escrow_balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

type WalletTrxType string

const (
	WalletTrxCredit WalletTrxType = "credit" // payout masuk
	WalletTrxDebit  WalletTrxType = "debit"  // penarikan
	WalletTrxRefund WalletTrxType = "refund" // pengembalian dana
)

// WalletTransaction is the append-only ledger behind every wallet mutation.
type WalletTransaction struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount      int64         `gorm:"not null" json:"amount"`
	Type        WalletTrxType `gorm:"type:varchar(20);not null" json:"type"`
	Description string        `gorm:"type:text" json:"description"`
	ReferenceID *uuid.UUID    `gorm:"type:uuid;index" json:"reference_id,omitempty"` // interview ID
	CreatedAt   time.Time     `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
