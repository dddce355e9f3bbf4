package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EscrowTrxStatus string

const (
	EscrowTrxStatusUnpaid  EscrowTrxStatus = "UNPAID"
	EscrowTrxStatusPaid    EscrowTrxStatus = "PAID"
	EscrowTrxStatusFailed  EscrowTrxStatus = "FAILED"
	EscrowTrxStatusExpired EscrowTrxStatus = "EXPIRED"
	EscrowTrxStatusRefund  EscrowTrxStatus = "REFUND"
)

// EscrowTransaction is the gateway charge trail for a project's escrow
// pool. A row is written when a charge goes through; later status changes
// (EXPIRED, REFUND) arrive via gateway callbacks. A declined charge rolls
// back with the funding transaction and leaves no row.
type EscrowTransaction struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID   uuid.UUID       `gorm:"type:char(36);index" json:"project_id"`
	Project     Project         `gorm:"foreignKey:ProjectID" json:"project"`
	Reference   string          `gorm:"type:varchar(50);uniqueIndex" json:"reference"`    // gateway reference
	MerchantRef string          `gorm:"type:varchar(50);index" json:"merchant_ref"`       // ESC-{OrderCode}
	Amount      int64           `json:"amount"`
	GatewayFee  int64           `json:"gateway_fee"`
	CheckoutURL string          `gorm:"type:text" json:"checkout_url"`
	Status      EscrowTrxStatus `gorm:"type:varchar(20);default:'UNPAID'" json:"status"`
	PaidAt      *time.Time      `json:"paid_at"`
	Note        string          `gorm:"type:text" json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (t *EscrowTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
