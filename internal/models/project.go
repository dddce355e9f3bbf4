package models

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "DRAFT"       // belum dibayar escrow
	ProjectStatusActive     ProjectStatus = "ACTIVE"      // escrow masuk, terbuka untuk aplikasi
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS" // interview sudah berjalan
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"   // semua interview selesai
)

// Project is a founder's funded interview campaign. Status only ever moves
// forward: DRAFT -> ACTIVE -> IN_PROGRESS -> COMPLETED.
type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderCode string    `gorm:"unique;size:10" json:"order_code"` // e.g., L9POKTVJ
	CreatorID uuid.UUID `gorm:"type:uuid;index;not null" json:"creator_id"`

	Title             string `gorm:"not null" json:"title"`
	Description       string `gorm:"type:text;not null" json:"description"`
	TargetPersona     string `gorm:"type:text;not null" json:"target_persona"`
	InterviewDuration int    `gorm:"not null" json:"interview_duration"` // menit

	// Semua nominal dalam paise
	TotalPoolAmount   int64 `gorm:"not null" json:"total_pool_amount"`
	NumParticipants   int   `gorm:"not null" json:"num_participants"`
	PerParticipantPay int64 `gorm:"not null" json:"per_participant_pay"`

	// Slot kapasitas yang sudah terpakai; hanya naik lewat accept
	AcceptedCount int `gorm:"not null;default:0" json:"accepted_count"`

	Status       ProjectStatus `gorm:"type:varchar(20);default:'DRAFT';index" json:"status"`
	EscrowPaid   bool          `gorm:"default:false" json:"escrow_paid"`
	EscrowAmount int64         `gorm:"not null;default:0" json:"escrow_amount"`
	PublishedAt  *time.Time    `json:"published_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Creator      *User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Applications []Application `gorm:"foreignKey:ProjectID" json:"applications,omitempty"`
	Interviews   []Interview   `gorm:"foreignKey:ProjectID" json:"interviews,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// GenerateOrderCode generates a random alphanumeric code
func GenerateOrderCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
