package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewStatus string

const (
	InterviewStatusScheduled InterviewStatus = "SCHEDULED"
	InterviewStatusCompleted InterviewStatus = "COMPLETED"
	InterviewStatusCancelled InterviewStatus = "CANCELLED"
)

// Interview is created when an application is accepted. PayoutAmount is
// copied from the project's per-participant pay at acceptance time and is
// never recomputed. Rows are never deleted; disputes and cancellations are
// a status, not a removal.
type Interview struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`
	ProfessionalID uuid.UUID `gorm:"type:uuid;index;not null" json:"professional_id"`
	ApplicationID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"application_id"`

	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	PayoutAmount    int64     `gorm:"not null" json:"payout_amount"` // paise, dibekukan saat accept

	Status      InterviewStatus `gorm:"type:varchar(20);default:'SCHEDULED';index" json:"status"`
	CompletedAt *time.Time      `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project      *Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Professional *User        `gorm:"foreignKey:ProfessionalID" json:"professional,omitempty"`
	Application  *Application `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
}

func (i *Interview) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
