package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "PENDING"
	ApplicationStatusAccepted  ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
	ApplicationStatusWithdrawn ApplicationStatus = "WITHDRAWN"
)

// Application links a professional to a project. At most one per
// (project, applicant) pair; reviews are terminal.
type Application struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_applicant" json:"project_id"`
	ApplicantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_applicant;index" json:"applicant_id"`

	CoverLetter  string `gorm:"type:text" json:"cover_letter"`
	Availability string `gorm:"type:text" json:"availability"`

	Status ApplicationStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Applicant *User    `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
