package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Headline       string `gorm:"type:varchar(150)" json:"headline"`
	Bio            string `gorm:"type:text" json:"bio"`
	CurrentCompany string `gorm:"type:varchar(120)" json:"current_company"`
	Location       string `gorm:"type:varchar(120)" json:"location"`
	LinkedinURL    string `gorm:"type:varchar(255)" json:"linkedin_url"`

	// Skills disimpan sebagai JSON array, e.g. ["B2B SaaS", "Fintech"]
	Skills datatypes.JSON `json:"skills"`

	YearsExperience int `json:"years_experience"`

	// Diisi oleh admin setelah verifikasi manual
	IsVerified bool       `gorm:"default:false" json:"is_verified"`
	VerifiedAt *time.Time `json:"verified_at"`

	// Agregat riwayat interview
	TotalInterviews int     `gorm:"default:0" json:"total_interviews"`
	AvgRating       float64 `gorm:"default:0" json:"avg_rating"`
	CompletionRate  float64 `gorm:"default:0" json:"completion_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
