package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleFounder      Role = "founder"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
)

// User is an account on either side of the marketplace. Role is fixed at
// signup and never changes afterwards.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// HAS ONE profile and wallet (profiles.user_id / wallets.user_id -> users.id)
	Profile *Profile `gorm:"foreignKey:UserID;references:ID" json:"profile,omitempty"`
	Wallet  *Wallet  `gorm:"foreignKey:UserID;references:ID" json:"wallet,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
