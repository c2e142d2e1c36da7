package models

import (
	"time"

	"github.com/google/uuid"
)

// Teacher is the marketplace profile attached to a user with the teacher role.
// Tier is the teacher's premium rank; it feeds directly into the credit tier
// math, so changing a teacher's tier changes which allowances can pay for
// their sessions.
type Teacher struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID `gorm:"not null;unique" json:"user_id"`
	Headline *string   `gorm:"size:255" json:"headline"`
	Bio      *string   `gorm:"type:text" json:"bio"`
	Tier     int       `gorm:"not null;default:0" json:"tier"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`

	User User `gorm:"foreignkey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
