package models

import (
	"time"

	"github.com/google/uuid"
)

// PackageProduct is the purchasable definition of a credit bundle. Students
// never hold a product directly; purchasing one mints a StudentPackage that
// points back here for its allowances.
type PackageProduct struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Description  *string   `gorm:"type:text" json:"description,omitempty"`
	Price        float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency     string    `gorm:"size:3;default:'USD'" json:"currency"`
	ValidityDays *int      `json:"validity_days,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	Allowances []PackageAllowance `gorm:"foreignkey:ProductID" json:"allowances"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
