package models

import (
	"time"

	"github.com/google/uuid"
)

// PackageAllowance is one credit-type entitlement inside a product: how many
// credits of a given service type the package grants, the minimum teacher
// tier those credits were priced for, and how many minutes one credit buys.
// Rows are immutable once created; a product carries at most one allowance
// per service type.
type PackageAllowance struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID `gorm:"not null;index" json:"product_id"`

	Label             string      `gorm:"size:255;not null" json:"label"`
	ServiceType       ServiceType `gorm:"size:20;not null" json:"service_type"`
	TeacherTierFloor  int         `gorm:"not null;default:0" json:"teacher_tier_floor"`
	Credits           int         `gorm:"not null" json:"credits"`
	CreditUnitMinutes int         `gorm:"not null;default:60" json:"credit_unit_minutes"`

	CreatedAt time.Time `json:"created_at"`
}
