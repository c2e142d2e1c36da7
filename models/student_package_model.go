package models

import (
	"time"

	"github.com/google/uuid"
)

// StudentPackage is a student's purchased bundle instance. Its balance is
// never stored in a column: remaining credits are always derived from the
// package_use ledger at read time.
type StudentPackage struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID       uuid.UUID  `gorm:"not null;index" json:"student_id"`
	ProductID       uuid.UUID  `gorm:"not null" json:"product_id"`
	PackageName     string     `gorm:"size:255;not null" json:"package_name"`
	PurchasedAt     time.Time  `gorm:"not null" json:"purchased_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	SourcePaymentID *string    `gorm:"size:255" json:"source_payment_id,omitempty"`
	Metadata        *string    `gorm:"type:text" json:"metadata,omitempty"`

	Student User           `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Product PackageProduct `gorm:"foreignkey:ProductID" json:"product,omitempty"`
	Uses    []PackageUse   `gorm:"foreignkey:StudentPackageID" json:"uses,omitempty"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
