package models

import (
	"time"

	"github.com/google/uuid"
)

// PackageUse is one append-only ledger entry recording a credit debit. Rows
// are never updated or deleted except for the bookingId backfill; the sum of
// CreditsUsed per (package, allowance) can never exceed the allowance's
// credit grant.
//
// AllowanceID is nullable for rows written before allowances existed; those
// legacy rows aggregate by ServiceType instead.
type PackageUse struct {
	ID               uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentPackageID uuid.UUID   `gorm:"not null;index" json:"student_package_id"`
	AllowanceID      *uuid.UUID  `gorm:"index" json:"allowance_id,omitempty"`
	SessionID        uuid.UUID   `gorm:"not null" json:"session_id"`
	BookingID        *uuid.UUID  `gorm:"index" json:"booking_id,omitempty"`
	ServiceType      ServiceType `gorm:"size:20;not null" json:"service_type"`
	CreditsUsed      int         `gorm:"not null;default:1" json:"credits_used"`
	UsedAt           time.Time   `gorm:"not null" json:"used_at"`
	UsedBy           uuid.UUID   `gorm:"not null" json:"used_by"`
	Note             *string     `gorm:"type:text" json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
