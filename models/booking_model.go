package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingPending   = "PENDING"
	BookingInvited   = "INVITED"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingNoShow    = "NO_SHOW"
	BookingForfeit   = "FORFEIT"
)

type Booking struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID        uuid.UUID  `gorm:"not null;uniqueIndex:idx_booking_session_student" json:"session_id"`
	StudentID        uuid.UUID  `gorm:"not null;uniqueIndex:idx_booking_session_student" json:"student_id"`
	Status           string     `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	Reference        string     `gorm:"size:12" json:"reference"`
	StudentPackageID *uuid.UUID `json:"student_package_id,omitempty"`
	PackageUseID     *uuid.UUID `json:"package_use_id,omitempty"`
	CreditsCost      *int       `json:"credits_cost,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	RescheduledCount int        `gorm:"not null;default:0" json:"rescheduled_count"`

	Session Session `gorm:"foreignkey:SessionID" json:"session,omitempty"`
	Student User    `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Active reports whether the booking still occupies a seat.
func (b *Booking) Active() bool {
	switch b.Status {
	case BookingCancelled, BookingForfeit:
		return false
	}
	return b.DeletedAt == nil
}
