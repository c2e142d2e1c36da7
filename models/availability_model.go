package models

import (
	"time"

	"github.com/google/uuid"
)

// Availability rule kinds. A teacher's bookable windows are the union of
// ONE_OFF and RECURRING windows minus BLACKOUT windows minus existing
// non-cancelled sessions.
const (
	AvailabilityOneOff    = "ONE_OFF"
	AvailabilityRecurring = "RECURRING"
	AvailabilityBlackout  = "BLACKOUT"
)

type TeacherAvailability struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TeacherID uuid.UUID `gorm:"not null;index" json:"teacher_id"`
	Kind      string    `gorm:"size:20;not null" json:"kind"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`

	// ONE_OFF and BLACKOUT rules use absolute bounds.
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	// RECURRING rules use a weekday plus a minute-of-day range
	// (e.g. Monday 600-660 is 10:00-11:00).
	Weekday        *int `json:"weekday,omitempty"`
	StartMinuteUTC *int `json:"start_minute_utc,omitempty"`
	EndMinuteUTC   *int `json:"end_minute_utc,omitempty"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
