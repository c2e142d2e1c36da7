package models

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TeacherID   uuid.UUID   `gorm:"not null;index" json:"teacher_id"`
	ServiceType ServiceType `gorm:"size:20;not null" json:"service_type"`
	Title       string      `gorm:"size:255" json:"title"`
	StartTime   time.Time   `gorm:"not null;index" json:"start_time"`
	EndTime     time.Time   `gorm:"not null" json:"end_time"`
	Status      string      `gorm:"size:20;not null;default:'scheduled'" json:"status"`

	// Capacity is 1 for private lessons and >1 for group classes.
	Capacity int `gorm:"not null;default:1" json:"capacity"`

	Teacher  Teacher   `gorm:"foreignkey:TeacherID;association_foreignkey:ID" json:"teacher,omitempty"`
	Bookings []Booking `gorm:"foreignkey:SessionID" json:"bookings,omitempty"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *Session) DurationMinutes() int {
	return int(s.EndTime.Sub(s.StartTime).Minutes())
}
