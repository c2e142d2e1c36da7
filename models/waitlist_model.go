package models

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistEntry holds a student's place in line for a full session. Positions
// within one session are dense and gapless starting at 1; entries are hard
// deleted on leave or promotion and the remaining positions compacted, since
// position integrity depends on physical deletion.
type WaitlistEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID uuid.UUID `gorm:"not null;uniqueIndex:idx_waitlist_session_student" json:"session_id"`
	StudentID uuid.UUID `gorm:"not null;uniqueIndex:idx_waitlist_session_student" json:"student_id"`
	Position  int       `gorm:"not null" json:"position"`

	NotifiedAt            *time.Time `json:"notified_at,omitempty"`
	NotificationExpiresAt *time.Time `json:"notification_expires_at,omitempty"`

	Session Session `gorm:"foreignkey:SessionID" json:"session,omitempty"`
	Student User    `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
