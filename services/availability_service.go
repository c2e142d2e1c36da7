package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
)

// AvailabilityStore is the read surface the validator needs. Every method
// excludes tombstoned rows; OverlappingSessions additionally excludes
// cancelled sessions, and ActiveBookingsForSession excludes cancelled and
// forfeited bookings.
type AvailabilityStore interface {
	// FindTeacher returns (nil, nil) when the teacher does not exist.
	FindTeacher(teacherID uuid.UUID) (*models.Teacher, error)
	ActiveRules(teacherID uuid.UUID) ([]models.TeacherAvailability, error)
	// OverlappingSessions returns sessions with existing.start < endAt AND
	// existing.end > startAt (strict overlap).
	OverlappingSessions(teacherID uuid.UUID, startAt, endAt time.Time) ([]models.Session, error)
	ActiveBookingsForSession(sessionID uuid.UUID) ([]models.Booking, error)
}

type ValidateAvailabilityInput struct {
	TeacherID uuid.UUID
	StartAt   time.Time
	EndAt     time.Time
	// RequestingStudentID, when set, lets the student's own sole PENDING
	// booking on a conflicting session pass (an idempotent retry of their
	// in-flight checkout). No other booking status gets this pass.
	RequestingStudentID *uuid.UUID
}

type ValidationResult struct {
	Valid     bool      `json:"valid"`
	TeacherID uuid.UUID `json:"teacher_id"`
}

type AvailabilityService struct {
	store AvailabilityStore
}

func NewAvailabilityService(store AvailabilityStore) *AvailabilityService {
	return &AvailabilityService{store: store}
}

// ValidateAvailability checks that a teacher can host a session in the given
// window. The checks are ordered and the first failure wins: teacher missing,
// teacher inactive, blackout overlap, no declared availability, then booking
// conflict. This read path takes no locks; booking creation re-checks the
// conflict predicate inside its own transaction.
func (s *AvailabilityService) ValidateAvailability(in ValidateAvailabilityInput) (*ValidationResult, error) {
	if !in.EndAt.After(in.StartAt) {
		return nil, BadRequestf("start time must be before end time")
	}

	teacher, err := s.store.FindTeacher(in.TeacherID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to validate availability due to a database error")
	}
	if teacher == nil {
		return nil, NotFoundf("Teacher %s not found", in.TeacherID)
	}
	if !teacher.IsActive {
		return nil, BadRequestf("Teacher %s is inactive", in.TeacherID)
	}

	rules, err := s.store.ActiveRules(in.TeacherID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to validate availability due to a database error")
	}
	if hasBlackout(rules, in.StartAt, in.EndAt) {
		return nil, BadRequestf("Teacher %s has a blackout during the requested time", in.TeacherID)
	}
	if !hasAvailability(rules, in.StartAt, in.EndAt) {
		return nil, BadRequestf("Teacher %s is not available during the requested time", in.TeacherID)
	}

	conflicting, err := s.store.OverlappingSessions(in.TeacherID, in.StartAt, in.EndAt)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to validate availability due to a database error")
	}
	if len(conflicting) > 0 {
		bypass, err := s.isOwnPendingRetry(conflicting, in.RequestingStudentID)
		if err != nil {
			return nil, wrapStorageErr(err, "failed to validate availability due to a database error")
		}
		if !bypass {
			return nil, Conflictf("Teacher %s already has a session during the requested time", in.TeacherID)
		}
	}

	return &ValidationResult{Valid: true, TeacherID: in.TeacherID}, nil
}

// Blackouts use inclusive bounds: a blackout that merely touches the edge of
// the window still blocks it.
func hasBlackout(rules []models.TeacherAvailability, startAt, endAt time.Time) bool {
	for _, r := range rules {
		if r.Kind != models.AvailabilityBlackout || !r.IsActive || r.StartAt == nil || r.EndAt == nil {
			continue
		}
		if !r.StartAt.After(endAt) && !r.EndAt.Before(startAt) {
			return true
		}
	}
	return false
}

func hasAvailability(rules []models.TeacherAvailability, startAt, endAt time.Time) bool {
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		switch r.Kind {
		case models.AvailabilityOneOff:
			if r.StartAt == nil || r.EndAt == nil {
				continue
			}
			if !r.StartAt.After(startAt) && !r.EndAt.Before(endAt) {
				return true
			}
		case models.AvailabilityRecurring:
			if recurringRuleCovers(r, startAt, endAt) {
				return true
			}
		}
	}
	return false
}

// recurringRuleCovers matches the weekday and minute-of-day range of the
// window against a recurring rule. Both are computed relative to the window
// start in UTC, so a window ending after midnight keeps the start day's
// weekday and an end minute past 1440.
func recurringRuleCovers(r models.TeacherAvailability, startAt, endAt time.Time) bool {
	if r.Weekday == nil || r.StartMinuteUTC == nil || r.EndMinuteUTC == nil {
		return false
	}
	start := startAt.UTC()
	if int(start.Weekday()) != *r.Weekday {
		return false
	}
	startMinute := start.Hour()*60 + start.Minute()
	endMinute := startMinute + int(endAt.Sub(startAt).Minutes())
	return *r.StartMinuteUTC <= startMinute && *r.EndMinuteUTC >= endMinute
}

func (s *AvailabilityService) isOwnPendingRetry(conflicting []models.Session, studentID *uuid.UUID) (bool, error) {
	if studentID == nil || len(conflicting) != 1 {
		return false, nil
	}
	bookings, err := s.store.ActiveBookingsForSession(conflicting[0].ID)
	if err != nil {
		return false, err
	}
	if len(bookings) != 1 {
		return false, nil
	}
	b := bookings[0]
	return b.Status == models.BookingPending && b.StudentID == *studentID, nil
}
