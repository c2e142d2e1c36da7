package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/utils"
)

// SessionStore is the write surface for session creation. WithTx must run fn
// inside one database transaction and roll everything back when fn returns an
// error.
type SessionStore interface {
	WithTx(fn func(tx SessionTx) error) error
}

// SessionTx serializes schedule writes for one teacher. LockTeacher must take
// a pessimistic write lock on the teacher row so two concurrent inserts into
// the same teacher's calendar cannot both pass the conflict check.
type SessionTx interface {
	// LockTeacher loads the teacher row under a write lock. Returns
	// (nil, nil) when absent.
	LockTeacher(teacherID uuid.UUID) (*models.Teacher, error)
	// OverlappingSessions uses the strict overlap predicate
	// (existing.start < end AND existing.end > start).
	OverlappingSessions(teacherID uuid.UUID, startAt, endAt time.Time) ([]models.Session, error)
	ActiveBookingsForSession(sessionID uuid.UUID) ([]models.Booking, error)
	CreateSession(session *models.Session) error
	// CreateBooking must surface a duplicate (session, student) insert as a
	// Conflict-classified error.
	CreateBooking(booking *models.Booking) error
}

// SessionService owns session inserts. The availability validator gives a
// fast, lock-free answer; this service re-runs the conflict predicate under
// the teacher row lock at insert time, which is the authoritative check.
type SessionService struct {
	store SessionStore
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store}
}

// ScheduleSession inserts a session after re-checking, under the teacher row
// lock, that no other session overlaps the window. Callers run the full
// availability validation first; this closes the race between that read and
// the insert.
func (s *SessionService) ScheduleSession(session *models.Session) error {
	err := s.store.WithTx(func(tx SessionTx) error {
		teacher, err := tx.LockTeacher(session.TeacherID)
		if err != nil {
			return err
		}
		if teacher == nil {
			return NotFoundf("Teacher %s not found", session.TeacherID)
		}
		conflicting, err := tx.OverlappingSessions(session.TeacherID, session.StartTime, session.EndTime)
		if err != nil {
			return err
		}
		if len(conflicting) > 0 {
			return Conflictf("Teacher %s already has a session during the requested time", session.TeacherID)
		}
		return tx.CreateSession(session)
	})
	return wrapStorageErr(err, "failed to create session due to a database error")
}

// CreatePrivateLesson creates a capacity-1 private session and its PENDING
// booking in one transaction. A retry that collides only with the student's
// own sole PENDING booking for the window gets that session and booking back
// instead of a conflict, so an interrupted checkout can be resumed.
func (s *SessionService) CreatePrivateLesson(teacherID, studentID uuid.UUID, startAt, endAt time.Time) (*models.Session, *models.Booking, error) {
	var (
		session models.Session
		booking models.Booking
	)
	err := s.store.WithTx(func(tx SessionTx) error {
		teacher, err := tx.LockTeacher(teacherID)
		if err != nil {
			return err
		}
		if teacher == nil {
			return NotFoundf("Teacher %s not found", teacherID)
		}

		conflicting, err := tx.OverlappingSessions(teacherID, startAt, endAt)
		if err != nil {
			return err
		}
		if len(conflicting) == 1 {
			bookings, err := tx.ActiveBookingsForSession(conflicting[0].ID)
			if err != nil {
				return err
			}
			if len(bookings) == 1 && bookings[0].Status == models.BookingPending && bookings[0].StudentID == studentID {
				session = conflicting[0]
				booking = bookings[0]
				return nil
			}
		}
		if len(conflicting) > 0 {
			return Conflictf("Teacher %s already has a session during the requested time", teacherID)
		}

		session = models.Session{
			TeacherID:   teacherID,
			ServiceType: models.ServicePrivate,
			Title:       "Private lesson",
			StartTime:   startAt,
			EndTime:     endAt,
			Capacity:    1,
		}
		if err := tx.CreateSession(&session); err != nil {
			return err
		}
		booking = models.Booking{
			SessionID: session.ID,
			StudentID: studentID,
			Status:    models.BookingPending,
			Reference: utils.GenerateBookingReference(),
		}
		return tx.CreateBooking(&booking)
	})
	if err != nil {
		return nil, nil, wrapStorageErr(err, "failed to create booking due to a database error")
	}
	return &session, &booking, nil
}
