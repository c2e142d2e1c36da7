package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository backs session creation. Inserts go through a transaction
// that holds the teacher row FOR UPDATE while the conflict predicate runs.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) WithTx(fn func(tx services.SessionTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&sessionTx{db: tx})
	})
}

type sessionTx struct {
	db *gorm.DB
}

func (t *sessionTx) LockTeacher(teacherID uuid.UUID) (*models.Teacher, error) {
	var teacher models.Teacher
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&teacher, "id = ?", teacherID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Same strict overlap predicate as the availability validator; changing the
// bounds here would silently allow double-booking.
func (t *sessionTx) OverlappingSessions(teacherID uuid.UUID, startAt, endAt time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := t.db.Where(
		"teacher_id = ? AND deleted_at IS NULL AND status <> ? AND start_time < ? AND end_time > ?",
		teacherID, "cancelled", endAt, startAt,
	).Find(&sessions).Error
	return sessions, err
}

func (t *sessionTx) ActiveBookingsForSession(sessionID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := t.db.Where(
		"session_id = ? AND deleted_at IS NULL AND status NOT IN ?",
		sessionID, []string{models.BookingCancelled, models.BookingForfeit},
	).Find(&bookings).Error
	return bookings, err
}

func (t *sessionTx) CreateSession(session *models.Session) error {
	return t.db.Create(session).Error
}

func (t *sessionTx) CreateBooking(booking *models.Booking) error {
	err := t.db.Create(booking).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return services.Conflictf("You already have a booking for this session")
	}
	return err
}
