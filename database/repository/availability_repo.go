package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"gorm.io/gorm"
)

// AvailabilityRepository is the read-only query surface of the availability
// validator. No locking here: booking creation re-checks the conflict
// predicate inside its own transaction.
type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) FindTeacher(teacherID uuid.UUID) (*models.Teacher, error) {
	var teacher models.Teacher
	err := r.db.First(&teacher, "id = ?", teacherID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *AvailabilityRepository) ActiveRules(teacherID uuid.UUID) ([]models.TeacherAvailability, error) {
	var rules []models.TeacherAvailability
	err := r.db.Where("teacher_id = ? AND is_active = ? AND deleted_at IS NULL", teacherID, true).
		Find(&rules).Error
	return rules, err
}

// OverlappingSessions uses the strict overlap predicate
// (existing.start < end AND existing.end > start). Back-to-back sessions that
// merely touch do not conflict; changing these bounds would silently allow
// double-booking.
func (r *AvailabilityRepository) OverlappingSessions(teacherID uuid.UUID, startAt, endAt time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.Where(
		"teacher_id = ? AND deleted_at IS NULL AND status <> ? AND start_time < ? AND end_time > ?",
		teacherID, "cancelled", endAt, startAt,
	).Find(&sessions).Error
	return sessions, err
}

func (r *AvailabilityRepository) ActiveBookingsForSession(sessionID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where(
		"session_id = ? AND deleted_at IS NULL AND status NOT IN ?",
		sessionID, []string{models.BookingCancelled, models.BookingForfeit},
	).Find(&bookings).Error
	return bookings, err
}
