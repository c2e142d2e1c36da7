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

// WaitlistRepository backs the waitlist queue with postgres. Waitlist rows
// are hard-deleted; the gapless position sequence depends on it.
type WaitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) WithTx(fn func(tx services.WaitlistTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&waitlistTx{db: tx})
	})
}

func (r *WaitlistRepository) FindSession(sessionID uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.Where("id = ? AND deleted_at IS NULL", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *WaitlistRepository) ActiveBookingCount(sessionID uuid.UUID) (int, error) {
	return activeBookingCount(r.db, sessionID)
}

func (r *WaitlistRepository) FindEntry(entryID uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := r.db.First(&entry, "id = ?", entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *WaitlistRepository) FindEntryByStudent(sessionID, studentID uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := r.db.Where("session_id = ? AND student_id = ?", sessionID, studentID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *WaitlistRepository) HeadEntry(sessionID uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := r.db.Where("session_id = ? AND position = 1", sessionID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *WaitlistRepository) UpdateEntry(entry *models.WaitlistEntry) error {
	return r.db.Save(entry).Error
}

func (r *WaitlistRepository) LapsedEntries(now time.Time) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := r.db.Where("notification_expires_at IS NOT NULL AND notification_expires_at < ?", now).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

type waitlistTx struct {
	db *gorm.DB
}

// LockQueue takes the session row FOR UPDATE. Concurrent transactions
// mutating the same session's queue block here, so position reads inside the
// transaction are never stale.
func (t *waitlistTx) LockQueue(sessionID uuid.UUID) error {
	var session models.Session
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, "id = ?", sessionID).Error
}

func (t *waitlistTx) FindEntry(entryID uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := t.db.First(&entry, "id = ?", entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (t *waitlistTx) MaxPosition(sessionID uuid.UUID) (int, error) {
	var max *int
	err := t.db.Model(&models.WaitlistEntry{}).
		Where("session_id = ?", sessionID).
		Select("max(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (t *waitlistTx) CreateEntry(entry *models.WaitlistEntry) error {
	err := t.db.Create(entry).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return services.Conflictf("You are already on the waitlist for this session")
	}
	return err
}

func (t *waitlistTx) DeleteEntry(entryID uuid.UUID) error {
	// Hard delete on purpose: position renumbering needs the row gone.
	return t.db.Unscoped().Delete(&models.WaitlistEntry{}, "id = ?", entryID).Error
}

func (t *waitlistTx) CompactPositionsAfter(sessionID uuid.UUID, removedPosition int) error {
	return t.db.Model(&models.WaitlistEntry{}).
		Where("session_id = ? AND position > ?", sessionID, removedPosition).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
}

func (t *waitlistTx) CreateBooking(booking *models.Booking) error {
	err := t.db.Create(booking).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return services.Conflictf("You already have a booking for this session")
	}
	return err
}

func activeBookingCount(db *gorm.DB, sessionID uuid.UUID) (int, error) {
	var count int64
	err := db.Model(&models.Booking{}).
		Where("session_id = ? AND deleted_at IS NULL AND status NOT IN ?", sessionID,
			[]string{models.BookingCancelled, models.BookingForfeit}).
		Count(&count).Error
	return int(count), err
}
