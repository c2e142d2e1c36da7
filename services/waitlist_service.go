package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/utils"
)

const DefaultOfferExpiryHours = 24

// WaitlistStore is the persistence surface of the waitlist queue. Session
// reads exclude tombstoned sessions; ActiveBookingCount counts bookings that
// still occupy a seat (not cancelled or forfeited).
type WaitlistStore interface {
	WithTx(fn func(tx WaitlistTx) error) error
	FindSession(sessionID uuid.UUID) (*models.Session, error)
	ActiveBookingCount(sessionID uuid.UUID) (int, error)
	FindEntry(entryID uuid.UUID) (*models.WaitlistEntry, error)
	FindEntryByStudent(sessionID, studentID uuid.UUID) (*models.WaitlistEntry, error)
	// HeadEntry returns the entry at position 1, or (nil, nil) when the
	// session has no waitlist.
	HeadEntry(sessionID uuid.UUID) (*models.WaitlistEntry, error)
	UpdateEntry(entry *models.WaitlistEntry) error
	LapsedEntries(now time.Time) ([]models.WaitlistEntry, error)
}

// WaitlistTx mutates positions. Every position change runs inside one
// transaction so the gapless invariant only ever breaks mid-transaction, and
// every transaction starts by taking the queue lock so concurrent mutations
// of one session's queue serialize.
type WaitlistTx interface {
	// LockQueue acquires a write lock on the session row, serializing all
	// position mutations for that session's queue.
	LockQueue(sessionID uuid.UUID) error
	// FindEntry re-reads an entry inside the transaction, after LockQueue.
	// Returns (nil, nil) when the entry no longer exists.
	FindEntry(entryID uuid.UUID) (*models.WaitlistEntry, error)
	MaxPosition(sessionID uuid.UUID) (int, error)
	// CreateEntry must surface a duplicate (session, student) insert as a
	// Conflict-classified error.
	CreateEntry(entry *models.WaitlistEntry) error
	DeleteEntry(entryID uuid.UUID) error
	// CompactPositionsAfter decrements by one the position of every entry
	// for the session with a position greater than removedPosition.
	CompactPositionsAfter(sessionID uuid.UUID, removedPosition int) error
	CreateBooking(booking *models.Booking) error
}

// OfferNotifier delivers the "a seat opened up" side effect. Dispatch happens
// strictly after the state transition commits and is best-effort: a delivery
// failure never rolls anything back.
type OfferNotifier interface {
	NotifyOffer(entry models.WaitlistEntry, session models.Session)
}

type WaitlistService struct {
	store    WaitlistStore
	ledger   *PackageUseService
	notifier OfferNotifier
	now      Clock
}

func NewWaitlistService(store WaitlistStore, ledger *PackageUseService, notifier OfferNotifier, now Clock) *WaitlistService {
	if now == nil {
		now = SystemClock
	}
	return &WaitlistService{store: store, ledger: ledger, notifier: notifier, now: now}
}

// JoinWaitlist enrolls a student at the back of a full session's queue. Joining
// is only valid once the session is at capacity; a student who already holds
// an entry gets it back unchanged.
func (s *WaitlistService) JoinWaitlist(sessionID, studentID uuid.UUID) (*models.WaitlistEntry, error) {
	session, err := s.store.FindSession(sessionID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to join waitlist due to a database error")
	}
	if session == nil {
		return nil, NotFoundf("Session %s not found", sessionID)
	}

	existing, err := s.store.FindEntryByStudent(sessionID, studentID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to join waitlist due to a database error")
	}
	if existing != nil {
		return existing, nil
	}

	booked, err := s.store.ActiveBookingCount(sessionID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to join waitlist due to a database error")
	}
	if booked < session.Capacity {
		return nil, BadRequestf("Session still has open seats; book it directly instead of joining the waitlist")
	}

	var entry models.WaitlistEntry
	err = s.store.WithTx(func(tx WaitlistTx) error {
		if err := tx.LockQueue(sessionID); err != nil {
			return err
		}
		maxPos, err := tx.MaxPosition(sessionID)
		if err != nil {
			return err
		}
		entry = models.WaitlistEntry{
			SessionID: sessionID,
			StudentID: studentID,
			Position:  maxPos + 1,
		}
		return tx.CreateEntry(&entry)
	})
	if err != nil {
		return nil, wrapStorageErr(err, "failed to join waitlist due to a database error")
	}
	return &entry, nil
}

// LeaveWaitlist removes the student's own entry and closes the gap it leaves.
func (s *WaitlistService) LeaveWaitlist(entryID, studentID uuid.UUID) error {
	entry, err := s.store.FindEntry(entryID)
	if err != nil {
		return wrapStorageErr(err, "failed to leave waitlist due to a database error")
	}
	if entry == nil || entry.StudentID != studentID {
		return NotFoundf("Waitlist entry %s not found", entryID)
	}

	err = s.store.WithTx(func(tx WaitlistTx) error {
		return removeEntry(tx, entry.SessionID, entry.ID)
	})
	return wrapStorageErr(err, "failed to leave waitlist due to a database error")
}

// removeEntry deletes an entry and closes the gap it leaves. The position is
// re-read under the queue lock: a position captured before the transaction
// may be stale by the time the lock is held, and compacting from a stale
// position strands every entry behind it. A no-op when the entry is already
// gone.
func removeEntry(tx WaitlistTx, sessionID, entryID uuid.UUID) error {
	if err := tx.LockQueue(sessionID); err != nil {
		return err
	}
	current, err := tx.FindEntry(entryID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	if err := tx.DeleteEntry(current.ID); err != nil {
		return err
	}
	return tx.CompactPositionsAfter(current.SessionID, current.Position)
}

// NotifyWaitlistMember time-boxes a seat offer to one entry. The entry keeps
// its position; the offer lapses after expiresInHours (default 24).
func (s *WaitlistService) NotifyWaitlistMember(entryID uuid.UUID, expiresInHours int) (*models.WaitlistEntry, error) {
	if expiresInHours <= 0 {
		expiresInHours = DefaultOfferExpiryHours
	}

	entry, err := s.store.FindEntry(entryID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to notify waitlist member due to a database error")
	}
	if entry == nil {
		return nil, NotFoundf("Waitlist entry %s not found", entryID)
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(expiresInHours) * time.Hour)
	entry.NotifiedAt = &now
	entry.NotificationExpiresAt = &expiresAt
	if err := s.store.UpdateEntry(entry); err != nil {
		return nil, wrapStorageErr(err, "failed to notify waitlist member due to a database error")
	}

	if s.notifier != nil {
		session, err := s.store.FindSession(entry.SessionID)
		if err == nil && session != nil {
			s.notifier.NotifyOffer(*entry, *session)
		}
	}
	return entry, nil
}

// PromoteToBooking turns a waitlist entry into a CONFIRMED booking. Capacity
// is re-checked here rather than trusted from the notification, since other
// seats may have filled in the meantime. When a package id is supplied the
// credit ledger pays for the seat; otherwise the booking is created unpaid.
func (s *WaitlistService) PromoteToBooking(entryID uuid.UUID, studentPackageID *uuid.UUID) (*models.Booking, error) {
	entry, err := s.store.FindEntry(entryID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to promote waitlist entry due to a database error")
	}
	if entry == nil {
		return nil, NotFoundf("Waitlist entry %s not found", entryID)
	}

	session, err := s.store.FindSession(entry.SessionID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to promote waitlist entry due to a database error")
	}
	if session == nil {
		return nil, NotFoundf("Session %s not found", entry.SessionID)
	}

	booked, err := s.store.ActiveBookingCount(session.ID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to promote waitlist entry due to a database error")
	}
	if booked >= session.Capacity {
		return nil, BadRequestf("Session %s is still at capacity", session.ID)
	}

	var booking *models.Booking
	if studentPackageID != nil {
		result, err := s.ledger.UsePackageForSession(UsePackageInput{
			StudentID: entry.StudentID,
			PackageID: *studentPackageID,
			SessionID: session.ID,
		})
		if err != nil {
			return nil, err
		}
		booking = result.Booking
	}

	err = s.store.WithTx(func(tx WaitlistTx) error {
		if booking == nil {
			booking = &models.Booking{
				SessionID: session.ID,
				StudentID: entry.StudentID,
				Status:    models.BookingConfirmed,
				Reference: utils.GenerateBookingReference(),
			}
			if err := tx.CreateBooking(booking); err != nil {
				return err
			}
		}
		return removeEntry(tx, entry.SessionID, entry.ID)
	})
	if err != nil {
		return nil, wrapStorageErr(err, "failed to promote waitlist entry due to a database error")
	}
	return booking, nil
}

// HandleBookingCancellation offers a freed seat to the head of the queue.
// Sessions without a waitlist are a no-op.
func (s *WaitlistService) HandleBookingCancellation(sessionID uuid.UUID) error {
	head, err := s.store.HeadEntry(sessionID)
	if err != nil {
		return wrapStorageErr(err, "failed to process cancellation due to a database error")
	}
	if head == nil {
		return nil
	}
	_, err = s.NotifyWaitlistMember(head.ID, DefaultOfferExpiryHours)
	return err
}

// ExpireLapsedOffers drops every entry whose seat offer has expired, closing
// position gaps and passing each freed offer to the next head in line.
// Returns the number of entries expired.
func (s *WaitlistService) ExpireLapsedOffers() (int, error) {
	now := s.now()
	lapsed, err := s.store.LapsedEntries(now)
	if err != nil {
		return 0, wrapStorageErr(err, "failed to expire waitlist offers due to a database error")
	}

	expired := 0
	for _, entry := range lapsed {
		removed := false
		err := s.store.WithTx(func(tx WaitlistTx) error {
			if err := tx.LockQueue(entry.SessionID); err != nil {
				return err
			}
			current, err := tx.FindEntry(entry.ID)
			if err != nil {
				return err
			}
			// An earlier expiry in this sweep may have moved this entry to
			// the head and handed it a fresh offer; the snapshot from
			// LapsedEntries says nothing about the row's state now.
			if current == nil || current.NotificationExpiresAt == nil || !current.NotificationExpiresAt.Before(now) {
				return nil
			}
			if err := tx.DeleteEntry(current.ID); err != nil {
				return err
			}
			if err := tx.CompactPositionsAfter(current.SessionID, current.Position); err != nil {
				return err
			}
			removed = true
			return nil
		})
		if err != nil {
			log.Printf("🔥 Failed to expire waitlist entry %s: %v", entry.ID, err)
			continue
		}
		if !removed {
			continue
		}
		expired++
		if err := s.HandleBookingCancellation(entry.SessionID); err != nil {
			log.Printf("🔥 Failed to notify next waitlist member for session %s: %v", entry.SessionID, err)
		}
	}
	return expired, nil
}
