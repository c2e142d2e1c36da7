package services

import (
	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/utils"
)

// PackageStore is the persistence surface of the credit ledger. WithTx must
// run fn inside one database transaction and roll everything back when fn
// returns an error; PackageTx methods see uncommitted writes from the same
// transaction.
type PackageStore interface {
	WithTx(fn func(tx PackageTx) error) error
	// FindUse returns (nil, nil) when the ledger row does not exist.
	FindUse(useID uuid.UUID) (*models.PackageUse, error)
	UpdateUseBooking(useID, bookingID uuid.UUID) error
}

// PackageTx is the in-transaction surface. LockPackage must acquire a
// pessimistic write lock (SELECT ... FOR UPDATE) on the single package row so
// concurrent debits against the same package serialize; the lock is held
// until the transaction commits or rolls back.
type PackageTx interface {
	// LockPackage loads the package row under a write lock, with its
	// product allowances. Returns (nil, nil) when absent or tombstoned.
	LockPackage(packageID uuid.UUID) (*models.StudentPackage, error)
	// FindSession loads a non-deleted session with its teacher profile.
	FindSession(sessionID uuid.UUID) (*models.Session, error)
	UsesForPackage(packageID uuid.UUID) ([]models.PackageUse, error)
	CreateUse(use *models.PackageUse) error
	FindBooking(bookingID uuid.UUID) (*models.Booking, error)
	// CreateBooking must surface a duplicate (session, student) insert as a
	// Conflict-classified error.
	CreateBooking(booking *models.Booking) error
	UpdateBooking(booking *models.Booking) error
}

type UsePackageInput struct {
	StudentID uuid.UUID
	PackageID uuid.UUID
	SessionID uuid.UUID
	// BookingID, when set, attaches the debit to an existing booking instead
	// of creating one.
	BookingID *uuid.UUID
	// CreditsUsed overrides the charge; 0 means derive it from the session
	// duration and the allowance's credit unit.
	CreditsUsed int
	// AllowanceID pins the debit to a specific allowance. When nil the first
	// usable allowance in declaration order pays.
	AllowanceID *uuid.UUID
	Note        *string
}

type UsePackageResult struct {
	Use      models.PackageUse `json:"use"`
	Booking  *models.Booking   `json:"booking,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// PackageUseService is the authoritative writer of the credit ledger. Every
// debit runs REQUESTED -> LOCKED -> DEBITED|REJECTED: the package row lock is
// taken first, the balance is recomputed from the ledger under that lock, and
// only then is the use row written. Two concurrent debits against the same
// package serialize on the lock, so the loser always sees the winner's debit.
type PackageUseService struct {
	store PackageStore
	now   Clock
}

func NewPackageUseService(store PackageStore, now Clock) *PackageUseService {
	if now == nil {
		now = SystemClock
	}
	return &PackageUseService{store: store, now: now}
}

// UsePackageForSession debits a student's package for a session booking. The
// use row and the booking are written in the same transaction; the result is
// returned only after commit. At most one debit can observe a given balance
// state.
func (s *PackageUseService) UsePackageForSession(in UsePackageInput) (*UsePackageResult, error) {
	if in.CreditsUsed < 0 {
		return nil, BadRequestf("credits used must be at least 1")
	}

	var result UsePackageResult
	err := s.store.WithTx(func(tx PackageTx) error {
		pkg, err := tx.LockPackage(in.PackageID)
		if err != nil {
			return err
		}
		if pkg == nil || pkg.StudentID != in.StudentID {
			return NotFoundf("Package %s not found", in.PackageID)
		}

		session, err := tx.FindSession(in.SessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return NotFoundf("Session %s not found", in.SessionID)
		}
		if session.ServiceType == models.ServiceCourse {
			return BadRequestf("course sessions are booked through enrollment and never consume package credits")
		}

		now := s.now()
		if IsExpired(*pkg, now) {
			return BadRequestf("Package %q expired on %s", pkg.PackageName, pkg.ExpiresAt.Format("2006-01-02"))
		}

		allowance, err := s.pickAllowance(pkg, session, in.AllowanceID)
		if err != nil {
			return err
		}

		creditsUsed := in.CreditsUsed
		if creditsUsed == 0 {
			creditsUsed = CreditsRequired(session.DurationMinutes(), allowance.CreditUnitMinutes)
		}
		if creditsUsed < 1 {
			return BadRequestf("credits used must be at least 1")
		}

		// Balance as of the lock, never a pre-transaction read.
		uses, err := tx.UsesForPackage(pkg.ID)
		if err != nil {
			return err
		}
		remaining := RemainingCreditsByServiceType(*allowance, uses)
		if remaining < creditsUsed {
			return BadRequestf("no remaining sessions: %d credit(s) requested but %d remaining in %q", creditsUsed, remaining, allowance.Label)
		}

		allowanceID := allowance.ID
		use := models.PackageUse{
			StudentPackageID: pkg.ID,
			AllowanceID:      &allowanceID,
			SessionID:        session.ID,
			BookingID:        in.BookingID,
			ServiceType:      session.ServiceType,
			CreditsUsed:      creditsUsed,
			UsedAt:           now,
			UsedBy:           in.StudentID,
			Note:             in.Note,
		}
		if err := tx.CreateUse(&use); err != nil {
			return err
		}

		booking, err := s.attachBooking(tx, pkg, session, &use, in)
		if err != nil {
			return err
		}
		if booking != nil {
			use.BookingID = &booking.ID
		}

		result = UsePackageResult{Use: use, Booking: booking}
		if w := CrossTierWarningMessage(*allowance, session.ServiceType, session.Teacher.Tier); w != nil {
			result.Warnings = append(result.Warnings, *w)
		}
		if w := DurationMismatchWarning(session.DurationMinutes(), allowance.CreditUnitMinutes); w != nil {
			result.Warnings = append(result.Warnings, *w)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorageErr(err, "failed to consume package credit due to a database error")
	}
	return &result, nil
}

func (s *PackageUseService) pickAllowance(pkg *models.StudentPackage, session *models.Session, allowanceID *uuid.UUID) (*models.PackageAllowance, error) {
	allowances := pkg.Product.Allowances
	if allowanceID != nil {
		for i := range allowances {
			if allowances[i].ID == *allowanceID {
				canUse, _ := CanUseAllowanceForSession(allowances[i], session.ServiceType, session.Teacher.Tier)
				if !canUse {
					return nil, BadRequestf("credits in %q cannot be used for this %s", allowances[i].Label, session.ServiceType.Label())
				}
				return &allowances[i], nil
			}
		}
		return nil, NotFoundf("Allowance %s is not part of package %q", allowanceID, pkg.PackageName)
	}

	allowance := FirstUsableAllowance(allowances, session.ServiceType, session.Teacher.Tier)
	if allowance == nil {
		return nil, BadRequestf("Package %q has no credits usable for this %s", pkg.PackageName, session.ServiceType.Label())
	}
	return allowance, nil
}

func (s *PackageUseService) attachBooking(tx PackageTx, pkg *models.StudentPackage, session *models.Session, use *models.PackageUse, in UsePackageInput) (*models.Booking, error) {
	creditsCost := use.CreditsUsed
	packageID := pkg.ID
	useID := use.ID

	if in.BookingID != nil {
		booking, err := tx.FindBooking(*in.BookingID)
		if err != nil {
			return nil, err
		}
		if booking == nil || booking.StudentID != in.StudentID {
			return nil, NotFoundf("Booking %s not found", in.BookingID)
		}
		booking.StudentPackageID = &packageID
		booking.PackageUseID = &useID
		booking.CreditsCost = &creditsCost
		booking.Status = models.BookingConfirmed
		if err := tx.UpdateBooking(booking); err != nil {
			return nil, err
		}
		return booking, nil
	}

	booking := models.Booking{
		SessionID:        session.ID,
		StudentID:        in.StudentID,
		Status:           models.BookingConfirmed,
		Reference:        utils.GenerateBookingReference(),
		StudentPackageID: &packageID,
		PackageUseID:     &useID,
		CreditsCost:      &creditsCost,
	}
	if err := tx.CreateBooking(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// LinkUseToBooking backfills the booking id on a ledger row when the booking
// was created in a separate step. Idempotent by id; a missing use row returns
// (nil, nil) rather than an error.
func (s *PackageUseService) LinkUseToBooking(useID, bookingID uuid.UUID) (*models.PackageUse, error) {
	use, err := s.store.FindUse(useID)
	if err != nil {
		return nil, wrapStorageErr(err, "failed to link package use due to a database error")
	}
	if use == nil {
		return nil, nil
	}
	if use.BookingID != nil && *use.BookingID == bookingID {
		return use, nil
	}
	if err := s.store.UpdateUseBooking(useID, bookingID); err != nil {
		return nil, wrapStorageErr(err, "failed to link package use due to a database error")
	}
	use.BookingID = &bookingID
	return use, nil
}
