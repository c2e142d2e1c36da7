package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/nakkita92/tutorhub_backend/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PackageRepository backs the credit ledger with postgres. The write lock in
// LockPackage is what serializes concurrent debits against one package.
type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) WithTx(fn func(tx services.PackageTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&packageTx{db: tx})
	})
}

func (r *PackageRepository) FindUse(useID uuid.UUID) (*models.PackageUse, error) {
	var use models.PackageUse
	err := r.db.First(&use, "id = ?", useID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &use, nil
}

func (r *PackageRepository) UpdateUseBooking(useID, bookingID uuid.UUID) error {
	return r.db.Model(&models.PackageUse{}).
		Where("id = ?", useID).
		Update("booking_id", bookingID).Error
}

type packageTx struct {
	db *gorm.DB
}

// LockPackage takes the row lock on the bare student_packages row first, then
// loads the product and its allowances in follow-up queries so the FOR UPDATE
// scope stays limited to the single package row being debited.
func (t *packageTx) LockPackage(packageID uuid.UUID) (*models.StudentPackage, error) {
	var pkg models.StudentPackage
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", packageID).
		First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Allowances in declaration order: first-match selection depends on it.
	err = t.db.Preload("Allowances", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&pkg.Product, "id = ?", pkg.ProductID).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (t *packageTx) FindSession(sessionID uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := t.db.Preload("Teacher").
		Where("id = ? AND deleted_at IS NULL", sessionID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (t *packageTx) UsesForPackage(packageID uuid.UUID) ([]models.PackageUse, error) {
	var uses []models.PackageUse
	err := t.db.Where("student_package_id = ?", packageID).
		Order("used_at ASC").
		Find(&uses).Error
	return uses, err
}

func (t *packageTx) CreateUse(use *models.PackageUse) error {
	return t.db.Create(use).Error
}

func (t *packageTx) FindBooking(bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := t.db.Where("id = ? AND deleted_at IS NULL", bookingID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (t *packageTx) CreateBooking(booking *models.Booking) error {
	err := t.db.Create(booking).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return services.Conflictf("You already have a booking for this session")
	}
	return err
}

func (t *packageTx) UpdateBooking(booking *models.Booking) error {
	return t.db.Save(booking).Error
}
