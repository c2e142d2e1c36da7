package services

import (
	"time"

	"github.com/nakkita92/tutorhub_backend/models"
)

// Balance math over the append-only package_use ledger. Nothing here touches
// the database: callers load a package with its uses and allowances, these
// functions derive the numbers. There is deliberately no stored counter to
// keep in sync.

// RemainingCredits derives the remaining balance of one allowance from the
// ledger rows that reference it by id.
func RemainingCredits(a models.PackageAllowance, uses []models.PackageUse) int {
	used := 0
	for _, u := range uses {
		if u.AllowanceID != nil && *u.AllowanceID == a.ID {
			used += u.CreditsUsed
		}
	}
	return clampRemaining(a.Credits - used)
}

// RemainingCreditsByServiceType additionally counts legacy ledger rows that
// predate allowance ids: rows with a nil AllowanceID debit whichever
// allowance shares their service type. Packages written entirely after the
// allowance migration never hit the legacy branch.
func RemainingCreditsByServiceType(a models.PackageAllowance, uses []models.PackageUse) int {
	used := 0
	for _, u := range uses {
		switch {
		case u.AllowanceID != nil && *u.AllowanceID == a.ID:
			used += u.CreditsUsed
		case u.AllowanceID == nil && u.ServiceType == a.ServiceType:
			used += u.CreditsUsed
		}
	}
	return clampRemaining(a.Credits - used)
}

func clampRemaining(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// PackageBalance is the total remaining credits across every allowance of a
// package, legacy rows included.
func PackageBalance(pkg models.StudentPackage) int {
	total := 0
	for _, a := range pkg.Product.Allowances {
		total += RemainingCreditsByServiceType(a, pkg.Uses)
	}
	return total
}

// IsExhausted reports whether every credit in the package has been spent.
func IsExhausted(pkg models.StudentPackage) bool {
	return PackageBalance(pkg) == 0
}

func IsExpired(pkg models.StudentPackage, now time.Time) bool {
	return pkg.ExpiresAt != nil && pkg.ExpiresAt.Before(now)
}

// IsActive reports whether the package can still pay for sessions: not
// tombstoned, not expired, and holding at least one remaining credit.
func IsActive(pkg models.StudentPackage, now time.Time) bool {
	return pkg.DeletedAt == nil && !IsExpired(pkg, now) && !IsExhausted(pkg)
}

// FilterAvailablePackages keeps only packages a student can spend from right
// now. Exhausted and expired packages stay out of this listing but remain
// visible through historical and admin reads, which do not filter.
func FilterAvailablePackages(pkgs []models.StudentPackage, now time.Time) []models.StudentPackage {
	available := make([]models.StudentPackage, 0, len(pkgs))
	for _, pkg := range pkgs {
		if IsActive(pkg, now) {
			available = append(available, pkg)
		}
	}
	return available
}
