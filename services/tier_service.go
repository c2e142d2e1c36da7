package services

import (
	"fmt"

	"github.com/nakkita92/tutorhub_backend/models"
)

// Credit tiers rank how valuable a credit or a session is: a service-type
// base plus the teacher premium. An allowance can pay for any session of the
// same service type at or below its own tier. Course sessions never consume
// tiered credits; they go through enrollment instead.

const (
	basePrivateTier = 100
	baseGroupTier   = 50
	baseCourseTier  = 0
)

func baseTier(serviceType models.ServiceType) int {
	switch serviceType {
	case models.ServicePrivate:
		return basePrivateTier
	case models.ServiceGroup:
		return baseGroupTier
	}
	return baseCourseTier
}

// SessionTier ranks a session taught by a teacher of the given tier.
func SessionTier(serviceType models.ServiceType, teacherTier int) int {
	return baseTier(serviceType) + teacherTier
}

// AllowanceTier ranks the credits held in an allowance.
func AllowanceTier(a models.PackageAllowance) int {
	return baseTier(a.ServiceType) + a.TeacherTierFloor
}

// CanUseAllowanceForSession reports whether an allowance may pay for a
// session, and whether doing so is cross-tier (spending a higher-value credit
// on a lower-value session). Cross-tier use is allowed but warned about.
func CanUseAllowanceForSession(a models.PackageAllowance, sessionType models.ServiceType, teacherTier int) (canUse bool, isCrossTier bool) {
	if sessionType == models.ServiceCourse {
		return false, false
	}
	if a.ServiceType != sessionType {
		return false, false
	}
	at, st := AllowanceTier(a), SessionTier(sessionType, teacherTier)
	if at < st {
		return false, false
	}
	return true, at > st
}

// CrossTierWarningMessage returns the user-facing warning for a cross-tier
// booking, or nil when the pairing is not cross-tier (or not usable at all).
func CrossTierWarningMessage(a models.PackageAllowance, sessionType models.ServiceType, teacherTier int) *string {
	canUse, crossTier := CanUseAllowanceForSession(a, sessionType, teacherTier)
	if !canUse || !crossTier {
		return nil
	}
	msg := fmt.Sprintf(
		"You are using a %q credit for a %s with a lower-tier teacher. It will be charged at full credit value.",
		a.Label, sessionType.Label(),
	)
	return &msg
}

// CreditsRequired is the integer credit charge for a session: duration
// divided by the allowance's credit unit, rounded up.
func CreditsRequired(durationMinutes, creditUnitMinutes int) int {
	if creditUnitMinutes <= 0 {
		return 0
	}
	return (durationMinutes + creditUnitMinutes - 1) / creditUnitMinutes
}

// DurationMismatchWarning describes unused or over-consumed minutes when a
// session's length is not an exact multiple of the credit unit. The integer
// charge itself is never altered; this only explains the rounding.
func DurationMismatchWarning(durationMinutes, creditUnitMinutes int) *string {
	if creditUnitMinutes <= 0 || durationMinutes%creditUnitMinutes == 0 {
		return nil
	}
	credits := CreditsRequired(durationMinutes, creditUnitMinutes)
	unusedMinutes := credits*creditUnitMinutes - durationMinutes
	msg := fmt.Sprintf(
		"This %d-minute session does not match the %d-minute credit unit: %d credits will be charged, leaving %d minutes of credit unused.",
		durationMinutes, creditUnitMinutes, credits, unusedMinutes,
	)
	return &msg
}

// FirstUsableAllowance picks the allowance that pays for a session when the
// caller did not name one: the first match in declaration order. Callers that
// need best-fit selection must pass an explicit allowance id instead.
func FirstUsableAllowance(allowances []models.PackageAllowance, sessionType models.ServiceType, teacherTier int) *models.PackageAllowance {
	for i := range allowances {
		if canUse, _ := CanUseAllowanceForSession(allowances[i], sessionType, teacherTier); canUse {
			return &allowances[i]
		}
	}
	return nil
}
