package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nakkita92/tutorhub_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowance(serviceType models.ServiceType, tierFloor, credits, unitMinutes int) models.PackageAllowance {
	return models.PackageAllowance{
		ID:                uuid.New(),
		Label:             string(serviceType) + " allowance",
		ServiceType:       serviceType,
		TeacherTierFloor:  tierFloor,
		Credits:           credits,
		CreditUnitMinutes: unitMinutes,
	}
}

func TestSessionTier(t *testing.T) {
	assert.Equal(t, 100, SessionTier(models.ServicePrivate, 0))
	assert.Equal(t, 103, SessionTier(models.ServicePrivate, 3))
	assert.Equal(t, 50, SessionTier(models.ServiceGroup, 0))
	assert.Equal(t, 52, SessionTier(models.ServiceGroup, 2))
	assert.Equal(t, 1, SessionTier(models.ServiceCourse, 1))
}

func TestCanUseAllowanceForSession(t *testing.T) {
	tests := []struct {
		name        string
		allowance   models.PackageAllowance
		sessionType models.ServiceType
		teacherTier int
		wantCanUse  bool
		wantCross   bool
	}{
		{"matching type and tier", allowance(models.ServicePrivate, 1, 5, 60), models.ServicePrivate, 1, true, false},
		{"higher allowance tier is cross-tier", allowance(models.ServicePrivate, 2, 5, 60), models.ServicePrivate, 0, true, true},
		{"lower allowance tier is unusable", allowance(models.ServicePrivate, 0, 5, 60), models.ServicePrivate, 2, false, false},
		{"service type mismatch", allowance(models.ServiceGroup, 5, 5, 60), models.ServicePrivate, 0, false, false},
		{"private allowance never pays group", allowance(models.ServicePrivate, 0, 5, 60), models.ServiceGroup, 0, false, false},
		{"course session never usable", allowance(models.ServiceCourse, 9, 5, 60), models.ServiceCourse, 0, false, false},
		{"course session unusable even for group credits", allowance(models.ServiceGroup, 0, 5, 60), models.ServiceCourse, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canUse, cross := CanUseAllowanceForSession(tt.allowance, tt.sessionType, tt.teacherTier)
			assert.Equal(t, tt.wantCanUse, canUse)
			assert.Equal(t, tt.wantCross, cross)
		})
	}
}

func TestCrossTierWarningNamesAllowanceAndSessionType(t *testing.T) {
	a := allowance(models.ServiceGroup, 1, 5, 60)
	a.Label = "Premium group pack"

	// allowanceTier 51 > sessionTier 50: usable but cross-tier.
	canUse, cross := CanUseAllowanceForSession(a, models.ServiceGroup, 0)
	require.True(t, canUse)
	require.True(t, cross)

	msg := CrossTierWarningMessage(a, models.ServiceGroup, 0)
	require.NotNil(t, msg)
	assert.Contains(t, *msg, "Premium group pack")
	assert.Contains(t, *msg, "group class")
}

func TestCrossTierWarningNilWhenNotCrossTier(t *testing.T) {
	a := allowance(models.ServiceGroup, 0, 5, 60)
	assert.Nil(t, CrossTierWarningMessage(a, models.ServiceGroup, 0))
	// Unusable pairings never warn either; they fail outright.
	assert.Nil(t, CrossTierWarningMessage(a, models.ServicePrivate, 0))
}

func TestCreditsRequired(t *testing.T) {
	assert.Equal(t, 1, CreditsRequired(60, 60))
	assert.Equal(t, 2, CreditsRequired(90, 60))
	assert.Equal(t, 2, CreditsRequired(61, 60))
	assert.Equal(t, 2, CreditsRequired(45, 30))
	assert.Equal(t, 2, CreditsRequired(30, 15))
	assert.Equal(t, 3, CreditsRequired(45, 15))
	assert.Equal(t, 0, CreditsRequired(60, 0))
}

func TestDurationMismatchWarning(t *testing.T) {
	assert.Nil(t, DurationMismatchWarning(60, 60))
	assert.Nil(t, DurationMismatchWarning(90, 45))

	msg := DurationMismatchWarning(45, 60)
	require.NotNil(t, msg)
	assert.Contains(t, *msg, "45-minute session")
	assert.Contains(t, *msg, "60-minute credit unit")
	assert.Contains(t, *msg, "15 minutes")
}

func TestFirstUsableAllowanceIsFirstMatchNotBestFit(t *testing.T) {
	// Declaration order wins: the cross-tier floor-2 allowance comes first
	// and is picked even though the exact-tier one follows it.
	crossTier := allowance(models.ServiceGroup, 2, 5, 60)
	exact := allowance(models.ServiceGroup, 0, 5, 60)
	allowances := []models.PackageAllowance{
		allowance(models.ServicePrivate, 0, 5, 60),
		crossTier,
		exact,
	}

	picked := FirstUsableAllowance(allowances, models.ServiceGroup, 0)
	require.NotNil(t, picked)
	assert.Equal(t, crossTier.ID, picked.ID)
}

func TestFirstUsableAllowanceNoMatch(t *testing.T) {
	allowances := []models.PackageAllowance{allowance(models.ServiceGroup, 0, 5, 60)}
	assert.Nil(t, FirstUsableAllowance(allowances, models.ServicePrivate, 0))
	assert.Nil(t, FirstUsableAllowance(allowances, models.ServiceCourse, 0))
	assert.Nil(t, FirstUsableAllowance(nil, models.ServiceGroup, 0))
}
