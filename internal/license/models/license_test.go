package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dlms/pkg/domain"
	dErrors "dlms/pkg/domain-errors"
)

func TestValidityYears(t *testing.T) {
	tests := []struct {
		name  string
		age   int
		first bool
		want  int
	}{
		{"novice first of class", 18, true, NoviceValidityYears},
		{"under 21 renewing", 20, false, StandardValidityYears},
		{"adult", 40, true, StandardValidityYears},
		{"boundary 21", 21, true, StandardValidityYears},
		{"senior", 65, false, SeniorValidityYears},
		{"senior first of class", 70, true, SeniorValidityYears},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidityYears(tt.age, tt.first))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "20250301-000042", FormatNumber(day, 42))
	assert.Equal(t, "20250301-999999", FormatNumber(day, 999_999))
	assert.Regexp(t, `^\d{8}-\d{6}$`, FormatNumber(day, 1_234_567))
}

func TestLicenseTransitions(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	newLicense := func(status Status) *License {
		return &License{
			ID:        id.NewLicenseID(),
			Status:    status,
			IssuedAt:  now.AddDate(-1, 0, 0),
			ExpiresAt: now.AddDate(4, 0, 0),
		}
	}

	t.Run("suspend requires valid", func(t *testing.T) {
		l := newLicense(StatusValid)
		require.NoError(t, l.CanSuspend())
		l.ApplySuspend("speeding", now)
		assert.Equal(t, StatusSuspended, l.Status)
		assert.Contains(t, l.Notes, "speeding")
		assert.True(t, dErrors.HasCode(l.CanSuspend(), dErrors.CodeInvalidState))
	})

	t.Run("disqualify from anything but disqualified", func(t *testing.T) {
		for _, st := range []Status{StatusValid, StatusExpired, StatusSuspended, StatusSuperseded} {
			assert.NoError(t, newLicense(st).CanDisqualify(), st)
		}
		assert.True(t, dErrors.HasCode(newLicense(StatusDisqualified).CanDisqualify(), dErrors.CodeInvalidState))
	})

	t.Run("reinstate only suspended and unexpired", func(t *testing.T) {
		assert.Error(t, newLicense(StatusValid).CanReinstate(now))
		l := newLicense(StatusSuspended)
		require.NoError(t, l.CanReinstate(now))
		l.ApplyReinstate(now)
		assert.Equal(t, StatusValid, l.Status)

		lapsed := newLicense(StatusSuspended)
		lapsed.ExpiresAt = now.AddDate(0, 0, -1)
		assert.True(t, dErrors.HasCode(lapsed.CanReinstate(now), dErrors.CodeInvalidState))
	})

	t.Run("supersede records replacement", func(t *testing.T) {
		l := newLicense(StatusValid)
		by := id.NewLicenseID()
		l.ApplySupersede(by, now)
		assert.Equal(t, StatusSuperseded, l.Status)
		require.NotNil(t, l.SupersededBy)
		assert.Equal(t, by, *l.SupersededBy)
	})

	t.Run("expiry day is still valid", func(t *testing.T) {
		l := newLicense(StatusValid)
		l.ExpiresAt = StartOfDay(now)
		assert.True(t, l.IsCurrentlyValid(now))
		assert.False(t, l.IsCurrentlyValid(now.AddDate(0, 0, 1)))
	})
}
