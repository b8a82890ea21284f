package matching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	filter := NewFilter(NewDefaultParams(), discardLogger)

	eligible := newMember(1, domain.GenderMale)

	unverified := newMember(2, domain.GenderFemale)
	unverified.Verified = false

	unpaid := newMember(3, domain.GenderMale)
	unpaid.Paid = false

	onboarding := newMember(4, domain.GenderFemale)
	onboarding.OnboardingComplete = false

	recent := newMember(5, domain.GenderMale)
	recent.LastMatchedAt = ptrTime(now.AddDate(0, 0, -21))

	longAgo := newMember(6, domain.GenderFemale)
	longAgo.LastMatchedAt = ptrTime(now.AddDate(0, 0, -49))

	noSpecialty := newMember(7, domain.GenderMale)
	noSpecialty.Specialty = ""

	badGender := newMember(8, domain.GenderMale)
	badGender.Gender = "unknown"

	roster := []domain.Member{eligible, unverified, unpaid, onboarding, recent, longAgo, noSpecialty, badGender}

	result := filter.Apply(context.Background(), roster, now)

	require.Len(t, result.Eligible, 2)
	assert.Equal(t, eligible.ID, result.Eligible[0].ID, "input order must be preserved")
	assert.Equal(t, longAgo.ID, result.Eligible[1].ID)

	reasons := make(map[uuid.UUID]ExclusionReason)
	for _, ex := range result.Excluded {
		reasons[ex.MemberID] = ex.Reason
	}
	assert.Equal(t, ExcludedUnverified, reasons[unverified.ID])
	assert.Equal(t, ExcludedUnpaid, reasons[unpaid.ID])
	assert.Equal(t, ExcludedOnboarding, reasons[onboarding.ID])
	assert.Equal(t, ExcludedCooldown, reasons[recent.ID])
	assert.Equal(t, ExcludedIncompleteProfile, reasons[noSpecialty.ID])
	assert.Equal(t, ExcludedIncompleteProfile, reasons[badGender.ID])

	for _, ex := range result.Excluded {
		if ex.Reason == ExcludedIncompleteProfile {
			require.Error(t, ex.Err)
			assert.Equal(t, domain.KindAdvisory, domain.KindOf(ex.Err))
			assert.ErrorIs(t, ex.Err, domain.ErrValidation)
			assert.Contains(t, ex.Err.Error(), ex.Detail)
		} else {
			assert.NoError(t, ex.Err, "member %s", ex.MemberID)
		}
	}
}

func TestFilter_HyphenatedNoPreferenceIsEligible(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	filter := NewFilter(NewDefaultParams(), discardLogger)

	m := newMember(1, domain.GenderFemale)
	m.SpecialtyPreference = "no-preference"

	result := filter.Apply(context.Background(), []domain.Member{m}, now)
	require.Len(t, result.Eligible, 1)
	assert.Empty(t, result.Excluded)
}

func TestFilter_CooldownBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	filter := NewFilter(NewDefaultParams(), discardLogger)

	testCases := []struct {
		name     string
		matched  time.Time
		eligible bool
	}{
		{"matched three weeks ago", now.AddDate(0, 0, -21), false},
		{"matched one second short of six weeks", now.AddDate(0, 0, -42).Add(time.Second), false},
		{"matched exactly six weeks ago", now.AddDate(0, 0, -42), true},
		{"matched seven weeks ago", now.AddDate(0, 0, -49), true},
		{"matched in the future", now.AddDate(0, 0, 1), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := newMember(1, domain.GenderMale)
			m.LastMatchedAt = ptrTime(tc.matched)

			result := filter.Apply(context.Background(), []domain.Member{m}, now)
			assert.Equal(t, tc.eligible, len(result.Eligible) == 1)
		})
	}
}

func TestFilter_DuplicateRosterEntries(t *testing.T) {
	t.Parallel()

	filter := NewFilter(NewDefaultParams(), discardLogger)
	m := newMember(1, domain.GenderMale)

	result := filter.Apply(context.Background(), []domain.Member{m, m}, time.Now())

	require.Len(t, result.Eligible, 1)
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, ExcludedDuplicateRosterRow, result.Excluded[0].Reason)
}

func TestFilter_EmptyRoster(t *testing.T) {
	t.Parallel()

	filter := NewFilter(NewDefaultParams(), nil)
	result := filter.Apply(context.Background(), nil, time.Now())

	assert.Empty(t, result.Eligible)
	assert.Empty(t, result.Excluded)
}
