package matching

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
)

// ExclusionReason explains why a roster member is not in the eligible pool.
type ExclusionReason string

// Exclusion reasons.
const (
	ExcludedUnverified         ExclusionReason = "unverified"
	ExcludedUnpaid             ExclusionReason = "unpaid"
	ExcludedOnboarding         ExclusionReason = "onboarding_incomplete"
	ExcludedCooldown           ExclusionReason = "cooldown"
	ExcludedIncompleteProfile  ExclusionReason = "incomplete_profile"
	ExcludedDuplicateRosterRow ExclusionReason = "duplicate_roster_entry"
)

// Exclusion records one member left out of the pool. Err is set for
// incomplete profiles and carries an advisory domain.MatchError.
type Exclusion struct {
	MemberID uuid.UUID
	Reason   ExclusionReason
	Detail   string
	Err      error
}

// FilterResult is the eligible pool plus diagnostics for operators.
type FilterResult struct {
	Eligible []domain.Member
	Excluded []Exclusion
}

// Filter reduces a roster to the members eligible for a cycle.
type Filter struct {
	cooldown time.Duration
	logger   *slog.Logger
}

// NewFilter creates a Filter using the cooldown from params.
// If logger is nil, a default logger will be used.
func NewFilter(params *Params, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Filter{
		cooldown: params.Cooldown(),
		logger:   logger.With(slog.String("component", "eligibility_filter")),
	}
}

// Apply returns the eligible members of roster in their original order.
//
// A member is eligible when verified, paid and onboarded, and either never
// matched or last matched at least one cooldown window before now. Members
// with incomplete profiles are excluded and logged; Apply never fails.
func (f *Filter) Apply(ctx context.Context, roster []domain.Member, now time.Time) FilterResult {
	log := logger.FromContextOrDefault(ctx, f.logger)

	result := FilterResult{Eligible: make([]domain.Member, 0, len(roster))}
	seen := make(map[uuid.UUID]struct{}, len(roster))

	exclude := func(m *domain.Member, reason ExclusionReason, detail string, err error) {
		result.Excluded = append(result.Excluded, Exclusion{MemberID: m.ID, Reason: reason, Detail: detail, Err: err})
	}

	for i := range roster {
		m := &roster[i]

		if missing := m.MissingAttribute(); missing != "" {
			log.Warn("skipping member with incomplete profile",
				slog.String("member_id", m.ID.String()),
				slog.String("attribute", missing))
			exclude(m, ExcludedIncompleteProfile, missing,
				domain.NewAdvisoryError("filter_roster", "missing or invalid "+missing))
			continue
		}

		if _, dup := seen[m.ID]; dup {
			log.Warn("skipping duplicate roster entry", slog.String("member_id", m.ID.String()))
			exclude(m, ExcludedDuplicateRosterRow, "", nil)
			continue
		}
		seen[m.ID] = struct{}{}

		if reason, ok := f.ineligibility(m, now); ok {
			exclude(m, reason, "", nil)
			continue
		}

		result.Eligible = append(result.Eligible, *m)
	}

	log.Debug("roster filtered",
		slog.Int("roster_size", len(roster)),
		slog.Int("eligible", len(result.Eligible)),
		slog.Int("excluded", len(result.Excluded)))

	return result
}

// ineligibility returns the first status rule m fails.
func (f *Filter) ineligibility(m *domain.Member, now time.Time) (ExclusionReason, bool) {
	switch {
	case !m.Verified:
		return ExcludedUnverified, true
	case !m.Paid:
		return ExcludedUnpaid, true
	case !m.OnboardingComplete:
		return ExcludedOnboarding, true
	case m.LastMatchedAt != nil && now.Sub(*m.LastMatchedAt) < f.cooldown:
		return ExcludedCooldown, true
	default:
		return "", false
	}
}
