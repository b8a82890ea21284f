package matching

import (
	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
)

// Scorer computes the compatibility of two members.
// Implementations must be pure and symmetric.
type Scorer interface {
	Score(a, b *domain.Member) domain.CompatibilityScore
}

// WeightedScorer scores a pair as the weighted sum of four normalized
// components: same specialty, interest overlap, same city and availability
// overlap.
type WeightedScorer struct {
	weights Weights
}

// Verify interface compliance at compile time
var _ Scorer = (*WeightedScorer)(nil)

// NewWeightedScorer creates a scorer with the given weights.
// Returns a configuration error if the weights do not sum to 1.
func NewWeightedScorer(weights Weights) (*WeightedScorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &WeightedScorer{weights: weights}, nil
}

// Score implements Scorer.
func (s *WeightedScorer) Score(a, b *domain.Member) domain.CompatibilityScore {
	breakdown := domain.ScoreBreakdown{
		Specialty:    indicator(a.Specialty == b.Specialty),
		Interests:    overlapRatio(a.Interests, b.Interests),
		City:         indicator(a.City == b.City),
		Availability: overlapRatio(a.AvailabilitySlots, b.AvailabilitySlots),
	}

	value := s.weights.Specialty*breakdown.Specialty +
		s.weights.Interests*breakdown.Interests +
		s.weights.City*breakdown.City +
		s.weights.Availability*breakdown.Availability

	lo, hi := orderedPair(a.ID, b.ID)
	return domain.CompatibilityScore{
		MemberA:   lo,
		MemberB:   hi,
		Value:     clamp01(value),
		Breakdown: breakdown,
	}
}

// overlapRatio is |A∩B| / max(|A|, |B|, 1) over the distinct values of a and
// b. Two empty sets overlap by 0.
func overlapRatio(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	shared := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			shared++
		}
	}

	denom := max(len(setA), len(setB), 1)
	return float64(shared) / float64(denom)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	// NaN compares false everywhere; treat it as no compatibility.
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func orderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if domain.LessID(b, a) {
		return b, a
	}
	return a, b
}
