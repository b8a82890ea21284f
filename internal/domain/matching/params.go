package matching

import (
	"fmt"
	"math"
	"time"

	"github.com/phrazzld/huddle-api/internal/domain"
)

// AlgorithmVersion identifies the scoring and assembly rules recorded on
// every batch.
const AlgorithmVersion = "greedy-topk-v1"

// weightSumTolerance is how far the weight total may drift from 1.
const weightSumTolerance = 1e-6

// Weights are the relative importance of each score component.
type Weights struct {
	Specialty    float64
	Interests    float64
	City         float64
	Availability float64
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Specialty + w.Interests + w.City + w.Availability
}

// Validate checks that every weight is a non-negative number and that the
// weights add up to 1.
func (w Weights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"specialty", w.Specialty},
		{"interests", w.Interests},
		{"city", w.City},
		{"availability", w.Availability},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) || n.value < 0 {
			return domain.NewConfigurationError("validate_weights",
				fmt.Sprintf("weight %s must be a non-negative number, got %v", n.name, n.value), nil)
		}
	}

	if sum := w.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return domain.NewConfigurationError("validate_weights",
			fmt.Sprintf("weights must sum to 1, got %.6f", sum), nil)
	}

	return nil
}

// DefaultWeights returns the standard component weights.
func DefaultWeights() Weights {
	return Weights{
		Specialty:    0.30,
		Interests:    0.40,
		City:         0.20,
		Availability: 0.10,
	}
}

// Params defines all configurable parameters for one matching cycle
type Params struct {
	Weights Weights

	// Group size bounds
	MinGroupSize int
	MaxGroupSize int

	// MinCompatibility is the lowest average pairwise score a group may have.
	MinCompatibility float64

	// CooldownWeeks is how long a matched member sits out.
	CooldownWeeks int

	// NeighborhoodSize is how many of the seed's best partners the local
	// search considers when building a group around it.
	NeighborhoodSize int

	AlgorithmVersion string
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values keep the default.
type ParamsConfig struct {
	SpecialtyWeight    float64
	InterestsWeight    float64
	CityWeight         float64
	AvailabilityWeight float64

	MinGroupSize     int
	MaxGroupSize     int
	MinCompatibility float64
	CooldownWeeks    int
	NeighborhoodSize int
	AlgorithmVersion string
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		Weights:          DefaultWeights(),
		MinGroupSize:     domain.MinGroupSize,
		MaxGroupSize:     domain.MaxGroupSize,
		MinCompatibility: 0.0,
		CooldownWeeks:    6,
		NeighborhoodSize: 8,
		AlgorithmVersion: AlgorithmVersion,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// A partial weight override replaces the whole weight set so the sum
	// check sees exactly what the operator configured.
	if config.SpecialtyWeight != 0 || config.InterestsWeight != 0 ||
		config.CityWeight != 0 || config.AvailabilityWeight != 0 {
		params.Weights = Weights{
			Specialty:    config.SpecialtyWeight,
			Interests:    config.InterestsWeight,
			City:         config.CityWeight,
			Availability: config.AvailabilityWeight,
		}
	}

	if config.MinGroupSize != 0 {
		params.MinGroupSize = config.MinGroupSize
	}
	if config.MaxGroupSize != 0 {
		params.MaxGroupSize = config.MaxGroupSize
	}
	if config.MinCompatibility != 0 {
		params.MinCompatibility = config.MinCompatibility
	}
	if config.CooldownWeeks != 0 {
		params.CooldownWeeks = config.CooldownWeeks
	}
	if config.NeighborhoodSize != 0 {
		params.NeighborhoodSize = config.NeighborhoodSize
	}
	if config.AlgorithmVersion != "" {
		params.AlgorithmVersion = config.AlgorithmVersion
	}

	return params
}

// Validate rejects parameter sets the engine cannot run with. The returned
// error is a configuration MatchError.
func (p *Params) Validate() error {
	if p == nil {
		return domain.NewConfigurationError("validate_params", "params cannot be nil", nil)
	}

	if err := p.Weights.Validate(); err != nil {
		return err
	}

	if p.MinGroupSize > p.MaxGroupSize {
		return domain.NewConfigurationError("validate_params",
			fmt.Sprintf("min group size %d exceeds max group size %d", p.MinGroupSize, p.MaxGroupSize), nil)
	}

	if p.MinGroupSize < domain.MinGroupSize || p.MaxGroupSize > domain.MaxGroupSize {
		return domain.NewConfigurationError("validate_params",
			fmt.Sprintf("group sizes must lie within [%d,%d], got [%d,%d]",
				domain.MinGroupSize, domain.MaxGroupSize, p.MinGroupSize, p.MaxGroupSize), nil)
	}

	if math.IsNaN(p.MinCompatibility) || p.MinCompatibility < 0 || p.MinCompatibility > 1 {
		return domain.NewConfigurationError("validate_params",
			fmt.Sprintf("min compatibility must be within [0,1], got %v", p.MinCompatibility), nil)
	}

	if p.CooldownWeeks < 0 {
		return domain.NewConfigurationError("validate_params",
			fmt.Sprintf("cooldown weeks cannot be negative, got %d", p.CooldownWeeks), nil)
	}

	if p.NeighborhoodSize < p.MaxGroupSize-1 {
		return domain.NewConfigurationError("validate_params",
			fmt.Sprintf("neighborhood size %d is smaller than a group minus its seed (%d)",
				p.NeighborhoodSize, p.MaxGroupSize-1), nil)
	}

	if p.AlgorithmVersion == "" {
		return domain.NewConfigurationError("validate_params", "algorithm version cannot be empty", nil)
	}

	return nil
}

// Cooldown returns the cooldown window as a duration.
func (p *Params) Cooldown() time.Duration {
	return time.Duration(p.CooldownWeeks) * 7 * 24 * time.Hour
}
