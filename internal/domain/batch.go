package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors for MatchBatch
var (
	ErrEmptyBatchID        = errors.New("batch ID cannot be empty")
	ErrEmptyBatchCycleDate = errors.New("batch cycle date cannot be empty")
	ErrEmptyBatchAlgorithm = errors.New("batch algorithm version cannot be empty")
	ErrInvalidBatchCounts  = errors.New("batch counts must be non-negative")
)

// MatchBatch records one run of the matching engine. It is created when a
// cycle starts committing and finalized in the same transaction; it is never
// modified afterwards.
type MatchBatch struct {
	ID               uuid.UUID  `json:"id"`
	CycleDate        CycleDate  `json:"cycle_date"`
	AlgorithmVersion string     `json:"algorithm_version"`
	EligibleCount    int        `json:"eligible_count"`
	GroupsCreated    int        `json:"groups_created"`
	UsersMatched     int        `json:"users_matched"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NewMatchBatch creates a batch for the given cycle, started now.
func NewMatchBatch(cycle CycleDate, algorithmVersion string, eligibleCount int) (*MatchBatch, error) {
	batch := &MatchBatch{
		ID:               uuid.New(),
		CycleDate:        cycle,
		AlgorithmVersion: algorithmVersion,
		EligibleCount:    eligibleCount,
		StartedAt:        time.Now().UTC(),
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}

	return batch, nil
}

// Validate checks if the MatchBatch has valid data.
func (b *MatchBatch) Validate() error {
	if b.ID == uuid.Nil {
		return ErrEmptyBatchID
	}

	if b.CycleDate == "" {
		return ErrEmptyBatchCycleDate
	}

	if b.AlgorithmVersion == "" {
		return ErrEmptyBatchAlgorithm
	}

	if b.EligibleCount < 0 || b.GroupsCreated < 0 || b.UsersMatched < 0 {
		return ErrInvalidBatchCounts
	}

	return nil
}

// Complete records the final counts and completion time.
func (b *MatchBatch) Complete(groupsCreated, usersMatched int, at time.Time) {
	completed := at.UTC()
	b.GroupsCreated = groupsCreated
	b.UsersMatched = usersMatched
	b.CompletedAt = &completed
}
