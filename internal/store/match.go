package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
)

// RosterReader provides a point-in-time snapshot of all member profiles.
// The profile subsystem owns the data; the matching engine only reads it.
type RosterReader interface {
	// ListRoster returns every member profile. Incomplete profiles are
	// returned as-is; the eligibility filter decides what to do with them.
	ListRoster(ctx context.Context) ([]domain.Member, error)
}

// MatchStore persists match batches and the groups they create.
type MatchStore interface {
	// BatchExists reports whether a batch was already committed for cycle.
	BatchExists(ctx context.Context, cycle domain.CycleDate) (bool, error)

	// GetBatch returns the committed batch for cycle.
	// Returns ErrBatchNotFound if none exists.
	GetBatch(ctx context.Context, cycle domain.CycleDate) (*domain.MatchBatch, error)

	// BeginBatch opens an atomic unit of work that records batch.
	// Returns ErrBatchExists if a batch for the same cycle date is already
	// recorded; this check is authoritative even under concurrent runs.
	BeginBatch(ctx context.Context, batch *domain.MatchBatch) (BatchWriter, error)
}

// BatchWriter stages the writes of one batch. Nothing is visible to readers
// until Commit succeeds; after any error the caller must call Rollback.
type BatchWriter interface {
	// InsertGroup stages a group and its memberships.
	InsertGroup(ctx context.Context, group *domain.Group, memberships []domain.Membership) error

	// MarkMatched stages last_matched_at = at for every member in ids.
	// Returns ErrMemberNotFound if any id does not exist.
	MarkMatched(ctx context.Context, ids []uuid.UUID, at time.Time) error

	// Commit records the final batch counts and makes all staged writes
	// visible at once.
	Commit(ctx context.Context, batch *domain.MatchBatch) error

	// Rollback discards all staged writes. Calling it after Commit or a
	// previous Rollback is a no-op.
	Rollback(ctx context.Context) error
}
