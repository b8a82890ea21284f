package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/store"
)

// DB is the subset of *sql.DB the match store needs: plain queries plus
// the ability to open transactions.
type DB interface {
	store.DBTX
	store.TxBeginner
}

// PostgresMatchStore implements the store.MatchStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMatchStore struct {
	db     DB
	logger *slog.Logger
}

// NewPostgresMatchStore creates a new PostgreSQL implementation of the MatchStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresMatchStore(db DB, logger *slog.Logger) *PostgresMatchStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMatchStore{
		db:     db,
		logger: logger.With(slog.String("component", "match_store")),
	}
}

// Ensure PostgresMatchStore implements store.MatchStore interface
var _ store.MatchStore = (*PostgresMatchStore)(nil)

// BatchExists implements store.MatchStore.BatchExists.
func (s *PostgresMatchStore) BatchExists(ctx context.Context, cycle domain.CycleDate) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM match_batches WHERE cycle_date = $1)`,
		string(cycle),
	).Scan(&exists)
	if err != nil {
		log.Error("failed to check batch existence",
			slog.String("error", err.Error()),
			slog.String("cycle_date", string(cycle)))
		return false, fmt.Errorf("failed to check batch existence: %w", MapError(err))
	}

	return exists, nil
}

// GetBatch implements store.MatchStore.GetBatch.
// Returns store.ErrBatchNotFound if no batch exists for the cycle date.
func (s *PostgresMatchStore) GetBatch(ctx context.Context, cycle domain.CycleDate) (*domain.MatchBatch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, cycle_date, algorithm_version, eligible_count, groups_created,
		       users_matched, started_at, completed_at
		FROM match_batches
		WHERE cycle_date = $1
	`

	var (
		batch     domain.MatchBatch
		cycleDate string
		completed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, string(cycle)).Scan(
		&batch.ID,
		&cycleDate,
		&batch.AlgorithmVersion,
		&batch.EligibleCount,
		&batch.GroupsCreated,
		&batch.UsersMatched,
		&batch.StartedAt,
		&completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("batch not found", slog.String("cycle_date", string(cycle)))
			return nil, store.ErrBatchNotFound
		}
		log.Error("failed to get batch",
			slog.String("error", err.Error()),
			slog.String("cycle_date", string(cycle)))
		return nil, fmt.Errorf("failed to get batch: %w", MapError(err))
	}

	batch.CycleDate = domain.CycleDate(cycleDate)
	batch.StartedAt = batch.StartedAt.UTC()
	if completed.Valid {
		t := completed.Time.UTC()
		batch.CompletedAt = &t
	}

	return &batch, nil
}

// BeginBatch implements store.MatchStore.BeginBatch.
// It opens a transaction and inserts the batch row first, so that a
// concurrent run for the same cycle date blocks on the unique constraint
// and fails with store.ErrBatchExists once this transaction commits.
func (s *PostgresMatchStore) BeginBatch(ctx context.Context, batch *domain.MatchBatch) (store.BatchWriter, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := batch.Validate(); err != nil {
		log.Warn("batch validation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin batch transaction", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to begin batch transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_batches (id, cycle_date, algorithm_version, eligible_count, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, batch.ID, string(batch.CycleDate), batch.AlgorithmVersion, batch.EligibleCount, batch.StartedAt)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrBatchExists) {
			log.Warn("batch already exists for cycle date",
				slog.String("cycle_date", string(batch.CycleDate)))
		} else {
			log.Error("failed to insert batch",
				slog.String("error", err.Error()),
				slog.String("batch_id", batch.ID.String()))
		}
		return nil, store.Rollback(ctx, tx, fmt.Errorf("failed to insert batch: %w", mapped))
	}

	log.Debug("batch transaction opened",
		slog.String("batch_id", batch.ID.String()),
		slog.String("cycle_date", string(batch.CycleDate)))

	return &postgresBatchWriter{tx: tx, batchID: batch.ID, logger: s.logger}, nil
}

// postgresBatchWriter implements store.BatchWriter on top of one transaction.
type postgresBatchWriter struct {
	tx      *sql.Tx
	batchID uuid.UUID
	logger  *slog.Logger
	done    bool
}

var _ store.BatchWriter = (*postgresBatchWriter)(nil)

// InsertGroup implements store.BatchWriter.InsertGroup.
func (w *postgresBatchWriter) InsertGroup(
	ctx context.Context,
	group *domain.Group,
	memberships []domain.Membership,
) error {
	log := logger.FromContextOrDefault(ctx, w.logger)

	if err := group.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if group.BatchID != w.batchID {
		return fmt.Errorf("%w: group %s belongs to batch %s, not %s",
			store.ErrInvalidEntity, group.ID, group.BatchID, w.batchID)
	}

	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO match_groups (id, batch_id, average_compatibility, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, group.ID, group.BatchID, group.AverageCompatibility, string(group.Status), group.CreatedAt)
	if err != nil {
		log.Error("failed to insert group",
			slog.String("error", err.Error()),
			slog.String("group_id", group.ID.String()))
		return fmt.Errorf("failed to insert group: %w", MapError(err))
	}

	for i := range memberships {
		m := &memberships[i]
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		_, err := w.tx.ExecContext(ctx, `
			INSERT INTO group_memberships (group_id, member_id, score_contribution, joined_at, active)
			VALUES ($1, $2, $3, $4, $5)
		`, m.GroupID, m.MemberID, m.ScoreContribution, m.JoinedAt, m.Active)
		if err != nil {
			log.Error("failed to insert group membership",
				slog.String("error", err.Error()),
				slog.String("group_id", m.GroupID.String()),
				slog.String("member_id", m.MemberID.String()))
			return fmt.Errorf("failed to insert group membership: %w", MapError(err))
		}
	}

	return nil
}

// MarkMatched implements store.BatchWriter.MarkMatched.
func (w *postgresBatchWriter) MarkMatched(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, w.logger)

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	result, err := w.tx.ExecContext(ctx, `
		UPDATE members
		SET last_matched_at = $1, updated_at = NOW()
		WHERE id = ANY($2::uuid[])
	`, at.UTC(), idStrings)
	if err != nil {
		log.Error("failed to mark members matched",
			slog.String("error", err.Error()),
			slog.Int("members", len(ids)))
		return fmt.Errorf("failed to mark members matched: %w", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if int(affected) != len(ids) {
		log.Error("some matched members no longer exist",
			slog.Int("expected", len(ids)),
			slog.Int64("updated", affected))
		return fmt.Errorf("%w: updated %d of %d members", store.ErrMemberNotFound, affected, len(ids))
	}

	return nil
}

// Commit implements store.BatchWriter.Commit.
func (w *postgresBatchWriter) Commit(ctx context.Context, batch *domain.MatchBatch) error {
	log := logger.FromContextOrDefault(ctx, w.logger)

	if batch.ID != w.batchID {
		return fmt.Errorf("%w: commit for batch %s on writer for %s", store.ErrInvalidEntity, batch.ID, w.batchID)
	}

	result, err := w.tx.ExecContext(ctx, `
		UPDATE match_batches
		SET groups_created = $1, users_matched = $2, completed_at = $3
		WHERE id = $4
	`, batch.GroupsCreated, batch.UsersMatched, batch.CompletedAt, batch.ID)
	if err != nil {
		log.Error("failed to finalize batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID.String()))
		return fmt.Errorf("failed to finalize batch: %w", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrBatchNotFound); err != nil {
		return err
	}

	if err := w.tx.Commit(); err != nil {
		log.Error("failed to commit batch transaction",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, MapError(err))
	}
	w.done = true

	log.Info("batch committed",
		slog.String("batch_id", batch.ID.String()),
		slog.Int("groups_created", batch.GroupsCreated),
		slog.Int("users_matched", batch.UsersMatched))
	return nil
}

// Rollback implements store.BatchWriter.Rollback.
func (w *postgresBatchWriter) Rollback(ctx context.Context) error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.FromContextOrDefault(ctx, w.logger).Error("failed to roll back batch transaction",
			slog.String("error", err.Error()),
			slog.String("batch_id", w.batchID.String()))
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}

	return nil
}
