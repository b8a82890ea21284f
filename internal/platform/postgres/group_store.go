package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/store"
)

// PostgresGroupStore implements the store.GroupStore interface
// using a PostgreSQL database as the storage backend.
type PostgresGroupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGroupStore creates a new PostgreSQL implementation of the GroupStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresGroupStore(db store.DBTX, logger *slog.Logger) *PostgresGroupStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGroupStore{
		db:     db,
		logger: logger.With(slog.String("component", "group_store")),
	}
}

// Ensure PostgresGroupStore implements store.GroupStore interface
var _ store.GroupStore = (*PostgresGroupStore)(nil)

// WithTx implements store.GroupStore.WithTx.
func (s *PostgresGroupStore) WithTx(tx *sql.Tx) store.GroupStore {
	return &PostgresGroupStore{db: tx, logger: s.logger}
}

const groupColumns = `
	g.id, g.batch_id, g.average_compatibility, g.status, g.created_at,
	ARRAY(
		SELECT gm.member_id::text FROM group_memberships gm
		WHERE gm.group_id = g.id ORDER BY gm.member_id
	) AS member_ids
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner, types *pgtype.Map) (*domain.Group, error) {
	var (
		g         domain.Group
		status    string
		memberIDs []string
	)

	if err := row.Scan(
		&g.ID,
		&g.BatchID,
		&g.AverageCompatibility,
		&status,
		&g.CreatedAt,
		types.SQLScanner(&memberIDs),
	); err != nil {
		return nil, err
	}

	g.Status = domain.GroupStatus(status)
	g.CreatedAt = g.CreatedAt.UTC()
	g.MemberIDs = make([]uuid.UUID, 0, len(memberIDs))
	for _, raw := range memberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid member id %q in group %s: %w", raw, g.ID, err)
		}
		g.MemberIDs = append(g.MemberIDs, id)
	}

	return &g, nil
}

// GetGroup implements store.GroupStore.GetGroup.
// Returns store.ErrGroupNotFound if the group does not exist.
func (s *PostgresGroupStore) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM match_groups g WHERE g.id = $1`, id)
}

// GetGroupForUpdate implements store.GroupStore.GetGroupForUpdate.
// The row lock is held until the surrounding transaction ends, so it must be
// called on a store returned by WithTx.
func (s *PostgresGroupStore) GetGroupForUpdate(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM match_groups g WHERE g.id = $1 FOR UPDATE OF g`, id)
}

func (s *PostgresGroupStore) getGroup(ctx context.Context, query string, id uuid.UUID) (*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, query, id)
	group, err := scanGroup(row, pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("group not found", slog.String("group_id", id.String()))
			return nil, store.ErrGroupNotFound
		}
		log.Error("failed to get group",
			slog.String("error", err.Error()),
			slog.String("group_id", id.String()))
		return nil, fmt.Errorf("failed to get group: %w", MapError(err))
	}

	return group, nil
}

// ListGroupsForMember implements store.GroupStore.ListGroupsForMember.
func (s *PostgresGroupStore) ListGroupsForMember(ctx context.Context, memberID uuid.UUID) ([]*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + groupColumns + `
		FROM match_groups g
		JOIN group_memberships m ON m.group_id = g.id
		WHERE m.member_id = $1
		ORDER BY g.created_at DESC, g.id
	`

	rows, err := s.db.QueryContext(ctx, query, memberID)
	if err != nil {
		log.Error("failed to list groups for member",
			slog.String("error", err.Error()),
			slog.String("member_id", memberID.String()))
		return nil, fmt.Errorf("failed to list groups for member: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	types := pgtype.NewMap()
	groups := []*domain.Group{}
	for rows.Next() {
		group, err := scanGroup(rows, types)
		if err != nil {
			log.Error("failed to scan group row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	return groups, nil
}

// GetMembership implements store.GroupStore.GetMembership.
// Returns store.ErrMembershipNotFound if the member is not in the group.
func (s *PostgresGroupStore) GetMembership(
	ctx context.Context,
	groupID, memberID uuid.UUID,
) (*domain.Membership, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var m domain.Membership
	err := s.db.QueryRowContext(ctx, `
		SELECT group_id, member_id, score_contribution, joined_at, active
		FROM group_memberships
		WHERE group_id = $1 AND member_id = $2
	`, groupID, memberID).Scan(&m.GroupID, &m.MemberID, &m.ScoreContribution, &m.JoinedAt, &m.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMembershipNotFound
		}
		log.Error("failed to get membership",
			slog.String("error", err.Error()),
			slog.String("group_id", groupID.String()),
			slog.String("member_id", memberID.String()))
		return nil, fmt.Errorf("failed to get membership: %w", MapError(err))
	}

	m.JoinedAt = m.JoinedAt.UTC()
	return &m, nil
}

// SetMembershipActive implements store.GroupStore.SetMembershipActive.
func (s *PostgresGroupStore) SetMembershipActive(
	ctx context.Context,
	groupID, memberID uuid.UUID,
	active bool,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE group_memberships SET active = $3
		WHERE group_id = $1 AND member_id = $2
	`, groupID, memberID, active)
	if err != nil {
		log.Error("failed to update membership",
			slog.String("error", err.Error()),
			slog.String("group_id", groupID.String()),
			slog.String("member_id", memberID.String()))
		return fmt.Errorf("failed to update membership: %w", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrMembershipNotFound)
}

// UpdateGroupStatus implements store.GroupStore.UpdateGroupStatus.
func (s *PostgresGroupStore) UpdateGroupStatus(ctx context.Context, id uuid.UUID, status domain.GroupStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidGroupStatus)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE match_groups SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		log.Error("failed to update group status",
			slog.String("error", err.Error()),
			slog.String("group_id", id.String()),
			slog.String("status", string(status)))
		return fmt.Errorf("failed to update group status: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrGroupNotFound); err != nil {
		return err
	}

	log.Debug("group status updated",
		slog.String("group_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// CountActiveMembers implements store.GroupStore.CountActiveMembers.
func (s *PostgresGroupStore) CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_memberships WHERE group_id = $1 AND active
	`, groupID).Scan(&count)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count active members",
			slog.String("error", err.Error()),
			slog.String("group_id", groupID.String()))
		return 0, fmt.Errorf("failed to count active members: %w", MapError(err))
	}

	return count, nil
}
