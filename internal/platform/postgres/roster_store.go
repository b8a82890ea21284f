package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/store"
)

// PostgresRosterStore implements the store.RosterReader interface
// by reading the members table.
type PostgresRosterStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRosterStore creates a new PostgreSQL roster reader.
// If logger is nil, a default logger will be used.
func NewPostgresRosterStore(db store.DBTX, logger *slog.Logger) *PostgresRosterStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRosterStore{
		db:     db,
		logger: logger.With(slog.String("component", "roster_store")),
	}
}

// Ensure PostgresRosterStore implements store.RosterReader interface
var _ store.RosterReader = (*PostgresRosterStore)(nil)

const listRosterQuery = `
	SELECT id, specialty, interests, city, gender, availability_slots,
	       verified, paid, onboarding_complete, last_matched_at, specialty_preference
	FROM members
	ORDER BY id
`

// ListRoster implements store.RosterReader.ListRoster.
// Rows are read in a single statement, so the snapshot is consistent.
func (s *PostgresRosterStore) ListRoster(ctx context.Context) ([]domain.Member, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, listRosterQuery)
	if err != nil {
		log.Error("failed to query roster", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query roster: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	// pgtype.Map caches scan plans and is not safe for concurrent use.
	types := pgtype.NewMap()

	var members []domain.Member
	for rows.Next() {
		var (
			m           domain.Member
			gender      string
			preference  string
			lastMatched sql.NullTime
		)

		if err := rows.Scan(
			&m.ID,
			&m.Specialty,
			types.SQLScanner(&m.Interests),
			&m.City,
			&gender,
			types.SQLScanner(&m.AvailabilitySlots),
			&m.Verified,
			&m.Paid,
			&m.OnboardingComplete,
			&lastMatched,
			&preference,
		); err != nil {
			log.Error("failed to scan roster row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}

		m.Gender = domain.Gender(gender)
		m.SpecialtyPreference = domain.SpecialtyPreference(preference).Normalize()
		if lastMatched.Valid {
			t := lastMatched.Time.UTC()
			m.LastMatchedAt = &t
		}

		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating roster rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}

	log.Debug("roster loaded", slog.Int("members", len(members)))
	return members, nil
}
