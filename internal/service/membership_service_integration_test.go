//go:build integration

package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/postgres"
	"github.com/phrazzld/huddle-api/internal/service"
	"github.com/phrazzld/huddle-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedGroup commits a batch for cycle holding one group of three fresh
// members and returns it.
func seedGroup(t *testing.T, db *sql.DB, cycle domain.CycleDate) *domain.Group {
	t.Helper()
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		_, err := db.Exec(`INSERT INTO members (id) VALUES ($1)`, id)
		require.NoError(t, err)
	}

	batch, err := domain.NewMatchBatch(cycle, "greedy-topk-v1", len(ids))
	require.NoError(t, err)

	now := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	group, err := domain.NewGroup(batch.ID, ids, 0.8, now)
	require.NoError(t, err)

	memberships := make([]domain.Membership, len(group.MemberIDs))
	for i, id := range group.MemberIDs {
		memberships[i] = domain.Membership{
			GroupID: group.ID, MemberID: id, ScoreContribution: 0.8, JoinedAt: now, Active: true,
		}
	}

	w, err := postgres.NewPostgresMatchStore(db, discardLogger).BeginBatch(ctx, batch)
	require.NoError(t, err)
	require.NoError(t, w.InsertGroup(ctx, group, memberships))
	batch.Complete(1, len(ids), now)
	require.NoError(t, w.Commit(ctx, batch))

	return group
}

// concurrently runs every fn at the same moment and waits for all of them.
func concurrently(fns ...func() error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, len(fns))
	)
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

func TestMembershipService_ConcurrentPasses_Postgres(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	groups := postgres.NewPostgresGroupStore(db, discardLogger)
	svc, err := service.NewMembershipService(db, groups, discardLogger)
	require.NoError(t, err)

	for week := 1; week <= 10; week++ {
		group := seedGroup(t, db, domain.CycleDate(fmt.Sprintf("2024-W%02d", week)))
		a, b := group.MemberIDs[0], group.MemberIDs[1]

		errs := concurrently(
			func() error { _, err := svc.Pass(ctx, group.ID, a); return err },
			func() error { _, err := svc.Pass(ctx, group.ID, b); return err },
		)
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		stored, err := groups.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupStatusArchived, stored.Status, "week %d", week)

		active, err := groups.CountActiveMembers(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, active)
	}
}

func TestMembershipService_JoinRacingPasses_Postgres(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	ctx := context.Background()

	groups := postgres.NewPostgresGroupStore(db, discardLogger)
	svc, err := service.NewMembershipService(db, groups, discardLogger)
	require.NoError(t, err)

	for week := 1; week <= 10; week++ {
		group := seedGroup(t, db, domain.CycleDate(fmt.Sprintf("2024-W%02d", week)))
		ids := group.MemberIDs

		errs := concurrently(
			func() error { _, err := svc.Pass(ctx, group.ID, ids[0]); return err },
			func() error { _, err := svc.Pass(ctx, group.ID, ids[1]); return err },
			func() error { _, err := svc.Join(ctx, group.ID, ids[2]); return err },
		)
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		if errs[2] != nil {
			assert.ErrorIs(t, errs[2], service.ErrGroupArchived)
		}

		// Whatever the order, two passes out of three always archive.
		stored, err := groups.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupStatusArchived, stored.Status, "week %d", week)
	}
}
