package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/mocks"
	"github.com/phrazzld/huddle-api/internal/service"
	"github.com/phrazzld/huddle-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type membershipFixture struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	groups  *mocks.TestifyMockGroupStore
	svc     service.MembershipService
}

func newMembershipFixture(t *testing.T) *membershipFixture {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	groups := &mocks.TestifyMockGroupStore{}
	svc, err := service.NewMembershipService(db, groups, discardLogger)
	require.NoError(t, err)

	return &membershipFixture{db: db, sqlMock: sqlMock, groups: groups, svc: svc}
}

func (f *membershipFixture) verify(t *testing.T) {
	t.Helper()
	f.groups.AssertExpectations(t)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func testGroup(status domain.GroupStatus) *domain.Group {
	return &domain.Group{
		ID:                   uuid.New(),
		BatchID:              uuid.New(),
		MemberIDs:            []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
		AverageCompatibility: 0.8,
		Status:               status,
		CreatedAt:            time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
	}
}

func membershipOf(group *domain.Group, memberID uuid.UUID, active bool) *domain.Membership {
	return &domain.Membership{
		GroupID:           group.ID,
		MemberID:          memberID,
		ScoreContribution: 0.8,
		JoinedAt:          group.CreatedAt,
		Active:            active,
	}
}

func TestMembershipService_Join(t *testing.T) {
	t.Parallel()

	t.Run("created group becomes active", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusCreated)
		memberID := group.MemberIDs[0]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, true), nil)
		f.groups.On("UpdateGroupStatus", mock.Anything, group.ID, domain.GroupStatusActive).Return(nil)
		f.sqlMock.ExpectCommit()

		got, err := f.svc.Join(context.Background(), group.ID, memberID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupStatusActive, got.Status)
		f.verify(t)
	})

	t.Run("active group is left unchanged", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusActive)
		memberID := group.MemberIDs[1]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, true), nil)
		f.sqlMock.ExpectCommit()

		got, err := f.svc.Join(context.Background(), group.ID, memberID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupStatusActive, got.Status)
		f.groups.AssertNotCalled(t, "UpdateGroupStatus", mock.Anything, mock.Anything, mock.Anything)
		f.verify(t)
	})

	t.Run("archived group is rejected", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusArchived)
		memberID := group.MemberIDs[0]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, true), nil)
		f.sqlMock.ExpectRollback()

		_, err := f.svc.Join(context.Background(), group.ID, memberID)
		assert.ErrorIs(t, err, service.ErrGroupArchived)
		f.verify(t)
	})

	t.Run("member who passed cannot join", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusActive)
		memberID := group.MemberIDs[0]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, false), nil)
		f.sqlMock.ExpectRollback()

		_, err := f.svc.Join(context.Background(), group.ID, memberID)
		assert.ErrorIs(t, err, service.ErrMembershipInactive)
		f.verify(t)
	})

	t.Run("unknown group", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		groupID := uuid.New()

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, groupID).Return(nil, store.ErrGroupNotFound)
		f.sqlMock.ExpectRollback()

		_, err := f.svc.Join(context.Background(), groupID, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotGroupMember)
		f.verify(t)
	})

	t.Run("stranger to the group", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusCreated)
		stranger := uuid.New()

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, stranger).
			Return(nil, store.ErrMembershipNotFound)
		f.sqlMock.ExpectRollback()

		_, err := f.svc.Join(context.Background(), group.ID, stranger)
		assert.ErrorIs(t, err, service.ErrNotGroupMember)
		f.verify(t)
	})
}

func TestMembershipService_Pass(t *testing.T) {
	t.Parallel()

	t.Run("group stays open with two active members", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusActive)
		memberID := group.MemberIDs[0]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, true), nil)
		f.groups.On("SetMembershipActive", mock.Anything, group.ID, memberID, false).Return(nil)
		f.groups.On("CountActiveMembers", mock.Anything, group.ID).Return(2, nil)
		f.sqlMock.ExpectCommit()

		got, err := f.svc.Pass(context.Background(), group.ID, memberID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupStatusActive, got.Status)
		f.groups.AssertNotCalled(t, "UpdateGroupStatus", mock.Anything, mock.Anything, mock.Anything)
		f.verify(t)
	})

	t.Run("group is archived below two active members", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusCreated)
		memberID := group.MemberIDs[2]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, true), nil)
		f.groups.On("SetMembershipActive", mock.Anything, group.ID, memberID, false).Return(nil)
		f.groups.On("CountActiveMembers", mock.Anything, group.ID).Return(1, nil)
		f.groups.On("UpdateGroupStatus", mock.Anything, group.ID, domain.GroupStatusArchived).Return(nil)
		f.sqlMock.ExpectCommit()

		got, err := f.svc.Pass(context.Background(), group.ID, memberID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupStatusArchived, got.Status)
		f.verify(t)
	})

	t.Run("passing twice is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusActive)
		memberID := group.MemberIDs[0]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, false), nil)
		f.sqlMock.ExpectCommit()

		_, err := f.svc.Pass(context.Background(), group.ID, memberID)
		require.NoError(t, err)
		f.groups.AssertNotCalled(t, "SetMembershipActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.verify(t)
	})

	t.Run("archived group only records the pass", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusArchived)
		memberID := group.MemberIDs[0]

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, true), nil)
		f.groups.On("SetMembershipActive", mock.Anything, group.ID, memberID, false).Return(nil)
		f.sqlMock.ExpectCommit()

		got, err := f.svc.Pass(context.Background(), group.ID, memberID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupStatusArchived, got.Status)
		f.groups.AssertNotCalled(t, "CountActiveMembers", mock.Anything, mock.Anything)
		f.verify(t)
	})

	t.Run("store failure rolls back", func(t *testing.T) {
		t.Parallel()

		f := newMembershipFixture(t)
		group := testGroup(domain.GroupStatusActive)
		memberID := group.MemberIDs[0]
		dbErr := errors.New("deadlock detected")

		f.sqlMock.ExpectBegin()
		f.groups.On("GetGroupForUpdate", mock.Anything, group.ID).Return(group, nil)
		f.groups.On("GetMembership", mock.Anything, group.ID, memberID).
			Return(membershipOf(group, memberID, true), nil)
		f.groups.On("SetMembershipActive", mock.Anything, group.ID, memberID, false).Return(nil)
		f.groups.On("CountActiveMembers", mock.Anything, group.ID).Return(0, dbErr)
		f.sqlMock.ExpectRollback()

		_, err := f.svc.Pass(context.Background(), group.ID, memberID)
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)

		var svcErr *service.MembershipServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "pass", svcErr.Operation)
		f.verify(t)
	})
}

func TestMembershipService_ListMemberGroups(t *testing.T) {
	t.Parallel()

	f := newMembershipFixture(t)
	memberID := uuid.New()
	groups := []*domain.Group{testGroup(domain.GroupStatusActive), testGroup(domain.GroupStatusArchived)}
	dbErr := errors.New("connection refused")

	f.groups.On("ListGroupsForMember", mock.Anything, memberID).Return(groups, nil).Once()
	f.groups.On("ListGroupsForMember", mock.Anything, memberID).Return(nil, dbErr).Once()

	got, err := f.svc.ListMemberGroups(context.Background(), memberID)
	require.NoError(t, err)
	assert.Equal(t, groups, got)

	_, err = f.svc.ListMemberGroups(context.Background(), memberID)
	assert.ErrorIs(t, err, dbErr)

	f.verify(t)
}

func TestNewMembershipService_Validation(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = service.NewMembershipService(nil, &mocks.TestifyMockGroupStore{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewMembershipService(db, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	svc, err := service.NewMembershipService(db, &mocks.TestifyMockGroupStore{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
