package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockGroupStore is a mock of store.GroupStore interface for use with testify/mock
type TestifyMockGroupStore struct {
	mock.Mock
}

var _ store.GroupStore = (*TestifyMockGroupStore)(nil)

// GetGroup is a mock implementation of store.GroupStore.GetGroup
func (m *TestifyMockGroupStore) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if group, ok := args.Get(0).(*domain.Group); ok {
		return group, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetGroupForUpdate is a mock implementation of store.GroupStore.GetGroupForUpdate
func (m *TestifyMockGroupStore) GetGroupForUpdate(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if group, ok := args.Get(0).(*domain.Group); ok {
		return group, args.Error(1)
	}
	return nil, args.Error(1)
}

// ListGroupsForMember is a mock implementation of store.GroupStore.ListGroupsForMember
func (m *TestifyMockGroupStore) ListGroupsForMember(ctx context.Context, memberID uuid.UUID) ([]*domain.Group, error) {
	args := m.Called(ctx, memberID)
	if groups, ok := args.Get(0).([]*domain.Group); ok {
		return groups, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetMembership is a mock implementation of store.GroupStore.GetMembership
func (m *TestifyMockGroupStore) GetMembership(
	ctx context.Context,
	groupID, memberID uuid.UUID,
) (*domain.Membership, error) {
	args := m.Called(ctx, groupID, memberID)
	if membership, ok := args.Get(0).(*domain.Membership); ok {
		return membership, args.Error(1)
	}
	return nil, args.Error(1)
}

// SetMembershipActive is a mock implementation of store.GroupStore.SetMembershipActive
func (m *TestifyMockGroupStore) SetMembershipActive(
	ctx context.Context,
	groupID, memberID uuid.UUID,
	active bool,
) error {
	args := m.Called(ctx, groupID, memberID, active)
	return args.Error(0)
}

// UpdateGroupStatus is a mock implementation of store.GroupStore.UpdateGroupStatus
func (m *TestifyMockGroupStore) UpdateGroupStatus(ctx context.Context, id uuid.UUID, status domain.GroupStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// CountActiveMembers is a mock implementation of store.GroupStore.CountActiveMembers
func (m *TestifyMockGroupStore) CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

// WithTx returns the mock itself so expectations apply inside transactions.
func (m *TestifyMockGroupStore) WithTx(_ *sql.Tx) store.GroupStore {
	return m
}
