package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/service"
	"github.com/phrazzld/huddle-api/internal/service/cycle"
)

// MockCycleService is a cycle.Service whose behavior is set per test.
// Unset functions panic when called.
type MockCycleService struct {
	RunCycleFn        func(ctx context.Context, date domain.CycleDate) (*cycle.BatchSummary, error)
	RunCurrentCycleFn func(ctx context.Context) (*cycle.BatchSummary, error)
	GetBatchFn        func(ctx context.Context, date domain.CycleDate) (*domain.MatchBatch, error)
}

var _ cycle.Service = (*MockCycleService)(nil)

// RunCycle implements cycle.Service.
func (m *MockCycleService) RunCycle(ctx context.Context, date domain.CycleDate) (*cycle.BatchSummary, error) {
	return m.RunCycleFn(ctx, date)
}

// RunCurrentCycle implements cycle.Service.
func (m *MockCycleService) RunCurrentCycle(ctx context.Context) (*cycle.BatchSummary, error) {
	return m.RunCurrentCycleFn(ctx)
}

// GetBatch implements cycle.Service.
func (m *MockCycleService) GetBatch(ctx context.Context, date domain.CycleDate) (*domain.MatchBatch, error) {
	return m.GetBatchFn(ctx, date)
}

// MockMembershipService is a service.MembershipService whose behavior is set
// per test. Unset functions panic when called.
type MockMembershipService struct {
	ListMemberGroupsFn func(ctx context.Context, memberID uuid.UUID) ([]*domain.Group, error)
	JoinFn             func(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error)
	PassFn             func(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error)
}

var _ service.MembershipService = (*MockMembershipService)(nil)

// ListMemberGroups implements service.MembershipService.
func (m *MockMembershipService) ListMemberGroups(ctx context.Context, memberID uuid.UUID) ([]*domain.Group, error) {
	return m.ListMemberGroupsFn(ctx, memberID)
}

// Join implements service.MembershipService.
func (m *MockMembershipService) Join(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error) {
	return m.JoinFn(ctx, groupID, memberID)
}

// Pass implements service.MembershipService.
func (m *MockMembershipService) Pass(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error) {
	return m.PassFn(ctx, groupID, memberID)
}
