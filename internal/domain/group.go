package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Group size bounds.
const (
	MinGroupSize = 3
	MaxGroupSize = 4
)

// GroupStatus represents the lifecycle state of a group
type GroupStatus string

// Possible group status values
const (
	GroupStatusCreated  GroupStatus = "created"
	GroupStatusActive   GroupStatus = "active"
	GroupStatusArchived GroupStatus = "archived"
)

// Validation errors for Group
var (
	ErrEmptyGroupID         = errors.New("group ID cannot be empty")
	ErrEmptyGroupBatchID    = errors.New("group batch ID cannot be empty")
	ErrInvalidGroupSize     = errors.New("group must have between 3 and 4 members")
	ErrDuplicateGroupMember = errors.New("group members must be unique")
	ErrInvalidCompatibility = errors.New("compatibility must be between 0 and 1")
)

// Group is one match: three or four members placed together by a batch.
type Group struct {
	ID                   uuid.UUID   `json:"id"`
	BatchID              uuid.UUID   `json:"batch_id"`
	MemberIDs            []uuid.UUID `json:"member_ids"`
	AverageCompatibility float64     `json:"average_compatibility"`
	Status               GroupStatus `json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
}

// NewGroup creates a group in the created state.
func NewGroup(batchID uuid.UUID, memberIDs []uuid.UUID, avg float64, now time.Time) (*Group, error) {
	ids := make([]uuid.UUID, len(memberIDs))
	copy(ids, memberIDs)

	group := &Group{
		ID:                   uuid.New(),
		BatchID:              batchID,
		MemberIDs:            ids,
		AverageCompatibility: avg,
		Status:               GroupStatusCreated,
		CreatedAt:            now.UTC(),
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}

	return group, nil
}

// Validate checks if the Group has valid data.
func (g *Group) Validate() error {
	if g.ID == uuid.Nil {
		return ErrEmptyGroupID
	}

	if g.BatchID == uuid.Nil {
		return ErrEmptyGroupBatchID
	}

	if len(g.MemberIDs) < MinGroupSize || len(g.MemberIDs) > MaxGroupSize {
		return ErrInvalidGroupSize
	}

	seen := make(map[uuid.UUID]struct{}, len(g.MemberIDs))
	for _, id := range g.MemberIDs {
		if id == uuid.Nil {
			return ErrInvalidID
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateGroupMember
		}
		seen[id] = struct{}{}
	}

	if g.AverageCompatibility < 0 || g.AverageCompatibility > 1 {
		return ErrInvalidCompatibility
	}

	if !g.Status.IsValid() {
		return ErrInvalidGroupStatus
	}

	return nil
}

// HasMember reports whether id belongs to the group.
func (g *Group) HasMember(id uuid.UUID) bool {
	for _, m := range g.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// TransitionTo moves the group to status. Allowed moves are
// created → active, created → archived and active → archived; moving to the
// current status is a no-op.
func (g *Group) TransitionTo(status GroupStatus) error {
	if g.Status == status {
		return nil
	}

	switch {
	case g.Status == GroupStatusCreated && status == GroupStatusActive,
		g.Status == GroupStatusCreated && status == GroupStatusArchived,
		g.Status == GroupStatusActive && status == GroupStatusArchived:
		g.Status = status
		return nil
	default:
		return ErrInvalidGroupStatus
	}
}

// IsValid reports whether s is a known group status.
func (s GroupStatus) IsValid() bool {
	switch s {
	case GroupStatusCreated, GroupStatusActive, GroupStatusArchived:
		return true
	default:
		return false
	}
}
