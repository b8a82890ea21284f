package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
)

// GroupStore defines the interface for reading and updating formed groups
// after their batch was committed.
type GroupStore interface {
	// GetGroup retrieves a group and its member ids.
	// Returns ErrGroupNotFound if the group does not exist.
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error)

	// GetGroupForUpdate is GetGroup with the group row locked until the
	// transaction ends. Concurrent joins and passes on one group queue behind
	// the lock, so status decisions are made on current data.
	// Returns ErrGroupNotFound if the group does not exist.
	GetGroupForUpdate(ctx context.Context, id uuid.UUID) (*domain.Group, error)

	// ListGroupsForMember returns the groups memberID belongs to, newest first.
	// Returns an empty slice if there are none.
	ListGroupsForMember(ctx context.Context, memberID uuid.UUID) ([]*domain.Group, error)

	// GetMembership retrieves one member's membership in a group.
	// Returns ErrMembershipNotFound if the member is not in the group.
	GetMembership(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Membership, error)

	// SetMembershipActive flips the active flag of a membership.
	// Returns ErrMembershipNotFound if the member is not in the group.
	SetMembershipActive(ctx context.Context, groupID, memberID uuid.UUID, active bool) error

	// UpdateGroupStatus stores a new status for the group.
	// Returns ErrGroupNotFound if the group does not exist.
	UpdateGroupStatus(ctx context.Context, id uuid.UUID, status domain.GroupStatus) error

	// CountActiveMembers returns the number of active memberships in a group.
	CountActiveMembers(ctx context.Context, groupID uuid.UUID) (int, error)

	// WithTx returns a new GroupStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) GroupStore
}
