package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/store"
)

// minActiveMembers is the smallest number of active members a group needs to
// stay open. Passing below it archives the group.
const minActiveMembers = 2

// MembershipService provides the per-member operations on formed groups.
type MembershipService interface {
	// ListMemberGroups returns the groups memberID was placed in, newest first.
	ListMemberGroups(ctx context.Context, memberID uuid.UUID) ([]*domain.Group, error)

	// Join confirms memberID's participation and activates a newly created
	// group. Joining an active group is a no-op.
	Join(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error)

	// Pass deactivates memberID's membership. The group is archived once fewer
	// than two active members remain. Passing twice is a no-op.
	Pass(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error)
}

// membershipServiceImpl implements the MembershipService interface
type membershipServiceImpl struct {
	db     store.TxBeginner
	groups store.GroupStore
	logger *slog.Logger
}

// NewMembershipService creates a new MembershipService
// It returns an error if any of the required dependencies are nil.
func NewMembershipService(
	db store.TxBeginner,
	groups store.GroupStore,
	logger *slog.Logger,
) (MembershipService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if groups == nil {
		return nil, domain.NewValidationError("groups", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &membershipServiceImpl{
		db:     db,
		groups: groups,
		logger: logger.With(slog.String("component", "membership_service")),
	}, nil
}

// ListMemberGroups implements MembershipService.ListMemberGroups
func (s *membershipServiceImpl) ListMemberGroups(
	ctx context.Context,
	memberID uuid.UUID,
) ([]*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	groups, err := s.groups.ListGroupsForMember(ctx, memberID)
	if err != nil {
		log.Error("failed to list groups for member",
			slog.String("error", err.Error()),
			slog.String("member_id", memberID.String()))
		return nil, NewMembershipServiceError("list_groups", "failed to list groups", err)
	}

	return groups, nil
}

// Join implements MembershipService.Join
func (s *membershipServiceImpl) Join(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("group_id", groupID.String()),
		slog.String("member_id", memberID.String()))

	var result *domain.Group
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		groups := s.groups.WithTx(tx)

		group, membership, err := s.load(ctx, groups, "join", groupID, memberID)
		if err != nil {
			return err
		}

		if group.Status == domain.GroupStatusArchived {
			return ErrGroupArchived
		}
		if !membership.Active {
			return ErrMembershipInactive
		}

		if group.Status == domain.GroupStatusCreated {
			if err := group.TransitionTo(domain.GroupStatusActive); err != nil {
				return NewMembershipServiceError("join", "invalid status change", err)
			}
			if err := groups.UpdateGroupStatus(ctx, group.ID, group.Status); err != nil {
				return NewMembershipServiceError("join", "failed to activate group", err)
			}
			log.Info("group activated")
		}

		result = group
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Pass implements MembershipService.Pass
func (s *membershipServiceImpl) Pass(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("group_id", groupID.String()),
		slog.String("member_id", memberID.String()))

	var result *domain.Group
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		groups := s.groups.WithTx(tx)

		group, membership, err := s.load(ctx, groups, "pass", groupID, memberID)
		if err != nil {
			return err
		}

		result = group
		if !membership.Active {
			log.Debug("member already passed on group")
			return nil
		}

		if err := groups.SetMembershipActive(ctx, groupID, memberID, false); err != nil {
			return NewMembershipServiceError("pass", "failed to deactivate membership", err)
		}

		if group.Status == domain.GroupStatusArchived {
			return nil
		}

		active, err := groups.CountActiveMembers(ctx, groupID)
		if err != nil {
			return NewMembershipServiceError("pass", "failed to count active members", err)
		}

		if active < minActiveMembers {
			if err := group.TransitionTo(domain.GroupStatusArchived); err != nil {
				return NewMembershipServiceError("pass", "invalid status change", err)
			}
			if err := groups.UpdateGroupStatus(ctx, group.ID, group.Status); err != nil {
				return NewMembershipServiceError("pass", "failed to archive group", err)
			}
			log.Info("group archived", slog.Int("active_members", active))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// load locks the group and fetches memberID's membership in it, mapping
// missing rows to ErrNotGroupMember. groups must be bound to a transaction.
func (s *membershipServiceImpl) load(
	ctx context.Context,
	groups store.GroupStore,
	op string,
	groupID, memberID uuid.UUID,
) (*domain.Group, *domain.Membership, error) {
	group, err := groups.GetGroupForUpdate(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			return nil, nil, ErrNotGroupMember
		}
		return nil, nil, NewMembershipServiceError(op, "failed to load group", err)
	}

	membership, err := groups.GetMembership(ctx, groupID, memberID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			return nil, nil, ErrNotGroupMember
		}
		return nil, nil, NewMembershipServiceError(op, "failed to load membership", err)
	}

	return group, membership, nil
}
