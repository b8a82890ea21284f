package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors for Membership
var (
	ErrEmptyMembershipGroupID  = errors.New("membership group ID cannot be empty")
	ErrEmptyMembershipMemberID = errors.New("membership member ID cannot be empty")
)

// Membership links a member to a group. Active starts true and is cleared
// when the member passes on the group.
type Membership struct {
	GroupID           uuid.UUID `json:"group_id"`
	MemberID          uuid.UUID `json:"member_id"`
	ScoreContribution float64   `json:"score_contribution"`
	JoinedAt          time.Time `json:"joined_at"`
	Active            bool      `json:"active"`
}

// Validate checks if the Membership has valid data.
func (m *Membership) Validate() error {
	if m.GroupID == uuid.Nil {
		return ErrEmptyMembershipGroupID
	}

	if m.MemberID == uuid.Nil {
		return ErrEmptyMembershipMemberID
	}

	if m.ScoreContribution < 0 || m.ScoreContribution > 1 {
		return ErrInvalidCompatibility
	}

	return nil
}
