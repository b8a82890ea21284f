package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/service/cycle"
)

// RunCycleRequest is the optional body of POST /api/admin/cycles. An empty
// CycleDate runs the current ISO week.
type RunCycleRequest struct {
	CycleDate string `json:"cycle_date" validate:"omitempty,max=10"`
}

// GroupResponse is a formed group as shown to its members.
type GroupResponse struct {
	ID                   uuid.UUID   `json:"id"`
	BatchID              uuid.UUID   `json:"batch_id"`
	MemberIDs            []uuid.UUID `json:"member_ids"`
	AverageCompatibility float64     `json:"average_compatibility"`
	Status               string      `json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
}

// GroupListResponse wraps the groups of the calling member.
type GroupListResponse struct {
	Groups []GroupResponse `json:"groups"`
}

// BatchResponse describes a cycle run. Groups is only present on the
// response to the run itself.
type BatchResponse struct {
	BatchID              uuid.UUID       `json:"batch_id"`
	CycleDate            string          `json:"cycle_date"`
	AlgorithmVersion     string          `json:"algorithm_version"`
	EligibleCount        int             `json:"eligible_count"`
	ExcludedCount        *int            `json:"excluded_count,omitempty"`
	LeftoverCount        *int            `json:"leftover_count,omitempty"`
	GroupsCreated        int             `json:"groups_created"`
	UsersMatched         int             `json:"users_matched"`
	AverageCompatibility *float64        `json:"average_compatibility,omitempty"`
	Groups               []GroupResponse `json:"groups,omitempty"`
	StartedAt            time.Time       `json:"started_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
}

func groupToResponse(g *domain.Group) GroupResponse {
	ids := make([]uuid.UUID, len(g.MemberIDs))
	copy(ids, g.MemberIDs)

	return GroupResponse{
		ID:                   g.ID,
		BatchID:              g.BatchID,
		MemberIDs:            ids,
		AverageCompatibility: g.AverageCompatibility,
		Status:               string(g.Status),
		CreatedAt:            g.CreatedAt,
	}
}

func groupsToResponse(groups []*domain.Group) []GroupResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupToResponse(g))
	}
	return out
}

func summaryToResponse(s *cycle.BatchSummary) BatchResponse {
	excluded, leftover, avg := s.ExcludedCount, s.LeftoverCount, s.AverageCompatibility
	completed := s.CompletedAt

	return BatchResponse{
		BatchID:              s.BatchID,
		CycleDate:            s.CycleDate.String(),
		AlgorithmVersion:     s.AlgorithmVersion,
		EligibleCount:        s.EligibleCount,
		ExcludedCount:        &excluded,
		LeftoverCount:        &leftover,
		GroupsCreated:        s.GroupsCreated,
		UsersMatched:         s.UsersMatched,
		AverageCompatibility: &avg,
		Groups:               groupsToResponse(s.Groups),
		StartedAt:            s.StartedAt,
		CompletedAt:          &completed,
	}
}

func batchToResponse(b *domain.MatchBatch) BatchResponse {
	return BatchResponse{
		BatchID:          b.ID,
		CycleDate:        b.CycleDate.String(),
		AlgorithmVersion: b.AlgorithmVersion,
		EligibleCount:    b.EligibleCount,
		GroupsCreated:    b.GroupsCreated,
		UsersMatched:     b.UsersMatched,
		StartedAt:        b.StartedAt,
		CompletedAt:      b.CompletedAt,
	}
}
