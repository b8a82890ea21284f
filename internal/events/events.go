package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
)

// EventTypeGroupFormed identifies GroupFormedEvent on the wire.
const EventTypeGroupFormed = "group.formed"

// GroupFormedEvent tells the notification subsystem that a group was
// committed and its members should be informed.
type GroupFormedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is always EventTypeGroupFormed
	Type string `json:"type"`

	BatchID              uuid.UUID        `json:"batch_id"`
	CycleDate            domain.CycleDate `json:"cycle_date"`
	GroupID              uuid.UUID        `json:"group_id"`
	MemberIDs            []uuid.UUID      `json:"member_ids"`
	AverageCompatibility float64          `json:"average_compatibility"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewGroupFormedEvent creates the event announcing group, formed by batch.
func NewGroupFormedEvent(batch *domain.MatchBatch, group *domain.Group) *GroupFormedEvent {
	ids := make([]uuid.UUID, len(group.MemberIDs))
	copy(ids, group.MemberIDs)

	return &GroupFormedEvent{
		ID:                   uuid.New(),
		Type:                 EventTypeGroupFormed,
		BatchID:              batch.ID,
		CycleDate:            batch.CycleDate,
		GroupID:              group.ID,
		MemberIDs:            ids,
		AverageCompatibility: group.AverageCompatibility,
		CreatedAt:            time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for delivering events to their destination.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *GroupFormedEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *GroupFormedEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *GroupFormedEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *GroupFormedEvent) error {
	return f(ctx, event)
}
