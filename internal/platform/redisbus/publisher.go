package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/phrazzld/huddle-api/internal/events"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream formed groups are published to.
const DefaultStream = "groups:formed"

// defaultMaxLen caps the stream length; trimming is approximate.
const defaultMaxLen = 100_000

// ErrInvalidEvent is returned for events that cannot be published.
var ErrInvalidEvent = errors.New("invalid event")

// Publisher appends GroupFormedEvents to a Redis stream.
type Publisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
	logger *slog.Logger
}

var _ events.EventHandler = (*Publisher)(nil)

// NewPublisher creates a Publisher writing to stream, or DefaultStream when
// stream is empty.
func NewPublisher(client redis.Cmdable, stream string, logger *slog.Logger) *Publisher {
	if client == nil {
		panic("redis client cannot be nil")
	}

	if stream == "" {
		stream = DefaultStream
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
		logger: logger.With(slog.String("component", "redis_publisher")),
	}
}

// HandleEvent implements events.EventHandler by adding one stream entry.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.GroupFormedEvent) error {
	log := logger.FromContextOrDefault(ctx, p.logger)

	values, err := entryValues(event)
	if err != nil {
		return err
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		log.Error("failed to publish group formed event",
			slog.String("error", err.Error()),
			slog.String("stream", p.stream),
			slog.String("group_id", event.GroupID.String()))
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	log.Debug("published group formed event",
		slog.String("stream", p.stream),
		slog.String("entry_id", id),
		slog.String("group_id", event.GroupID.String()))
	return nil
}

func entryValues(event *events.GroupFormedEvent) (map[string]any, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	if len(event.MemberIDs) == 0 {
		return nil, fmt.Errorf("%w: group %s has no members", ErrInvalidEvent, event.GroupID)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	members := make([]string, len(event.MemberIDs))
	for i, id := range event.MemberIDs {
		members[i] = id.String()
	}

	return map[string]any{
		"event_id":              event.ID.String(),
		"type":                  event.Type,
		"batch_id":              event.BatchID.String(),
		"cycle_date":            event.CycleDate.String(),
		"group_id":              event.GroupID.String(),
		"member_ids":            strings.Join(members, ","),
		"average_compatibility": strconv.FormatFloat(event.AverageCompatibility, 'f', 4, 64),
		"payload":               string(payload),
	}, nil
}
