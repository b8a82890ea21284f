package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Errors returned by Dispatcher.EmitEvent.
var (
	ErrDispatcherClosed = errors.New("event dispatcher is closed")
	ErrQueueFull        = errors.New("event queue is full")
)

// DispatcherConfig holds configuration options for the dispatcher.
type DispatcherConfig struct {
	// WorkerCount determines how many concurrent delivery goroutines to start.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// QueueSize is the number of events buffered before EmitEvent rejects
	// new ones. If zero or negative, defaults to 64.
	QueueSize int

	// DeliveryTimeout bounds a single delivery to the downstream emitter.
	// If zero or negative, defaults to 5 seconds.
	DeliveryTimeout time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		WorkerCount:     2,
		QueueSize:       64,
		DeliveryTimeout: 5 * time.Second,
	}
}

// Dispatcher is an EventEmitter that queues events and delivers them to a
// downstream emitter from a pool of worker goroutines, so that emitting
// never blocks on a slow notification backend. Delivery errors are logged.
type Dispatcher struct {
	next    EventEmitter
	queue   chan *GroupFormedEvent
	workers int
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

var _ EventEmitter = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher delivering to next. Call Start before
// emitting and Stop to drain the queue on shutdown.
func NewDispatcher(next EventEmitter, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if next == nil {
		panic("next emitter cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "event_dispatcher"))

	defaults := DefaultDispatcherConfig()
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = defaults.DeliveryTimeout
	}

	return &Dispatcher{
		next:    next,
		queue:   make(chan *GroupFormedEvent, config.QueueSize),
		workers: config.WorkerCount,
		timeout: config.DeliveryTimeout,
		logger:  logger,
	}
}

// Start launches the worker goroutines. Calling it more than once has no
// effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}

	d.logger.Info("event dispatcher started", slog.Int("worker_count", d.workers))
}

// EmitEvent queues event for delivery. It returns ErrQueueFull when the
// buffer is exhausted and ErrDispatcherClosed after Stop.
func (d *Dispatcher) EmitEvent(_ context.Context, event *GroupFormedEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- event:
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(d.queue))
	}
}

// Stop rejects further events and waits until queued events are delivered
// or ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("event dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(id int) {
	defer d.wg.Done()

	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.next.EmitEvent(ctx, event); err != nil {
			d.logger.Error("failed to deliver event",
				slog.String("error", err.Error()),
				slog.Int("worker_id", id),
				slog.String("event_id", event.ID.String()),
				slog.String("group_id", event.GroupID.String()))
		}
		cancel()
	}
}
