package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/domain/matching"
	"github.com/phrazzld/huddle-api/internal/events"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
	"github.com/phrazzld/huddle-api/internal/platform/metrics"
	"github.com/phrazzld/huddle-api/internal/store"
)

// State is a step of the per-cycle state machine.
type State string

// Cycle states. A cycle moves forward through pending, scoring, assembling
// and committing to completed, or to failed from any of them.
const (
	StatePending    State = "pending"
	StateScoring    State = "scoring"
	StateAssembling State = "assembling"
	StateCommitting State = "committing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Service is the trigger surface of the matching engine.
type Service interface {
	// RunCycle runs the cycle for date. It returns a conflict MatchError if
	// the cycle was already committed.
	RunCycle(ctx context.Context, date domain.CycleDate) (*BatchSummary, error)

	// RunCurrentCycle runs the cycle for the current ISO week.
	RunCurrentCycle(ctx context.Context) (*BatchSummary, error)

	// GetBatch returns the committed batch for date.
	// Returns store.ErrBatchNotFound if the cycle has not run.
	GetBatch(ctx context.Context, date domain.CycleDate) (*domain.MatchBatch, error)
}

// BatchSummary describes a completed cycle.
type BatchSummary struct {
	BatchID              uuid.UUID        `json:"batch_id"`
	CycleDate            domain.CycleDate `json:"cycle_date"`
	AlgorithmVersion     string           `json:"algorithm_version"`
	State                State            `json:"state"`
	EligibleCount        int              `json:"eligible_count"`
	ExcludedCount        int              `json:"excluded_count"`
	GroupsCreated        int              `json:"groups_created"`
	UsersMatched         int              `json:"users_matched"`
	LeftoverCount        int              `json:"leftover_count"`
	AverageCompatibility float64          `json:"average_compatibility"`
	Groups               []*domain.Group  `json:"groups"`
	StartedAt            time.Time        `json:"started_at"`
	CompletedAt          time.Time        `json:"completed_at"`
}

// Recorder receives cycle measurements. *metrics.CycleMetrics implements it.
type Recorder interface {
	CycleFinished(outcome string, d time.Duration)
	BatchCommitted(eligible, groups, users int, avgCompatibility float64)
	MembersExcluded(reason string, n int)
	EventDropped()
}

type nopRecorder struct{}

func (nopRecorder) CycleFinished(string, time.Duration)   {}
func (nopRecorder) BatchCommitted(int, int, int, float64) {}
func (nopRecorder) MembersExcluded(string, int)           {}
func (nopRecorder) EventDropped()                         {}

var _ Recorder = (*metrics.CycleMetrics)(nil)

// Option customizes a BatchOrchestrator.
type Option func(*BatchOrchestrator)

// WithClock replaces time.Now, which decides the current cycle and the
// completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *BatchOrchestrator) {
		o.now = now
	}
}

// WithRecorder sets where cycle measurements go.
func WithRecorder(r Recorder) Option {
	return func(o *BatchOrchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// BatchOrchestrator runs matching cycles against a roster and a match store.
type BatchOrchestrator struct {
	roster    store.RosterReader
	matches   store.MatchStore
	emitter   events.EventEmitter
	params    *matching.Params
	filter    *matching.Filter
	assembler *matching.Assembler
	recorder  Recorder
	now       func() time.Time
	logger    *slog.Logger
}

var _ Service = (*BatchOrchestrator)(nil)

// NewBatchOrchestrator creates a BatchOrchestrator.
// It returns a configuration error if params are unusable and a validation
// error if a required dependency is nil. A nil emitter disables
// notifications.
func NewBatchOrchestrator(
	roster store.RosterReader,
	matches store.MatchStore,
	emitter events.EventEmitter,
	params *matching.Params,
	logger *slog.Logger,
	opts ...Option,
) (*BatchOrchestrator, error) {
	if roster == nil {
		return nil, domain.NewValidationError("roster", "cannot be nil", domain.ErrValidation)
	}
	if matches == nil {
		return nil, domain.NewValidationError("matches", "cannot be nil", domain.ErrValidation)
	}
	if params == nil {
		return nil, domain.NewConfigurationError("new_orchestrator", "params cannot be nil", nil)
	}

	if logger == nil {
		logger = slog.Default()
	}

	scorer, err := matching.NewWeightedScorer(params.Weights)
	if err != nil {
		return nil, err
	}

	assembler, err := matching.NewAssembler(params, scorer, logger)
	if err != nil {
		return nil, err
	}

	o := &BatchOrchestrator{
		roster:    roster,
		matches:   matches,
		emitter:   emitter,
		params:    params,
		filter:    matching.NewFilter(params, logger),
		assembler: assembler,
		recorder:  nopRecorder{},
		now:       time.Now,
		logger:    logger.With(slog.String("component", "batch_orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// RunCurrentCycle implements Service.RunCurrentCycle.
func (o *BatchOrchestrator) RunCurrentCycle(ctx context.Context) (*BatchSummary, error) {
	return o.RunCycle(ctx, domain.CycleDateFor(o.now()))
}

// GetBatch implements Service.GetBatch.
func (o *BatchOrchestrator) GetBatch(ctx context.Context, date domain.CycleDate) (*domain.MatchBatch, error) {
	cycle, err := domain.ParseCycleDate(string(date))
	if err != nil {
		return nil, err
	}

	batch, err := o.matches.GetBatch(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch for %s: %w", cycle, err)
	}
	return batch, nil
}

// RunCycle implements Service.RunCycle.
//
// The eligibility reference time and the last-matched timestamp written for
// every grouped member are both the start of the cycle's week, so a retry
// of a failed cycle sees the same pool.
func (o *BatchOrchestrator) RunCycle(ctx context.Context, date domain.CycleDate) (*BatchSummary, error) {
	began := o.now()

	cycle, err := domain.ParseCycleDate(string(date))
	if err != nil {
		o.recorder.CycleFinished(metrics.OutcomeConfiguration, o.now().Sub(began))
		return nil, domain.NewConfigurationError("run_cycle", "invalid cycle date", err)
	}

	run := &cycleRun{
		cycle:  cycle,
		state:  StatePending,
		logger: logger.FromContextOrDefault(ctx, o.logger).With(slog.String("cycle_date", cycle.String())),
	}
	ctx = logger.WithLogger(ctx, run.logger)

	summary, err := o.run(ctx, run)
	o.recorder.CycleFinished(outcomeOf(err), o.now().Sub(began))
	if err != nil {
		run.fail(err)
		return nil, err
	}

	run.transition(StateCompleted)
	return summary, nil
}

func (o *BatchOrchestrator) run(ctx context.Context, run *cycleRun) (*BatchSummary, error) {
	const op = "run_cycle"

	start, err := run.cycle.Start()
	if err != nil {
		return nil, domain.NewConfigurationError(op, "invalid cycle date", err)
	}

	exists, err := o.matches.BatchExists(ctx, run.cycle)
	if err != nil {
		return nil, domain.NewTransactionalError(op, "failed to check for an existing batch", err)
	}
	if exists {
		return nil, domain.NewConflictError(op, "cycle "+run.cycle.String()+" already ran", nil)
	}

	roster, err := o.roster.ListRoster(ctx)
	if err != nil {
		return nil, domain.NewTransactionalError(op, "failed to read roster", err)
	}

	run.transition(StateScoring)
	filtered := o.filter.Apply(ctx, roster, start)
	o.recordExclusions(filtered.Excluded)

	run.transition(StateAssembling)
	assembled, err := o.assembler.Assemble(ctx, filtered.Eligible)
	if err != nil {
		return nil, err
	}

	run.transition(StateCommitting)
	batch, groups, err := o.commit(ctx, run, start, len(filtered.Eligible), assembled)
	if err != nil {
		return nil, err
	}

	o.announce(ctx, batch, groups)
	o.recorder.BatchCommitted(batch.EligibleCount, batch.GroupsCreated, batch.UsersMatched,
		assembled.AverageCompatibility())

	run.logger.Info("cycle committed",
		slog.String("batch_id", batch.ID.String()),
		slog.Int("roster_size", len(roster)),
		slog.Int("eligible", batch.EligibleCount),
		slog.Int("groups_created", batch.GroupsCreated),
		slog.Int("users_matched", batch.UsersMatched),
		slog.Int("leftovers", len(assembled.Leftovers)))

	return &BatchSummary{
		BatchID:              batch.ID,
		CycleDate:            batch.CycleDate,
		AlgorithmVersion:     batch.AlgorithmVersion,
		State:                StateCompleted,
		EligibleCount:        batch.EligibleCount,
		ExcludedCount:        len(filtered.Excluded),
		GroupsCreated:        batch.GroupsCreated,
		UsersMatched:         batch.UsersMatched,
		LeftoverCount:        len(assembled.Leftovers),
		AverageCompatibility: assembled.AverageCompatibility(),
		Groups:               groups,
		StartedAt:            batch.StartedAt,
		CompletedAt:          *batch.CompletedAt,
	}, nil
}

// commit writes the batch, its groups and memberships, and the members'
// last-matched timestamps as one unit.
func (o *BatchOrchestrator) commit(
	ctx context.Context,
	run *cycleRun,
	start time.Time,
	eligible int,
	assembled *matching.AssemblyResult,
) (*domain.MatchBatch, []*domain.Group, error) {
	const op = "commit_batch"

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("cycle canceled before commit: %w", err)
	}

	batch, err := domain.NewMatchBatch(run.cycle, o.params.AlgorithmVersion, eligible)
	if err != nil {
		return nil, nil, domain.NewConfigurationError(op, "invalid batch", err)
	}
	batch.StartedAt = o.now().UTC()
	run.logger = run.logger.With(slog.String("batch_id", batch.ID.String()))

	createdAt := o.now()
	groups := make([]*domain.Group, 0, len(assembled.Groups))
	memberships := make([][]domain.Membership, 0, len(assembled.Groups))
	matched := make([]uuid.UUID, 0, assembled.UsersMatched())
	for _, p := range assembled.Groups {
		group, err := domain.NewGroup(batch.ID, p.MemberIDs, p.AverageCompatibility, createdAt)
		if err != nil {
			return nil, nil, fmt.Errorf("assembled group failed validation: %w", err)
		}
		groups = append(groups, group)
		memberships = append(memberships, membershipsFor(group, p, createdAt))
		matched = append(matched, group.MemberIDs...)
	}

	writer, err := o.matches.BeginBatch(ctx, batch)
	if err != nil {
		if errors.Is(err, store.ErrBatchExists) {
			return nil, nil, domain.NewConflictError(op, "cycle "+run.cycle.String()+" already ran", err)
		}
		return nil, nil, domain.NewTransactionalError(op, "failed to begin batch", err)
	}

	abort := func(message string, cause error) error {
		if rbErr := writer.Rollback(ctx); rbErr != nil {
			run.logger.Error("failed to roll back batch", slog.String("error", rbErr.Error()))
			cause = errors.Join(cause, rbErr)
		}
		return domain.NewTransactionalError(op, message, cause)
	}

	for i, group := range groups {
		if err := writer.InsertGroup(ctx, group, memberships[i]); err != nil {
			return nil, nil, abort("failed to insert group", err)
		}
	}

	if len(matched) > 0 {
		if err := writer.MarkMatched(ctx, matched, start); err != nil {
			return nil, nil, abort("failed to update last matched time", err)
		}
	}

	batch.Complete(len(groups), len(matched), o.now())
	if err := writer.Commit(ctx, batch); err != nil {
		return nil, nil, abort("failed to commit batch", err)
	}

	return batch, groups, nil
}

// announce emits one event per committed group. Failures are logged only;
// the batch is already durable.
func (o *BatchOrchestrator) announce(ctx context.Context, batch *domain.MatchBatch, groups []*domain.Group) {
	if o.emitter == nil {
		return
	}

	log := logger.FromContextOrDefault(ctx, o.logger)
	ctx = context.WithoutCancel(ctx)

	for _, group := range groups {
		if err := o.emitter.EmitEvent(ctx, events.NewGroupFormedEvent(batch, group)); err != nil {
			o.recorder.EventDropped()
			log.Warn("failed to emit group formed event",
				slog.String("error", err.Error()),
				slog.String("group_id", group.ID.String()))
		}
	}
}

func (o *BatchOrchestrator) recordExclusions(excluded []matching.Exclusion) {
	counts := make(map[matching.ExclusionReason]int)
	for _, e := range excluded {
		counts[e.Reason]++
	}
	for reason, n := range counts {
		o.recorder.MembersExcluded(string(reason), n)
	}
}

func membershipsFor(group *domain.Group, p matching.Proposal, joinedAt time.Time) []domain.Membership {
	out := make([]domain.Membership, len(group.MemberIDs))
	for i, id := range group.MemberIDs {
		out[i] = domain.Membership{
			GroupID:           group.ID,
			MemberID:          id,
			ScoreContribution: p.Contributions[id],
			JoinedAt:          joinedAt.UTC(),
			Active:            true,
		}
	}
	return out
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeCompleted
	}
	switch domain.KindOf(err) {
	case domain.KindConflict:
		return metrics.OutcomeConflict
	case domain.KindConfiguration:
		return metrics.OutcomeConfiguration
	default:
		return metrics.OutcomeFailed
	}
}

// cycleRun tracks the state of one RunCycle call.
type cycleRun struct {
	cycle  domain.CycleDate
	state  State
	logger *slog.Logger
}

func (r *cycleRun) transition(to State) {
	r.logger.Debug("cycle state changed",
		slog.String("from", string(r.state)),
		slog.String("to", string(to)))
	r.state = to
}

func (r *cycleRun) fail(err error) {
	from := r.state
	r.state = StateFailed

	level := slog.LevelError
	if kind := domain.KindOf(err); kind == domain.KindConflict {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "cycle failed",
		slog.String("error", err.Error()),
		slog.String("state", string(from)),
		slog.String("kind", string(domain.KindOf(err))))
}
