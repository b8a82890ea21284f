package cycle_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/domain/matching"
	"github.com/phrazzld/huddle-api/internal/events"
	"github.com/phrazzld/huddle-api/internal/mocks"
	"github.com/phrazzld/huddle-api/internal/service/cycle"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// cycleStart is the Monday of testCycle.
var cycleStart = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

const testCycle = domain.CycleDate("2024-W10")

func idN(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func ids(ns ...int) []uuid.UUID {
	out := make([]uuid.UUID, len(ns))
	for i, n := range ns {
		out[i] = idN(n)
	}
	return out
}

func newMember(n int, gender domain.Gender) domain.Member {
	return domain.Member{
		ID:                  idN(n),
		Specialty:           "cardiology",
		Interests:           []string{"hiking", "jazz", "chess"},
		City:                "Lisbon",
		Gender:              gender,
		AvailabilitySlots:   []string{"sat-am", "sun-pm"},
		Verified:            true,
		Paid:                true,
		OnboardingComplete:  true,
		SpecialtyPreference: domain.NoSpecialtyPreference,
	}
}

// alternating returns members 1..n with genders alternating male/female.
func alternating(n int) []domain.Member {
	out := make([]domain.Member, n)
	for i := 0; i < n; i++ {
		g := domain.GenderMale
		if i%2 == 1 {
			g = domain.GenderFemale
		}
		out[i] = newMember(i+1, g)
	}
	return out
}

// recordingHandler captures emitted events.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.GroupFormedEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.GroupFormedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) received() []*events.GroupFormedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*events.GroupFormedEvent(nil), h.events...)
}

// fakeRecorder captures cycle measurements.
type fakeRecorder struct {
	mu        sync.Mutex
	outcomes  []string
	committed int
	excluded  map[string]int
	dropped   int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{excluded: make(map[string]int)}
}

func (r *fakeRecorder) CycleFinished(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) BatchCommitted(_, _, _ int, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed++
}

func (r *fakeRecorder) MembersExcluded(reason string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.excluded[reason] += n
}

func (r *fakeRecorder) EventDropped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped++
}

type fixture struct {
	store    *mocks.InMemoryMatchStore
	handler  *recordingHandler
	recorder *fakeRecorder
	orch     *cycle.BatchOrchestrator
}

func newFixture(t *testing.T, members ...domain.Member) *fixture {
	t.Helper()

	f := &fixture{
		store:    mocks.NewInMemoryMatchStore(members...),
		handler:  &recordingHandler{},
		recorder: newFakeRecorder(),
	}

	emitter := events.NewInMemoryEventEmitter(discardLogger)
	emitter.RegisterHandler(f.handler)

	orch, err := cycle.NewBatchOrchestrator(
		f.store, f.store, emitter, matching.NewDefaultParams(), discardLogger,
		cycle.WithRecorder(f.recorder),
		cycle.WithClock(func() time.Time { return cycleStart.Add(3 * time.Hour) }),
	)
	require.NoError(t, err)
	f.orch = orch

	return f
}

func memberIDsOf(groups []domain.Group) [][]uuid.UUID {
	out := make([][]uuid.UUID, len(groups))
	for i, g := range groups {
		out[i] = g.MemberIDs
	}
	return out
}

type mocksStore = mocks.InMemoryMatchStore
