package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/store"
)

// InMemoryMatchStore is an in-memory store.MatchStore and store.RosterReader.
// Writes staged through a BatchWriter become visible only on Commit, and a
// batch for a cycle date that is committed or still open is rejected with
// store.ErrBatchExists, as the database unique constraint would.
//
// The *Err fields inject failures into the corresponding operation.
type InMemoryMatchStore struct {
	mu sync.Mutex

	members     map[uuid.UUID]domain.Member
	batches     map[domain.CycleDate]*domain.MatchBatch
	pending     map[domain.CycleDate]bool
	groups      map[uuid.UUID]*domain.Group
	memberships []domain.Membership

	ListRosterErr  error
	BatchExistsErr error
	BeginErr       error
	InsertGroupErr error
	// FailInsertAfter makes InsertGroup fail with InsertGroupErr only after
	// this many successful inserts within one writer.
	FailInsertAfter int
	MarkMatchedErr  error
	CommitErr       error

	// OnBegin, if set, runs after a batch was reserved in BeginBatch.
	OnBegin func(batch *domain.MatchBatch)

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var (
	_ store.MatchStore   = (*InMemoryMatchStore)(nil)
	_ store.RosterReader = (*InMemoryMatchStore)(nil)
)

// NewInMemoryMatchStore creates a store holding members.
func NewInMemoryMatchStore(members ...domain.Member) *InMemoryMatchStore {
	s := &InMemoryMatchStore{
		members: make(map[uuid.UUID]domain.Member, len(members)),
		batches: make(map[domain.CycleDate]*domain.MatchBatch),
		pending: make(map[domain.CycleDate]bool),
		groups:  make(map[uuid.UUID]*domain.Group),
	}
	for _, m := range members {
		s.members[m.ID] = cloneMember(m)
	}
	return s
}

// ListRoster implements store.RosterReader.ListRoster, ordered by id.
func (s *InMemoryMatchStore) ListRoster(ctx context.Context) ([]domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ListRosterErr != nil {
		return nil, s.ListRosterErr
	}

	roster := make([]domain.Member, 0, len(s.members))
	for _, m := range s.members {
		roster = append(roster, cloneMember(m))
	}
	sort.Slice(roster, func(i, j int) bool { return domain.LessID(roster[i].ID, roster[j].ID) })
	return roster, nil
}

// BatchExists implements store.MatchStore.BatchExists.
func (s *InMemoryMatchStore) BatchExists(_ context.Context, cycle domain.CycleDate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.BatchExistsErr != nil {
		return false, s.BatchExistsErr
	}
	_, ok := s.batches[cycle]
	return ok, nil
}

// GetBatch implements store.MatchStore.GetBatch.
func (s *InMemoryMatchStore) GetBatch(_ context.Context, cycle domain.CycleDate) (*domain.MatchBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[cycle]
	if !ok {
		return nil, store.ErrBatchNotFound
	}
	cp := *b
	return &cp, nil
}

// BeginBatch implements store.MatchStore.BeginBatch.
func (s *InMemoryMatchStore) BeginBatch(_ context.Context, batch *domain.MatchBatch) (store.BatchWriter, error) {
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	s.BeginCalls++
	if s.BeginErr != nil {
		s.mu.Unlock()
		return nil, s.BeginErr
	}
	if _, ok := s.batches[batch.CycleDate]; ok || s.pending[batch.CycleDate] {
		s.mu.Unlock()
		return nil, store.ErrBatchExists
	}
	s.pending[batch.CycleDate] = true
	onBegin := s.OnBegin
	s.mu.Unlock()

	if onBegin != nil {
		onBegin(batch)
	}

	return &inMemoryBatchWriter{
		store:   s,
		cycle:   batch.CycleDate,
		batchID: batch.ID,
		matched: make(map[uuid.UUID]time.Time),
	}, nil
}

// Batches returns the committed batches ordered by cycle date.
func (s *InMemoryMatchStore) Batches() []domain.MatchBatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MatchBatch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CycleDate < out[j].CycleDate })
	return out
}

// Groups returns the committed groups of batchID, ordered by their first member.
func (s *InMemoryMatchStore) Groups(batchID uuid.UUID) []domain.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Group
	for _, g := range s.groups {
		if g.BatchID == batchID {
			cp := *g
			cp.MemberIDs = append([]uuid.UUID(nil), g.MemberIDs...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return domain.LessID(out[i].MemberIDs[0], out[j].MemberIDs[0]) })
	return out
}

// Memberships returns all committed memberships.
func (s *InMemoryMatchStore) Memberships() []domain.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Membership(nil), s.memberships...)
}

// Member returns the stored profile for id.
func (s *InMemoryMatchStore) Member(id uuid.UUID) (domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	return cloneMember(m), ok
}

type stagedGroup struct {
	group       domain.Group
	memberships []domain.Membership
}

type inMemoryBatchWriter struct {
	store   *InMemoryMatchStore
	cycle   domain.CycleDate
	batchID uuid.UUID
	groups  []stagedGroup
	matched map[uuid.UUID]time.Time
	inserts int
	done    bool
}

func (w *inMemoryBatchWriter) InsertGroup(
	_ context.Context,
	group *domain.Group,
	memberships []domain.Membership,
) error {
	if w.done {
		return store.ErrTransactionFailed
	}
	if err := group.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if group.BatchID != w.batchID {
		return fmt.Errorf("%w: group %s belongs to batch %s", store.ErrInvalidEntity, group.ID, group.BatchID)
	}

	w.store.mu.Lock()
	injected, after := w.store.InsertGroupErr, w.store.FailInsertAfter
	w.store.mu.Unlock()
	if injected != nil && w.inserts >= after {
		return injected
	}

	cp := *group
	cp.MemberIDs = append([]uuid.UUID(nil), group.MemberIDs...)
	w.groups = append(w.groups, stagedGroup{
		group:       cp,
		memberships: append([]domain.Membership(nil), memberships...),
	})
	w.inserts++
	return nil
}

func (w *inMemoryBatchWriter) MarkMatched(_ context.Context, ids []uuid.UUID, at time.Time) error {
	if w.done {
		return store.ErrTransactionFailed
	}

	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	if w.store.MarkMatchedErr != nil {
		return w.store.MarkMatchedErr
	}
	for _, id := range ids {
		if _, ok := w.store.members[id]; !ok {
			return fmt.Errorf("%w: %s", store.ErrMemberNotFound, id)
		}
	}
	for _, id := range ids {
		w.matched[id] = at.UTC()
	}
	return nil
}

func (w *inMemoryBatchWriter) Commit(_ context.Context, batch *domain.MatchBatch) error {
	if w.done {
		return store.ErrTransactionFailed
	}

	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CommitCalls++
	if s.CommitErr != nil {
		return s.CommitErr
	}
	if batch.ID != w.batchID {
		return fmt.Errorf("%w: commit of batch %s on writer for %s", store.ErrInvalidEntity, batch.ID, w.batchID)
	}

	cp := *batch
	s.batches[w.cycle] = &cp
	delete(s.pending, w.cycle)
	for _, sg := range w.groups {
		g := sg.group
		s.groups[g.ID] = &g
		s.memberships = append(s.memberships, sg.memberships...)
	}
	for id, at := range w.matched {
		m := s.members[id]
		t := at
		m.LastMatchedAt = &t
		s.members[id] = m
	}

	w.done = true
	return nil
}

func (w *inMemoryBatchWriter) Rollback(_ context.Context) error {
	if w.done {
		return nil
	}

	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	w.store.RollbackCalls++
	delete(w.store.pending, w.cycle)
	w.groups = nil
	w.matched = nil
	w.done = true
	return nil
}

func cloneMember(m domain.Member) domain.Member {
	m.Interests = append([]string(nil), m.Interests...)
	m.AvailabilitySlots = append([]string(nil), m.AvailabilitySlots...)
	if m.LastMatchedAt != nil {
		t := *m.LastMatchedAt
		m.LastMatchedAt = &t
	}
	return m
}
