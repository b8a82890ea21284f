package matching

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
	"github.com/phrazzld/huddle-api/internal/platform/logger"
)

// Proposal is a group chosen by the assembler, before it is given an id and
// persisted. MemberIDs are sorted ascending.
type Proposal struct {
	MemberIDs            []uuid.UUID
	AverageCompatibility float64
	// Contributions holds each member's mean score with the rest of the group.
	Contributions map[uuid.UUID]float64
}

// AssemblyResult is the outcome of one assembly run.
type AssemblyResult struct {
	Groups    []Proposal
	Leftovers []domain.Member
}

// UsersMatched returns how many members were placed in a group.
func (r *AssemblyResult) UsersMatched() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.MemberIDs)
	}
	return n
}

// AverageCompatibility returns the mean of the groups' average scores, or 0
// when no group was formed.
func (r *AssemblyResult) AverageCompatibility() float64 {
	if len(r.Groups) == 0 {
		return 0
	}
	total := 0.0
	for _, g := range r.Groups {
		total += g.AverageCompatibility
	}
	return total / float64(len(r.Groups))
}

// Assembler builds groups from an eligible pool.
//
// The algorithm is greedy and deterministic. While enough unassigned members
// remain, it picks the strongest remaining member as seed, looks at the
// seed's NeighborhoodSize best compatible partners, and chooses the subset
// with the highest average pairwise score that respects specialty
// preferences, gender balance and MinCompatibility. A seed for which no
// subset qualifies is deferred: it is never seeded again but stays available
// as a partner. Ties are always broken by lowest member id.
//
// Group size prefers MaxGroupSize, but never at the cost of stranding
// members: a size that would leave between 1 and MinGroupSize-1 members
// behind is tried last. Six remaining members are therefore tried as 3+3
// before 4+2.
type Assembler struct {
	params *Params
	scorer Scorer
	logger *slog.Logger
}

// NewAssembler creates an Assembler.
// Returns a configuration error if params are invalid.
func NewAssembler(params *Params, scorer Scorer, logger *slog.Logger) (*Assembler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, domain.NewConfigurationError("new_assembler", "scorer cannot be nil", nil)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Assembler{
		params: params,
		scorer: scorer,
		logger: logger.With(slog.String("component", "group_assembler")),
	}, nil
}

// Assemble partitions pool into groups and leftovers. Finding few or no
// groups is not an error; the only error is context cancellation.
func (a *Assembler) Assemble(ctx context.Context, pool []domain.Member) (*AssemblyResult, error) {
	log := logger.FromContextOrDefault(ctx, a.logger)

	st := newAssemblyState(pool, a.scorer)
	result := &AssemblyResult{}

	for st.remaining >= a.params.MinGroupSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("assembly canceled: %w", err)
		}

		seed, ok := st.pickSeed(a.params.MaxGroupSize - 1)
		if !ok {
			break
		}

		best, found := a.bestGroupFor(st, seed)
		if !found {
			st.deferred[seed] = true
			log.Debug("deferring seed without a qualifying group",
				slog.String("member_id", st.pool[seed].ID.String()))
			continue
		}

		result.Groups = append(result.Groups, st.proposal(best))
		for _, idx := range best {
			st.assign(idx)
		}
	}

	for i := range st.pool {
		if !st.assigned[i] {
			result.Leftovers = append(result.Leftovers, st.pool[i])
		}
	}

	log.Debug("assembly complete",
		slog.Int("pool_size", len(pool)),
		slog.Int("groups", len(result.Groups)),
		slog.Int("leftovers", len(result.Leftovers)))

	return result, nil
}

// bestGroupFor searches the seed's neighborhood for the best qualifying
// group, trying sizes in sizeOrder. It returns pool indices.
func (a *Assembler) bestGroupFor(st *assemblyState, seed int) ([]int, bool) {
	neighbors := st.topPartners(seed, a.params.NeighborhoodSize)

	for _, size := range a.sizeOrder(st.remaining) {
		if len(neighbors) < size-1 {
			continue
		}

		var (
			best    []int
			bestAvg float64
		)
		forEachCombination(len(neighbors), size-1, func(pick []int) {
			members := make([]int, 0, size)
			members = append(members, seed)
			for _, p := range pick {
				members = append(members, neighbors[p])
			}

			avg, ok := a.qualifies(st, members)
			if !ok {
				return
			}
			if best == nil || avg > bestAvg || (avg == bestAvg && st.lessByIDs(members, best)) {
				best = members
				bestAvg = avg
			}
		})

		if best != nil {
			return best, true
		}
	}

	return nil, false
}

// qualifies checks the hard constraints on a candidate group and returns its
// average pairwise score.
func (a *Assembler) qualifies(st *assemblyState, members []int) (float64, bool) {
	males, females := 0, 0
	for _, idx := range members {
		switch st.pool[idx].Gender {
		case domain.GenderMale:
			males++
		case domain.GenderFemale:
			females++
		}
	}
	if diff := males - females; diff > 1 || diff < -1 {
		return 0, false
	}

	total := 0.0
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if !st.compatible(members[i], members[j]) {
				return 0, false
			}
			total += st.scores[members[i]][members[j]]
			pairs++
		}
	}

	avg := total / float64(pairs)
	if avg < a.params.MinCompatibility {
		return 0, false
	}
	return avg, true
}

// sizeOrder lists the group sizes to try when remaining members are left.
// The first entry is the largest size that does not strand fewer than
// MinGroupSize members; the rest follow from largest to smallest.
func (a *Assembler) sizeOrder(remaining int) []int {
	preferred := 0
	for s := a.params.MaxGroupSize; s >= a.params.MinGroupSize; s-- {
		rest := remaining - s
		if s <= remaining && (rest == 0 || rest >= a.params.MinGroupSize) {
			preferred = s
			break
		}
	}

	order := make([]int, 0, a.params.MaxGroupSize-a.params.MinGroupSize+1)
	if preferred > 0 {
		order = append(order, preferred)
	}
	for s := a.params.MaxGroupSize; s >= a.params.MinGroupSize; s-- {
		if s != preferred && s <= remaining {
			order = append(order, s)
		}
	}
	return order
}

// assemblyState holds the score matrix and assignment bookkeeping for one
// Assemble call.
type assemblyState struct {
	pool      []domain.Member
	scores    [][]float64
	partners  [][]int // compatible partners, best score first
	assigned  []bool
	deferred  []bool
	remaining int
}

func newAssemblyState(pool []domain.Member, scorer Scorer) *assemblyState {
	n := len(pool)
	st := &assemblyState{
		pool:      pool,
		scores:    make([][]float64, n),
		partners:  make([][]int, n),
		assigned:  make([]bool, n),
		deferred:  make([]bool, n),
		remaining: n,
	}

	for i := range st.scores {
		st.scores[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := scorer.Score(&pool[i], &pool[j]).Value
			st.scores[i][j] = v
			st.scores[j][i] = v
		}
	}

	for i := 0; i < n; i++ {
		partners := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i && st.compatible(i, j) {
				partners = append(partners, j)
			}
		}
		slices.SortFunc(partners, func(x, y int) int {
			sx, sy := st.scores[i][x], st.scores[i][y]
			switch {
			case sx > sy:
				return -1
			case sx < sy:
				return 1
			default:
				return st.compareIDs(x, y)
			}
		})
		st.partners[i] = partners
	}

	return st
}

func (st *assemblyState) compatible(i, j int) bool {
	return st.pool[i].CanGroupWith(&st.pool[j])
}

func (st *assemblyState) compareIDs(i, j int) int {
	switch {
	case domain.LessID(st.pool[i].ID, st.pool[j].ID):
		return -1
	case domain.LessID(st.pool[j].ID, st.pool[i].ID):
		return 1
	default:
		return 0
	}
}

func (st *assemblyState) assign(i int) {
	if !st.assigned[i] {
		st.assigned[i] = true
		st.remaining--
	}
}

// topPartners returns up to k unassigned compatible partners of i, best
// score first.
func (st *assemblyState) topPartners(i, k int) []int {
	out := make([]int, 0, k)
	for _, j := range st.partners[i] {
		if len(out) == k {
			break
		}
		if !st.assigned[j] {
			out = append(out, j)
		}
	}
	return out
}

// pickSeed returns the unassigned, undeferred member whose k best remaining
// partner scores add up highest.
func (st *assemblyState) pickSeed(k int) (int, bool) {
	seed := -1
	seedStrength := 0.0
	for i := range st.pool {
		if st.assigned[i] || st.deferred[i] {
			continue
		}
		strength := 0.0
		for _, j := range st.topPartners(i, k) {
			strength += st.scores[i][j]
		}
		if seed < 0 || strength > seedStrength ||
			(strength == seedStrength && st.compareIDs(i, seed) < 0) {
			seed = i
			seedStrength = strength
		}
	}
	return seed, seed >= 0
}

// lessByIDs compares two candidate groups by their sorted member ids.
func (st *assemblyState) lessByIDs(a, b []int) bool {
	ids := func(members []int) []uuid.UUID {
		out := make([]uuid.UUID, len(members))
		for i, idx := range members {
			out[i] = st.pool[idx].ID
		}
		slices.SortFunc(out, compareUUID)
		return out
	}

	aIDs, bIDs := ids(a), ids(b)
	for i := 0; i < len(aIDs) && i < len(bIDs); i++ {
		if c := compareUUID(aIDs[i], bIDs[i]); c != 0 {
			return c < 0
		}
	}
	return len(aIDs) < len(bIDs)
}

func (st *assemblyState) proposal(members []int) Proposal {
	ids := make([]uuid.UUID, len(members))
	contributions := make(map[uuid.UUID]float64, len(members))
	total := 0.0
	pairs := 0

	for i, mi := range members {
		ids[i] = st.pool[mi].ID
		sum := 0.0
		for j, mj := range members {
			if i == j {
				continue
			}
			sum += st.scores[mi][mj]
			if j > i {
				total += st.scores[mi][mj]
				pairs++
			}
		}
		contributions[st.pool[mi].ID] = sum / float64(len(members)-1)
	}
	slices.SortFunc(ids, compareUUID)

	return Proposal{
		MemberIDs:            ids,
		AverageCompatibility: total / float64(pairs),
		Contributions:        contributions,
	}
}

func compareUUID(a, b uuid.UUID) int {
	switch {
	case domain.LessID(a, b):
		return -1
	case domain.LessID(b, a):
		return 1
	default:
		return 0
	}
}

// forEachCombination calls fn with every k-element subset of [0,n) in
// lexicographic order. The slice passed to fn is reused between calls.
func forEachCombination(n, k int, fn func([]int)) {
	if k < 0 || k > n {
		return
	}
	pick := make([]int, k)
	for i := range pick {
		pick[i] = i
	}
	for {
		fn(pick)

		i := k - 1
		for i >= 0 && pick[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		pick[i]++
		for j := i + 1; j < k; j++ {
			pick[j] = pick[j-1] + 1
		}
	}
}
