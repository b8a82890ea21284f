package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleMetrics_CycleFinished(t *testing.T) {
	t.Parallel()

	m := NewCycleMetrics(prometheus.NewRegistry())

	m.CycleFinished(OutcomeCompleted, 150*time.Millisecond)
	m.CycleFinished(OutcomeCompleted, 2*time.Second)
	m.CycleFinished(OutcomeConflict, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycles.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.cycles.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestCycleMetrics_BatchCommitted(t *testing.T) {
	t.Parallel()

	m := NewCycleMetrics(prometheus.NewRegistry())

	m.BatchCommitted(9, 2, 8, 0.7)
	m.BatchCommitted(6, 2, 6, 0.5)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.eligiblePool))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.groupsCreated))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.usersMatched))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.compatibility))
}

func TestCycleMetrics_MembersExcluded(t *testing.T) {
	t.Parallel()

	m := NewCycleMetrics(prometheus.NewRegistry())

	m.MembersExcluded("cooldown", 3)
	m.MembersExcluded("cooldown", 0)
	m.MembersExcluded("unpaid", 1)
	m.EventDropped()

	expected := `
# HELP huddle_members_excluded_total Total number of members excluded from a cycle by reason
# TYPE huddle_members_excluded_total counter
huddle_members_excluded_total{reason="cooldown"} 3
huddle_members_excluded_total{reason="unpaid"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.excluded, strings.NewReader(expected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsDropped))
}

func TestNewCycleMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	NewCycleMetrics(reg)
	assert.Panics(t, func() { NewCycleMetrics(reg) })
}
