// Package metrics exposes Prometheus instrumentation for matching cycles.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "huddle"

// Cycle outcomes used as the "outcome" label.
const (
	OutcomeCompleted     = "completed"
	OutcomeConflict      = "conflict"
	OutcomeConfiguration = "configuration"
	OutcomeFailed        = "failed"
)

// CycleMetrics records what each matching cycle did.
type CycleMetrics struct {
	cycles        *prometheus.CounterVec
	duration      prometheus.Histogram
	groupsCreated prometheus.Counter
	usersMatched  prometheus.Counter
	eligiblePool  prometheus.Gauge
	compatibility prometheus.Gauge
	excluded      *prometheus.CounterVec
	eventsDropped prometheus.Counter
}

// NewCycleMetrics registers the cycle collectors with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCycleMetrics(reg prometheus.Registerer) *CycleMetrics {
	factory := promauto.With(reg)

	return &CycleMetrics{
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_cycles_total",
				Help:      "Total number of matching cycles by outcome",
			},
			[]string{"outcome"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_cycle_duration_seconds",
				Help:      "Duration of matching cycles in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		groupsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "groups_created_total",
				Help:      "Total number of groups committed",
			},
		),
		usersMatched: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "users_matched_total",
				Help:      "Total number of members placed in a group",
			},
		),
		eligiblePool: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "eligible_pool_size",
				Help:      "Number of eligible members in the last committed cycle",
			},
		),
		compatibility: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "average_group_compatibility",
				Help:      "Mean group compatibility of the last committed cycle",
			},
		),
		excluded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "members_excluded_total",
				Help:      "Total number of members excluded from a cycle by reason",
			},
			[]string{"reason"},
		),
		eventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "group_events_dropped_total",
				Help:      "Total number of group formed events that could not be emitted",
			},
		),
	}
}

// CycleFinished counts a cycle with the given outcome and its duration.
func (m *CycleMetrics) CycleFinished(outcome string, d time.Duration) {
	m.cycles.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

// BatchCommitted records the counts of a committed batch.
func (m *CycleMetrics) BatchCommitted(eligible, groups, users int, avgCompatibility float64) {
	m.eligiblePool.Set(float64(eligible))
	m.groupsCreated.Add(float64(groups))
	m.usersMatched.Add(float64(users))
	m.compatibility.Set(avgCompatibility)
}

// MembersExcluded counts n members excluded for reason.
func (m *CycleMetrics) MembersExcluded(reason string, n int) {
	if n <= 0 {
		return
	}
	m.excluded.WithLabelValues(reason).Add(float64(n))
}

// EventDropped counts one notification that could not be emitted.
func (m *CycleMetrics) EventDropped() {
	m.eventsDropped.Inc()
}
