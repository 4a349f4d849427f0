package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Circulation counts circulation outcomes. The zero value is usable and
// records nothing until Register is called.
type Circulation struct {
	actions      *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	fines        prometheus.Counter
	overdueSwept prometheus.Counter

	registerOnce sync.Once
}

func NewCirculation(registry prometheus.Registerer) *Circulation {
	m := new(Circulation)
	m.Register(registry)
	return m
}

// Register is idempotent; a nil registry leaves the metrics disabled.
func (m *Circulation) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.actions = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "elibrary_circulation_actions_total",
			Help: "Total number of committed circulation actions",
		}, []string{"action"})

		m.rejections = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "elibrary_circulation_rejections_total",
			Help: "Total number of circulation actions rejected by policy",
		}, []string{"action", "kind"})

		m.fines = factory.NewCounter(prometheus.CounterOpts{
			Name: "elibrary_circulation_fines_amount_total",
			Help: "Sum of overdue fines charged on return",
		})

		m.overdueSwept = factory.NewCounter(prometheus.CounterOpts{
			Name: "elibrary_loans_marked_overdue_total",
			Help: "Total number of loans marked overdue by the sweeper",
		})
	})
}

func (m *Circulation) IncAction(action string) {
	if m != nil && m.actions != nil {
		m.actions.WithLabelValues(action).Inc()
	}
}

func (m *Circulation) IncRejection(action, kind string) {
	if m != nil && m.rejections != nil {
		m.rejections.WithLabelValues(action, kind).Inc()
	}
}

func (m *Circulation) AddFine(amount int64) {
	if m != nil && m.fines != nil && amount > 0 {
		m.fines.Add(float64(amount))
	}
}

func (m *Circulation) AddOverdue(n int64) {
	if m != nil && m.overdueSwept != nil && n > 0 {
		m.overdueSwept.Add(float64(n))
	}
}
