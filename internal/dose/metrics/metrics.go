package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the dose module.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	GuardFailures *prometheus.CounterVec
	DosesAdded    prometheus.Counter
}

// New creates a Metrics instance with all dose module metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetcore_dose_transitions_total",
			Help: "Dose lifecycle transitions by operation",
		}, []string{"operation"}),
		GuardFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetcore_dose_guard_failures_total",
			Help: "Dose transitions rejected by a state guard, by error code",
		}, []string{"code"}),
		DosesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vetcore_doses_added_total",
			Help: "Doses added manually to an assignment",
		}),
	}
}

// IncrementTransition records a completed lifecycle operation.
func (m *Metrics) IncrementTransition(operation string) {
	m.Transitions.WithLabelValues(operation).Inc()
}

// IncrementGuardFailure records a state-guard rejection.
func (m *Metrics) IncrementGuardFailure(code string) {
	m.GuardFailures.WithLabelValues(code).Inc()
}

// IncrementDosesAdded records a manual dose addition.
func (m *Metrics) IncrementDosesAdded() {
	m.DosesAdded.Inc()
}
