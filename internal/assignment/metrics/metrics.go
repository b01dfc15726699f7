package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the assignment module.
// Tracks assignment lifecycle counts and the provisioning critical path.
type Metrics struct {
	AssignmentsCreated prometheus.Counter
	AssignmentConflicts prometheus.Counter
	StatusTransitions  *prometheus.CounterVec
	DosesProvisioned   prometheus.Counter
	AssignDuration     prometheus.Histogram
}

// New creates a Metrics instance with all assignment module metrics registered.
func New() *Metrics {
	return &Metrics{
		AssignmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vetcore_assignments_created_total",
			Help: "Total number of plan assignments created",
		}),
		AssignmentConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vetcore_assignment_conflicts_total",
			Help: "Assignment creations rejected because an active assignment already exists",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetcore_assignment_status_transitions_total",
			Help: "Assignment status transitions by target status",
		}, []string{"to"}),
		DosesProvisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vetcore_doses_provisioned_total",
			Help: "Doses created by protocol provisioning",
		}),
		AssignDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetcore_assign_duration_seconds",
			Help:    "Duration of Assign operations (catalog fetch plus provisioning)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementAssignmentsCreated records a successful assignment creation.
func (m *Metrics) IncrementAssignmentsCreated() {
	m.AssignmentsCreated.Inc()
}

// IncrementAssignmentConflicts records a duplicate-active rejection.
func (m *Metrics) IncrementAssignmentConflicts() {
	m.AssignmentConflicts.Inc()
}

// IncrementStatusTransition records a transition into the given status.
func (m *Metrics) IncrementStatusTransition(to string) {
	m.StatusTransitions.WithLabelValues(to).Inc()
}

// AddDosesProvisioned records the dose count of a provisioning run.
func (m *Metrics) AddDosesProvisioned(n int) {
	m.DosesProvisioned.Add(float64(n))
}

// ObserveAssign records the duration of an Assign operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAssign(start time.Time) {
	m.AssignDuration.Observe(time.Since(start).Seconds())
}
