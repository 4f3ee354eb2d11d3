// Package prometheus holds the metric instruments the registries and the
// interpolation engine report into.  All instruments are registered against a
// caller-supplied registerer so that tests can use an isolated registry.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument the library emits.  A nil *Metrics is
// accepted everywhere and disables reporting.
type Metrics struct {
	// EntitiesCreated counts entity creations per manager.
	EntitiesCreated *prometheus.CounterVec

	// EntitiesDeleted counts entity deletions per manager and trigger
	// ("batch" for explicit deletes, "destruction" for notification-driven
	// purges).
	EntitiesDeleted *prometheus.CounterVec

	// DestructionBatches counts destruction-notification batches processed
	// per manager.
	DestructionBatches *prometheus.CounterVec

	// TrackedChanges counts change-ledger records per manager and reason.
	TrackedChanges *prometheus.CounterVec

	// InterpolationQueries counts grid-interpolator point lookups.
	InterpolationQueries prometheus.Counter
}

// NewMetrics constructs and registers all instruments.  Passing
// prometheus.DefaultRegisterer gives the conventional process-global
// behaviour; tests pass prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EntitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "molval",
			Name:      "entities_created_total",
			Help:      "Derived entities (dihedrals, restraints) created, by manager.",
		}, []string{"manager"}),
		EntitiesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "molval",
			Name:      "entities_deleted_total",
			Help:      "Derived entities deleted, by manager and trigger.",
		}, []string{"manager", "trigger"}),
		DestructionBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "molval",
			Name:      "destruction_batches_total",
			Help:      "Destruction-notification batches processed, by manager.",
		}, []string{"manager"}),
		TrackedChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "molval",
			Name:      "tracked_changes_total",
			Help:      "Change-ledger records, by manager and reason.",
		}, []string{"manager", "reason"}),
		InterpolationQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "molval",
			Name:      "interpolation_queries_total",
			Help:      "Grid-interpolator point lookups.",
		}),
	}
	reg.MustRegister(
		m.EntitiesCreated,
		m.EntitiesDeleted,
		m.DestructionBatches,
		m.TrackedChanges,
		m.InterpolationQueries,
	)
	return m
}

// ObserveCreated is a nil-safe helper for entity creation.
func (m *Metrics) ObserveCreated(manager string) {
	if m == nil {
		return
	}
	m.EntitiesCreated.WithLabelValues(manager).Inc()
}

// ObserveDeleted is a nil-safe helper for entity deletion.
func (m *Metrics) ObserveDeleted(manager, trigger string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.EntitiesDeleted.WithLabelValues(manager, trigger).Add(float64(n))
}

// ObserveDestructionBatch is a nil-safe helper for batch processing.
func (m *Metrics) ObserveDestructionBatch(manager string) {
	if m == nil {
		return
	}
	m.DestructionBatches.WithLabelValues(manager).Inc()
}
