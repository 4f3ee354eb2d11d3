// Package tracking implements the process-wide change ledger the registries
// report mutations to.  Consumers (simulation bridges, display layers) poll
// Changes() to learn "what changed since last sync"; the core only emits
// reason codes and never interprets them.
package tracking

import (
	"github.com/google/uuid"

	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/prometheus"
)

// Reason tags a recorded change with why it happened.
type Reason string

const (
	ReasonCreated               Reason = "created"
	ReasonTargetChanged         Reason = "target_changed"
	ReasonSpringConstantChanged Reason = "spring_constant_changed"
	ReasonEnabledChanged        Reason = "enabled_changed"
	ReasonDeleted               Reason = "deleted"
)

// ManagerID identifies a registered manager within the ledger.
type ManagerID string

// Change is one recorded mutation: which manager reported it, which entity
// it concerns (an opaque handle the consumer resolves itself), and why.
type Change struct {
	Manager ManagerID
	Entity  interface{}
	Reason  Reason
}

// Tracker is the change ledger.  A single instance is shared by all
// registries attached to one structure; every mutating accessor on an entity
// funnels through its owning registry, which reports here.
type Tracker struct {
	managers map[ManagerID]string
	changes  []Change
	metrics  *prometheus.Metrics
}

// NewTracker creates an empty ledger.  metrics may be nil.
func NewTracker(metrics *prometheus.Metrics) *Tracker {
	return &Tracker{
		managers: make(map[ManagerID]string),
		metrics:  metrics,
	}
}

// RegisterManager assigns a ledger identity to a manager.  Each registry
// calls this exactly once at construction, with a human-readable name used
// in metrics labels.
func (t *Tracker) RegisterManager(name string) ManagerID {
	id := ManagerID(uuid.NewString())
	t.managers[id] = name
	return id
}

// ManagerName resolves a ManagerID back to its registered name, or "".
func (t *Tracker) ManagerName(id ManagerID) string {
	return t.managers[id]
}

// TrackChange appends one mutation record.  Unregistered manager IDs are
// still recorded; the ledger is an append-only diagnostic surface, not a
// gatekeeper.
func (t *Tracker) TrackChange(mgr ManagerID, entity interface{}, reason Reason) {
	t.changes = append(t.changes, Change{Manager: mgr, Entity: entity, Reason: reason})
	if t.metrics != nil {
		t.metrics.TrackedChanges.WithLabelValues(t.managers[mgr], string(reason)).Inc()
	}
}

// Changes returns the mutations recorded since the last Clear, oldest first.
// The returned slice is a snapshot; subsequent TrackChange calls do not
// mutate it.
func (t *Tracker) Changes() []Change {
	out := make([]Change, len(t.changes))
	copy(out, t.changes)
	return out
}

// ChangesFor returns the recorded mutations reported by one manager.
func (t *Tracker) ChangesFor(mgr ManagerID) []Change {
	var out []Change
	for _, c := range t.changes {
		if c.Manager == mgr {
			out = append(out, c)
		}
	}
	return out
}

// Clear discards all recorded changes.  Consumers call this after a sync.
func (t *Tracker) Clear() {
	t.changes = t.changes[:0]
}
