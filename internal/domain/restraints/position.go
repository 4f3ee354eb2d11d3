// Package restraints implements destruction-safe registries for position and
// distance restraints over a single structure.  A restraint couples one or
// two atoms to a target with a harmonic spring constant; managers own the
// restraints, keep their indices consistent with atom lifetime, and report
// every state transition to the change tracker.
package restraints

import (
	"fmt"

	"github.com/turtacn/MolVal-Engine/internal/domain/geometry"
	"github.com/turtacn/MolVal-Engine/internal/domain/structure"
	"github.com/turtacn/MolVal-Engine/internal/domain/tracking"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

// DefaultMaxLinearSpringConstant caps the spring constant of position and
// distance restraints, in kJ mol⁻¹ nm⁻².  Values above the cap destabilise
// a simulation long before they improve the fit.
const DefaultMaxLinearSpringConstant = 100000.0

// DefaultMinDistanceTarget is the floor applied to distance-restraint
// targets, in Å.  Shorter targets drive atom pairs into nuclear overlap.
const DefaultMinDistanceTarget = 1.0

const positionManagerName = "position_restraint_mgr"

// PositionRestraint pins one atom toward a fixed point in space.  Restraints
// are created through a PositionRestraintMgr, never directly, and start
// disabled with a zero spring constant.
type PositionRestraint struct {
	atom    *structure.Atom
	target  geometry.Vec3
	k       float64
	enabled bool
	mgr     *PositionRestraintMgr
}

// Atom returns the restrained atom.
func (r *PositionRestraint) Atom() *structure.Atom { return r.atom }

// Target returns the target position.
func (r *PositionRestraint) Target() geometry.Vec3 { return r.target }

// SetTarget moves the target position and reports the change.
func (r *PositionRestraint) SetTarget(t geometry.Vec3) {
	r.target = t
	r.track(tracking.ReasonTargetChanged)
}

// TargetVector returns the displacement from the atom's current position to
// the target.
func (r *PositionRestraint) TargetVector() geometry.Vec3 {
	return r.target.Sub(r.atom.Coord())
}

// SpringConstant returns the current spring constant.
func (r *PositionRestraint) SpringConstant() float64 { return r.k }

// SetSpringConstant sets the spring constant, silently clamping to
// [0, max].  Clamping rather than erroring keeps slider-style callers simple.
func (r *PositionRestraint) SetSpringConstant(k float64) {
	max := DefaultMaxLinearSpringConstant
	if r.mgr != nil {
		max = r.mgr.maxSpringConstant
	}
	if k < 0 {
		k = 0
	} else if k > max {
		k = max
	}
	r.k = k
	r.track(tracking.ReasonSpringConstantChanged)
}

// Enabled reports whether the restraint currently applies force.
func (r *PositionRestraint) Enabled() bool { return r.enabled }

// SetEnabled switches the restraint on or off.  Only an actual transition
// is reported.
func (r *PositionRestraint) SetEnabled(enabled bool) {
	if r.enabled == enabled {
		return
	}
	r.enabled = enabled
	r.track(tracking.ReasonEnabledChanged)
}

// Visible reports whether the restraint should be drawn: its atom is visible
// and the restraint is enabled.
func (r *PositionRestraint) Visible() bool {
	return r.enabled && r.atom.Visible()
}

func (r *PositionRestraint) track(reason tracking.Reason) {
	if r.mgr != nil && r.mgr.tracker != nil {
		r.mgr.tracker.TrackChange(r.mgr.trackerID, r, reason)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// PositionRestraintMgr
// ─────────────────────────────────────────────────────────────────────────────

// PositionRestraintMgr owns at most one position restraint per atom of its
// structure.  It subscribes to the destruction feed at construction so that
// restraints on destroyed atoms are purged before any caller can observe a
// stale reference.
type PositionRestraintMgr struct {
	structure *structure.Structure
	tracker   *tracking.Tracker
	trackerID tracking.ManagerID
	logger    logging.Logger
	metrics   *prometheus.Metrics

	maxSpringConstant float64

	restraints map[*structure.Atom]*PositionRestraint
}

// NewPositionRestraintMgr constructs a registry bound to one structure.
// tracker and metrics may be nil; a nil logger is replaced by a no-op.
func NewPositionRestraintMgr(s *structure.Structure, tracker *tracking.Tracker, logger logging.Logger, metrics *prometheus.Metrics) *PositionRestraintMgr {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := &PositionRestraintMgr{
		structure:         s,
		tracker:           tracker,
		logger:            logger.Named("position_restraints"),
		metrics:           metrics,
		maxSpringConstant: DefaultMaxLinearSpringConstant,
		restraints:        make(map[*structure.Atom]*PositionRestraint),
	}
	if tracker != nil {
		m.trackerID = tracker.RegisterManager(positionManagerName)
	}
	s.Subscribe(m)
	return m
}

// Close unsubscribes the manager from the destruction feed.
func (m *PositionRestraintMgr) Close() {
	m.structure.Unsubscribe(m)
}

// Structure returns the structure this registry is bound to.
func (m *PositionRestraintMgr) Structure() *structure.Structure { return m.structure }

// SetMaxSpringConstant overrides the clamp ceiling.  Negative values are
// treated as 0.
func (m *PositionRestraintMgr) SetMaxSpringConstant(k float64) {
	if k < 0 {
		k = 0
	}
	m.maxSpringConstant = k
}

// Restraint returns the restraint for an atom, creating one when create is
// true.  Creation rejects hydrogens (their positions are riding, a restraint
// would fight the parent heavy atom) and atoms of a different structure.
// Absence without create is NotFound.
func (m *PositionRestraintMgr) Restraint(a *structure.Atom, create bool) (*PositionRestraint, error) {
	if a == nil {
		return nil, errors.InvalidParam("atom must not be nil")
	}
	if r, ok := m.restraints[a]; ok {
		return r, nil
	}
	if !create {
		return nil, errors.New(errors.CodeRestraintNotFound,
			fmt.Sprintf("no position restraint on atom %s", a.Name()))
	}
	if a.Structure() != m.structure {
		return nil, errors.New(errors.CodeAtomWrongStructure,
			fmt.Sprintf("atom %s does not belong to this structure", a.Name()))
	}
	if a.IsHydrogen() {
		return nil, errors.New(errors.CodeAtomHydrogen,
			fmt.Sprintf("cannot restrain hydrogen atom %s", a.Name()))
	}
	r := &PositionRestraint{
		atom:   a,
		target: a.Coord(),
		mgr:    m,
	}
	m.restraints[a] = r
	if m.tracker != nil {
		m.tracker.TrackChange(m.trackerID, r, tracking.ReasonCreated)
	}
	m.metrics.ObserveCreated(positionManagerName)
	m.logger.Debug("position restraint created", logging.String("atom", a.Name()))
	return r, nil
}

// DeleteRestraints removes a batch of restraints.  Already-absent entries
// are skipped.
func (m *PositionRestraintMgr) DeleteRestraints(batch []*PositionRestraint) {
	deleted := 0
	for _, r := range batch {
		if r == nil {
			continue
		}
		if m.restraints[r.atom] != r {
			continue
		}
		delete(m.restraints, r.atom)
		r.mgr = nil
		deleted++
		if m.tracker != nil {
			m.tracker.TrackChange(m.trackerID, r, tracking.ReasonDeleted)
		}
	}
	m.metrics.ObserveDeleted(positionManagerName, "batch", deleted)
}

// DestructorsDone implements structure.DestructionObserver.  Restraints on
// destroyed atoms are purged; this path never fails.
func (m *PositionRestraintMgr) DestructorsDone(destroyed *structure.Destroyed) {
	purged := 0
	for a := range destroyed.Atoms {
		if r, ok := m.restraints[a]; ok {
			delete(m.restraints, a)
			r.mgr = nil
			purged++
			if m.tracker != nil {
				m.tracker.TrackChange(m.trackerID, r, tracking.ReasonDeleted)
			}
		}
	}
	m.metrics.ObserveDeleted(positionManagerName, "destruction", purged)
	m.metrics.ObserveDestructionBatch(positionManagerName)
}

// NumRestraints returns the number of restraints in the registry.
func (m *PositionRestraintMgr) NumRestraints() int { return len(m.restraints) }

// VisibleRestraints returns the restraints that should currently be drawn.
func (m *PositionRestraintMgr) VisibleRestraints() []*PositionRestraint {
	out := make([]*PositionRestraint, 0, len(m.restraints))
	for _, r := range m.restraints {
		if r.Visible() {
			out = append(out, r)
		}
	}
	return out
}
