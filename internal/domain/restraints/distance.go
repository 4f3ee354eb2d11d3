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

const distanceManagerName = "distance_restraint_mgr"

// DistanceRestraint couples an unordered pair of atoms toward a target
// separation.  The pair is normalized at creation, so the same two atoms in
// either order address the same restraint.
type DistanceRestraint struct {
	atoms   [2]*structure.Atom
	target  float64
	k       float64
	enabled bool
	mgr     *DistanceRestraintMgr
}

// Atoms returns the restrained pair in normalized order.
func (r *DistanceRestraint) Atoms() [2]*structure.Atom { return r.atoms }

// Distance returns the current separation of the pair, from live
// coordinates.
func (r *DistanceRestraint) Distance() float64 {
	return geometry.Distance(r.atoms[0].Coord(), r.atoms[1].Coord())
}

// Target returns the target separation.
func (r *DistanceRestraint) Target() float64 { return r.target }

// SetTarget sets the target separation, silently clamping to at least the
// minimum distance target.
func (r *DistanceRestraint) SetTarget(t float64) {
	min := DefaultMinDistanceTarget
	if r.mgr != nil {
		min = r.mgr.minDistanceTarget
	}
	if t < min {
		t = min
	}
	r.target = t
	r.track(tracking.ReasonTargetChanged)
}

// SpringConstant returns the current spring constant.
func (r *DistanceRestraint) SpringConstant() float64 { return r.k }

// SetSpringConstant sets the spring constant, silently clamping to [0, max].
func (r *DistanceRestraint) SetSpringConstant(k float64) {
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
func (r *DistanceRestraint) Enabled() bool { return r.enabled }

// SetEnabled switches the restraint on or off and reports only actual
// transitions.
func (r *DistanceRestraint) SetEnabled(enabled bool) {
	if r.enabled == enabled {
		return
	}
	r.enabled = enabled
	r.track(tracking.ReasonEnabledChanged)
}

// Visible reports whether the restraint should be drawn: both atoms visible
// and the restraint enabled.
func (r *DistanceRestraint) Visible() bool {
	return r.enabled && r.atoms[0].Visible() && r.atoms[1].Visible()
}

func (r *DistanceRestraint) track(reason tracking.Reason) {
	if r.mgr != nil && r.mgr.tracker != nil {
		r.mgr.tracker.TrackChange(r.mgr.trackerID, r, reason)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// DistanceRestraintMgr
// ─────────────────────────────────────────────────────────────────────────────

// pairKey identifies an unordered atom pair, lower atom ID first.  The key
// holds the pointers rather than the IDs: ID counters are per structure, so
// atoms of an unrelated structure could otherwise alias a pair in this map.
type pairKey struct {
	lo, hi *structure.Atom
}

func keyFor(a1, a2 *structure.Atom) pairKey {
	if a1.ID() < a2.ID() {
		return pairKey{lo: a1, hi: a2}
	}
	return pairKey{lo: a2, hi: a1}
}

// DistanceRestraintMgr owns at most one distance restraint per unordered
// atom pair of its structure.  Alongside the pair map it keeps an atom→set
// index so that destroying one atom locates every dependent restraint
// without a full scan.
type DistanceRestraintMgr struct {
	structure *structure.Structure
	tracker   *tracking.Tracker
	trackerID tracking.ManagerID
	logger    logging.Logger
	metrics   *prometheus.Metrics

	maxSpringConstant float64
	minDistanceTarget float64

	restraints map[pairKey]*DistanceRestraint
	atomMap    map[*structure.Atom]map[*DistanceRestraint]struct{}
}

// NewDistanceRestraintMgr constructs a registry bound to one structure.
// tracker and metrics may be nil; a nil logger is replaced by a no-op.
func NewDistanceRestraintMgr(s *structure.Structure, tracker *tracking.Tracker, logger logging.Logger, metrics *prometheus.Metrics) *DistanceRestraintMgr {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := &DistanceRestraintMgr{
		structure:         s,
		tracker:           tracker,
		logger:            logger.Named("distance_restraints"),
		metrics:           metrics,
		maxSpringConstant: DefaultMaxLinearSpringConstant,
		minDistanceTarget: DefaultMinDistanceTarget,
		restraints:        make(map[pairKey]*DistanceRestraint),
		atomMap:           make(map[*structure.Atom]map[*DistanceRestraint]struct{}),
	}
	if tracker != nil {
		m.trackerID = tracker.RegisterManager(distanceManagerName)
	}
	s.Subscribe(m)
	return m
}

// Close unsubscribes the manager from the destruction feed.
func (m *DistanceRestraintMgr) Close() {
	m.structure.Unsubscribe(m)
}

// Structure returns the structure this registry is bound to.
func (m *DistanceRestraintMgr) Structure() *structure.Structure { return m.structure }

// SetMaxSpringConstant overrides the spring-constant clamp ceiling.
func (m *DistanceRestraintMgr) SetMaxSpringConstant(k float64) {
	if k < 0 {
		k = 0
	}
	m.maxSpringConstant = k
}

// SetMinDistanceTarget overrides the target floor.  Values below zero are
// treated as zero.
func (m *DistanceRestraintMgr) SetMinDistanceTarget(d float64) {
	if d < 0 {
		d = 0
	}
	m.minDistanceTarget = d
}

// Restraint returns the restraint for an unordered atom pair, creating one
// when create is true.  Creation rejects identical atoms, atoms of a
// different structure and directly bonded pairs, whose separation is already
// governed by the bond itself.  Absence without create is NotFound.
func (m *DistanceRestraintMgr) Restraint(a1, a2 *structure.Atom, create bool) (*DistanceRestraint, error) {
	if a1 == nil || a2 == nil {
		return nil, errors.InvalidParam("both atoms must be non-nil")
	}
	if a1 == a2 {
		return nil, errors.InvalidParam("cannot restrain an atom to itself")
	}
	key := keyFor(a1, a2)
	if r, ok := m.restraints[key]; ok {
		return r, nil
	}
	if !create {
		return nil, errors.New(errors.CodeRestraintNotFound,
			fmt.Sprintf("no distance restraint between %s and %s", a1.Name(), a2.Name()))
	}
	if a1.Structure() != m.structure || a2.Structure() != m.structure {
		return nil, errors.New(errors.CodeAtomWrongStructure, "both atoms must belong to this structure")
	}
	if a1.IsBondedTo(a2) {
		return nil, errors.New(errors.CodeAtomsBonded,
			fmt.Sprintf("atoms %s and %s are directly bonded", a1.Name(), a2.Name()))
	}
	atoms := [2]*structure.Atom{a1, a2}
	if a1.ID() > a2.ID() {
		atoms[0], atoms[1] = a2, a1
	}
	r := &DistanceRestraint{
		atoms:  atoms,
		target: m.minDistanceTarget,
		mgr:    m,
	}
	m.restraints[key] = r
	m.indexAtom(atoms[0], r)
	m.indexAtom(atoms[1], r)
	if m.tracker != nil {
		m.tracker.TrackChange(m.trackerID, r, tracking.ReasonCreated)
	}
	m.metrics.ObserveCreated(distanceManagerName)
	m.logger.Debug("distance restraint created",
		logging.String("atom1", atoms[0].Name()),
		logging.String("atom2", atoms[1].Name()))
	return r, nil
}

func (m *DistanceRestraintMgr) indexAtom(a *structure.Atom, r *DistanceRestraint) {
	set, ok := m.atomMap[a]
	if !ok {
		set = make(map[*DistanceRestraint]struct{})
		m.atomMap[a] = set
	}
	set[r] = struct{}{}
}

func (m *DistanceRestraintMgr) unindexAtom(a *structure.Atom, r *DistanceRestraint) {
	if set, ok := m.atomMap[a]; ok {
		delete(set, r)
		if len(set) == 0 {
			delete(m.atomMap, a)
		}
	}
}

// RestraintsForAtom returns every restraint depending on an atom.
func (m *DistanceRestraintMgr) RestraintsForAtom(a *structure.Atom) []*DistanceRestraint {
	set := m.atomMap[a]
	out := make([]*DistanceRestraint, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	return out
}

// DeleteRestraints removes a batch of restraints.  Already-absent entries
// are skipped.
func (m *DistanceRestraintMgr) DeleteRestraints(batch []*DistanceRestraint) {
	deleted := 0
	for _, r := range batch {
		if r == nil {
			continue
		}
		key := keyFor(r.atoms[0], r.atoms[1])
		if m.restraints[key] != r {
			continue
		}
		m.remove(key, r)
		deleted++
		if m.tracker != nil {
			m.tracker.TrackChange(m.trackerID, r, tracking.ReasonDeleted)
		}
	}
	m.metrics.ObserveDeleted(distanceManagerName, "batch", deleted)
}

func (m *DistanceRestraintMgr) remove(key pairKey, r *DistanceRestraint) {
	delete(m.restraints, key)
	m.unindexAtom(r.atoms[0], r)
	m.unindexAtom(r.atoms[1], r)
	r.mgr = nil
}

// DestructorsDone implements structure.DestructionObserver.  A destroyed
// atom removes its own index bucket, every dependent restraint from the pair
// map, and each of those restraints from the surviving partner's bucket.
func (m *DistanceRestraintMgr) DestructorsDone(destroyed *structure.Destroyed) {
	purged := 0
	for a := range destroyed.Atoms {
		for r := range m.atomMap[a] {
			m.remove(keyFor(r.atoms[0], r.atoms[1]), r)
			purged++
			if m.tracker != nil {
				m.tracker.TrackChange(m.trackerID, r, tracking.ReasonDeleted)
			}
		}
		delete(m.atomMap, a)
	}
	m.metrics.ObserveDeleted(distanceManagerName, "destruction", purged)
	m.metrics.ObserveDestructionBatch(distanceManagerName)
}

// NumRestraints returns the number of restraints in the registry.
func (m *DistanceRestraintMgr) NumRestraints() int { return len(m.restraints) }

// VisibleRestraints returns the restraints that should currently be drawn.
func (m *DistanceRestraintMgr) VisibleRestraints() []*DistanceRestraint {
	out := make([]*DistanceRestraint, 0, len(m.restraints))
	for _, r := range m.restraints {
		if r.Visible() {
			out = append(out, r)
		}
	}
	return out
}
