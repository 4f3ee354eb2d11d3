package dihedral

import (
	"fmt"

	"github.com/turtacn/MolVal-Engine/internal/domain/structure"
	"github.com/turtacn/MolVal-Engine/internal/domain/tracking"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

const managerName = "proper_dihedral_mgr"

// Def is a named dihedral definition: which atom names compose the torsion
// for a given residue type.  External-flagged names resolve against a bonded
// adjacent residue instead of the residue itself (e.g. the preceding
// residue's carbonyl carbon in phi).
type Def struct {
	AtomNames []string
	External  []bool
}

// Manager is the destruction-safe registry owning all proper dihedrals of
// one structure.  It maintains three indices over the authoritative set:
//
//	residue → name → dihedral   (named lookup)
//	atom    → dependent dihedrals
//	definition table: residue-type name → dihedral name → Def
//
// Invariant: every dihedral reachable from an index is in the authoritative
// set and vice versa.  The manager subscribes to the structure's destruction
// feed at construction and keeps the indices consistent on every batch.
type Manager struct {
	structure *structure.Structure
	tracker   *tracking.Tracker
	trackerID tracking.ManagerID
	logger    logging.Logger
	metrics   *prometheus.Metrics

	maxSpringConstant float64

	defs       map[string]map[string]Def
	residueMap map[*structure.Residue]map[string]*ProperDihedral
	atomMap    map[*structure.Atom]map[*ProperDihedral]struct{}
	dihedrals  map[*ProperDihedral]struct{}
}

// NewManager constructs a registry bound to one structure and subscribes it
// to the destruction feed.  tracker and metrics may be nil; logger may be nil
// (a no-op logger is substituted).
func NewManager(s *structure.Structure, tracker *tracking.Tracker, logger logging.Logger, metrics *prometheus.Metrics) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := &Manager{
		structure:         s,
		tracker:           tracker,
		logger:            logger.Named("dihedral"),
		metrics:           metrics,
		maxSpringConstant: DefaultMaxSpringConstant,
		defs:              make(map[string]map[string]Def),
		residueMap:        make(map[*structure.Residue]map[string]*ProperDihedral),
		atomMap:           make(map[*structure.Atom]map[*ProperDihedral]struct{}),
		dihedrals:         make(map[*ProperDihedral]struct{}),
	}
	if tracker != nil {
		m.trackerID = tracker.RegisterManager(managerName)
	}
	s.Subscribe(m)
	return m
}

// Close unsubscribes the manager from the destruction feed.  The manager
// must not be used afterwards.
func (m *Manager) Close() {
	m.structure.Unsubscribe(m)
}

// Structure returns the structure this registry is bound to.
func (m *Manager) Structure() *structure.Structure { return m.structure }

// SetMaxSpringConstant overrides the clamp ceiling applied by
// SetSpringConstant on owned dihedrals.  Negative values are treated as 0.
func (m *Manager) SetMaxSpringConstant(k float64) {
	if k < 0 {
		k = 0
	}
	m.maxSpringConstant = k
}

// ─────────────────────────────────────────────────────────────────────────────
// Definition table
// ─────────────────────────────────────────────────────────────────────────────

// AddDihedralDef registers a named dihedral definition for a residue type.
// Registering the same (residue type, name) twice is a Conflict error.
func (m *Manager) AddDihedralDef(resName, dihedralName string, atomNames []string, external []bool) error {
	if len(atomNames) != 4 || len(external) != 4 {
		return errors.InvalidParam("a dihedral definition requires exactly 4 atom names and 4 external flags")
	}
	byName, ok := m.defs[resName]
	if !ok {
		byName = make(map[string]Def)
		m.defs[resName] = byName
	}
	if _, exists := byName[dihedralName]; exists {
		return errors.New(errors.CodeDihedralDefDuplicate,
			fmt.Sprintf("dihedral definition %s/%s already exists", resName, dihedralName))
	}
	byName[dihedralName] = Def{
		AtomNames: append([]string(nil), atomNames...),
		External:  append([]bool(nil), external...),
	}
	return nil
}

// DihedralDef returns the registered definition for (residue type, name).
// An unregistered definition is a distinct NotFound from "dihedral not
// instantiated yet".
func (m *Manager) DihedralDef(resName, dihedralName string) (Def, error) {
	if byName, ok := m.defs[resName]; ok {
		if def, ok := byName[dihedralName]; ok {
			return def, nil
		}
	}
	return Def{}, errors.New(errors.CodeDihedralDefNotFound,
		fmt.Sprintf("no dihedral definition %s/%s", resName, dihedralName))
}

// ─────────────────────────────────────────────────────────────────────────────
// Creation and lookup
// ─────────────────────────────────────────────────────────────────────────────

// NewDihedral instantiates the named definition against a residue, indexes
// the result and returns it.  Resolution failures (atom name absent, no
// bonded adjacent residue for an external name, atoms not bonded in order)
// are NotFound; the residue simply does not support this torsion.
func (m *Manager) NewDihedral(res *structure.Residue, dihedralName string) (*ProperDihedral, error) {
	def, err := m.DihedralDef(res.Name(), dihedralName)
	if err != nil {
		return nil, err
	}
	atoms, err := m.resolveAtoms(res, def)
	if err != nil {
		return nil, err
	}
	pd, err := NewProperDihedral(atoms[0], atoms[1], atoms[2], atoms[3], res, dihedralName)
	if err != nil {
		// The named atoms exist but are not connected the way the definition
		// requires; from the caller's perspective the torsion does not exist.
		return nil, errors.New(errors.CodeDihedralNotFound,
			fmt.Sprintf("residue %s %d does not form dihedral %q", res.Name(), res.Number(), dihedralName)).
			WithCause(err)
	}
	m.addDihedral(pd)
	m.logger.Debug("dihedral created",
		logging.String("name", dihedralName),
		logging.String("residue", res.Name()),
		logging.Int("residue_number", res.Number()))
	return pd, nil
}

// resolveAtoms maps the definition's atom names onto concrete atoms.
// Internal names resolve within the residue; external names resolve among
// the bonded neighbours (in an adjacent residue) of the nearest already
// resolved atom.  Externals sit at the ends of real-world definitions, so
// resolution sweeps outwards from the internal core until it stalls.
func (m *Manager) resolveAtoms(res *structure.Residue, def Def) ([4]*structure.Atom, error) {
	var atoms [4]*structure.Atom
	for i, name := range def.AtomNames {
		if def.External[i] {
			continue
		}
		a := res.FindAtom(name)
		if a == nil {
			return atoms, errors.New(errors.CodeDihedralNotFound,
				fmt.Sprintf("residue %s %d has no atom %q", res.Name(), res.Number(), name))
		}
		atoms[i] = a
	}

	for progress := true; progress; {
		progress = false
		for i := range atoms {
			if atoms[i] != nil {
				continue
			}
			var anchor *structure.Atom
			if i+1 < 4 && atoms[i+1] != nil {
				anchor = atoms[i+1]
			} else if i-1 >= 0 && atoms[i-1] != nil {
				anchor = atoms[i-1]
			}
			if anchor == nil {
				continue
			}
			for _, n := range anchor.Neighbors() {
				if n.Residue() != res && n.Name() == def.AtomNames[i] {
					atoms[i] = n
					progress = true
					break
				}
			}
			if atoms[i] == nil {
				return atoms, errors.New(errors.CodeDihedralNotFound,
					fmt.Sprintf("no bonded neighbour of residue %s %d provides atom %q",
						res.Name(), res.Number(), def.AtomNames[i]))
			}
		}
	}
	for _, a := range atoms {
		if a == nil {
			return atoms, errors.New(errors.CodeDihedralNotFound, "dihedral definition could not be resolved")
		}
	}
	return atoms, nil
}

// GetDihedral looks up the named dihedral for a residue, creating it when
// create is true.  Absence without create is NotFound, not a failure.
func (m *Manager) GetDihedral(res *structure.Residue, name string, create bool) (*ProperDihedral, error) {
	if byName, ok := m.residueMap[res]; ok {
		if d, ok := byName[name]; ok {
			return d, nil
		}
	}
	if !create {
		return nil, errors.New(errors.CodeDihedralNotFound,
			fmt.Sprintf("no dihedral %q for residue %s %d", name, res.Name(), res.Number()))
	}
	return m.NewDihedral(res, name)
}

// addDihedral inserts a dihedral into the authoritative set and every index.
func (m *Manager) addDihedral(d *ProperDihedral) {
	if _, tracked := m.dihedrals[d]; tracked {
		return
	}
	d.mgr = m
	m.dihedrals[d] = struct{}{}
	if d.Residue() != nil && d.Name() != "" {
		byName, ok := m.residueMap[d.Residue()]
		if !ok {
			byName = make(map[string]*ProperDihedral)
			m.residueMap[d.Residue()] = byName
		}
		byName[d.Name()] = d
	}
	for _, a := range d.Atoms() {
		set, ok := m.atomMap[a]
		if !ok {
			set = make(map[*ProperDihedral]struct{})
			m.atomMap[a] = set
		}
		set[d] = struct{}{}
	}
	if m.tracker != nil {
		m.tracker.TrackChange(m.trackerID, d, tracking.ReasonCreated)
	}
	m.metrics.ObserveCreated(managerName)
}

// ─────────────────────────────────────────────────────────────────────────────
// Deletion and destruction handling
// ─────────────────────────────────────────────────────────────────────────────

// DeleteDihedrals removes a batch of dihedrals from the registry.  Entities
// already absent are skipped, so the call is idempotent.
func (m *Manager) DeleteDihedrals(batch []*ProperDihedral) {
	deleted := 0
	for _, d := range batch {
		if _, tracked := m.dihedrals[d]; !tracked {
			continue
		}
		m.removeFromIndices(d)
		deleted++
		if m.tracker != nil {
			m.tracker.TrackChange(m.trackerID, d, tracking.ReasonDeleted)
		}
	}
	m.metrics.ObserveDeleted(managerName, "batch", deleted)
}

// removeFromIndices erases one dihedral from the authoritative set and every
// index, including indices not keyed on any destroyed object.
func (m *Manager) removeFromIndices(d *ProperDihedral) {
	delete(m.dihedrals, d)
	if byName, ok := m.residueMap[d.Residue()]; ok {
		if byName[d.Name()] == d {
			delete(byName, d.Name())
		}
		if len(byName) == 0 {
			delete(m.residueMap, d.Residue())
		}
	}
	for _, a := range d.Atoms() {
		if set, ok := m.atomMap[a]; ok {
			delete(set, d)
			if len(set) == 0 {
				delete(m.atomMap, a)
			}
		}
	}
	d.mgr = nil
}

// DestructorsDone implements structure.DestructionObserver.  It purges every
// dihedral referencing a destroyed atom or residue and every index entry
// keyed by a destroyed object.  This path never fails: it is an internal
// consistency operation with no caller to report to.
func (m *Manager) DestructorsDone(destroyed *structure.Destroyed) {
	toDelete := make(map[*ProperDihedral]struct{})
	for a := range destroyed.Atoms {
		for d := range m.atomMap[a] {
			toDelete[d] = struct{}{}
		}
	}
	for r := range destroyed.Residues {
		for _, d := range m.residueMap[r] {
			toDelete[d] = struct{}{}
		}
		delete(m.residueMap, r)
	}
	for d := range toDelete {
		m.removeFromIndices(d)
		if m.tracker != nil {
			m.tracker.TrackChange(m.trackerID, d, tracking.ReasonDeleted)
		}
	}
	for a := range destroyed.Atoms {
		delete(m.atomMap, a)
	}
	if len(toDelete) > 0 {
		m.logger.Debug("destruction batch processed",
			logging.Int("dihedrals_removed", len(toDelete)))
	}
	m.metrics.ObserveDeleted(managerName, "destruction", len(toDelete))
	m.metrics.ObserveDestructionBatch(managerName)
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// NumDihedrals returns the size of the authoritative collection.
func (m *Manager) NumDihedrals() int { return len(m.dihedrals) }

// NumMappedDihedrals counts dihedrals reachable through the residue index,
// i.e. those with both a residue and a name.
func (m *Manager) NumMappedDihedrals() int {
	n := 0
	for _, byName := range m.residueMap {
		n += len(byName)
	}
	return n
}

// DependentDihedrals returns the dihedrals referencing an atom.
func (m *Manager) DependentDihedrals(a *structure.Atom) []*ProperDihedral {
	set := m.atomMap[a]
	out := make([]*ProperDihedral, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	return out
}
