// Package dihedral provides torsion-angle descriptors over the structure
// graph and the destruction-safe registry that owns them.  A dihedral is
// defined by four ordered atoms; the central pair defines the rotation axis.
//
// Dihedrals are created lazily through a Manager, either directly from four
// atoms or by instantiating a named definition (phi, psi, omega, chi1, ...)
// against a residue.  The Manager reacts to structure destruction batches and
// purges every affected dihedral and index entry in one pass.
package dihedral

import (
	"math"

	"github.com/turtacn/MolVal-Engine/internal/domain/geometry"
	"github.com/turtacn/MolVal-Engine/internal/domain/structure"
	"github.com/turtacn/MolVal-Engine/internal/domain/tracking"
	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

// DefaultMaxSpringConstant is the clamp ceiling for torsion restraint spring
// constants, in kJ mol⁻¹ rad⁻².
const DefaultMaxSpringConstant = 10000.0

// Dihedral is a torsion angle defined by four unique atoms of one structure.
// The generic form does not require the atoms to be bonded; see
// ProperDihedral for the bonded variant.
//
// Target and spring-constant setters funnel through the owning Manager so
// clamping and change tracking cannot be bypassed; a Dihedral is never
// mutated directly by external code.
type Dihedral struct {
	atoms   [4]*structure.Atom
	name    string
	residue *structure.Residue

	// target is NaN while unset; setters wrap into (-pi, pi].
	target         float64
	springConstant float64

	mgr *Manager
}

func newDihedral(a1, a2, a3, a4 *structure.Atom, res *structure.Residue, name string) (*Dihedral, error) {
	atoms := [4]*structure.Atom{a1, a2, a3, a4}
	for i, a := range atoms {
		if a == nil {
			return nil, errors.InvalidParam("dihedral atoms must not be nil")
		}
		for j := 0; j < i; j++ {
			if atoms[j] == a {
				return nil, errors.New(errors.CodeAtomDuplicate, "all dihedral atoms must be unique")
			}
		}
		if a.Structure() != a1.Structure() {
			return nil, errors.New(errors.CodeAtomWrongStructure, "all dihedral atoms must be in the same structure")
		}
	}
	return &Dihedral{
		atoms:   atoms,
		name:    name,
		residue: res,
		target:  math.NaN(),
	}, nil
}

// Atoms returns the four atoms in definition order.
func (d *Dihedral) Atoms() [4]*structure.Atom { return d.atoms }

// Name returns the dihedral's name ("phi", "psi", ...), possibly empty.
func (d *Dihedral) Name() string { return d.name }

// Residue returns the residue this dihedral is conventionally assigned to,
// or nil for a free-standing dihedral.
func (d *Dihedral) Residue() *structure.Residue { return d.residue }

// Structure returns the owning structure of the dihedral's atoms.
func (d *Dihedral) Structure() *structure.Structure { return d.atoms[0].Structure() }

// Angle returns the current torsion angle in radians, computed from live
// coordinates on every call.
func (d *Dihedral) Angle() float64 {
	return geometry.DihedralAngle(
		d.atoms[0].Coord(), d.atoms[1].Coord(),
		d.atoms[2].Coord(), d.atoms[3].Coord())
}

// Target returns the target angle, NaN while unset.
func (d *Dihedral) Target() float64 { return d.target }

// HasTarget reports whether a target angle has been set.
func (d *Dihedral) HasTarget() bool { return !math.IsNaN(d.target) }

// SetTarget sets the target angle, wrapping into (-pi, pi].  Always succeeds.
func (d *Dihedral) SetTarget(angle float64) {
	d.target = geometry.WrapAngle(angle)
	d.track(tracking.ReasonTargetChanged)
}

// SpringConstant returns the restraint spring constant.
func (d *Dihedral) SpringConstant() float64 { return d.springConstant }

// SetSpringConstant sets the spring constant, clamping silently into
// [0, manager maximum].  Always succeeds.
func (d *Dihedral) SetSpringConstant(k float64) {
	maxK := DefaultMaxSpringConstant
	if d.mgr != nil {
		maxK = d.mgr.maxSpringConstant
	}
	if k < 0 {
		k = 0
	} else if k > maxK {
		k = maxK
	}
	d.springConstant = k
	d.track(tracking.ReasonSpringConstantChanged)
}

func (d *Dihedral) track(reason tracking.Reason) {
	if d.mgr != nil && d.mgr.tracker != nil {
		d.mgr.tracker.TrackChange(d.mgr.trackerID, d, reason)
	}
}

// ProperDihedral is a dihedral whose atoms are bonded in strict order
// a1–a2–a3–a4, as for all named backbone and sidechain torsions.
type ProperDihedral struct {
	Dihedral
	bonds [3]*structure.Bond
}

// NewProperDihedral validates bonding and constructs a free-standing proper
// dihedral.  Registry users go through Manager.GetDihedral / NewDihedral
// instead so the result is owned and indexed.
func NewProperDihedral(a1, a2, a3, a4 *structure.Atom, res *structure.Residue, name string) (*ProperDihedral, error) {
	base, err := newDihedral(a1, a2, a3, a4, res, name)
	if err != nil {
		return nil, err
	}
	pd := &ProperDihedral{Dihedral: *base}
	atoms := pd.atoms
	for i := 0; i < 3; i++ {
		b := atoms[i].BondTo(atoms[i+1])
		if b == nil {
			return nil, errors.New(errors.CodeAtomsNotBonded, "atoms must be bonded a1--a2--a3--a4")
		}
		pd.bonds[i] = b
	}
	return pd, nil
}

// Bonds returns the three bonds linking the four atoms.
func (d *ProperDihedral) Bonds() [3]*structure.Bond { return d.bonds }

// AxialBond returns the central bond, the rotation axis of the torsion.
func (d *ProperDihedral) AxialBond() *structure.Bond { return d.bonds[1] }
