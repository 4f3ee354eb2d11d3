// Package structure supplies the in-memory molecular-structure graph the
// registries operate against: atoms, bonds and residues with stable opaque
// identities, plus the destruction-notification feed that keeps derived
// descriptors (dihedrals, restraints) consistent when the graph is edited.
//
// The registries hold non-owning references into this graph and learn about
// deletions exclusively through the notification feed; they never poll.
package structure

import "github.com/turtacn/MolVal-Engine/internal/domain/geometry"

// Element identifies a chemical element.
type Element struct {
	Symbol string
	Number int
}

// Common elements used throughout the test fixtures and the CLI demo.
var (
	ElementH = Element{Symbol: "H", Number: 1}
	ElementC = Element{Symbol: "C", Number: 6}
	ElementN = Element{Symbol: "N", Number: 7}
	ElementO = Element{Symbol: "O", Number: 8}
	ElementS = Element{Symbol: "S", Number: 16}
)

// Atom is a single atom in a Structure.  The pointer identity is stable for
// the atom's lifetime and is what registries key their indices on; the
// numeric ID additionally provides a total order for normalising unordered
// atom-pair keys.
type Atom struct {
	id      uint64
	name    string
	element Element
	residue *Residue
	coord   geometry.Vec3
	visible bool
	bonds   []*Bond
}

// ID returns the atom's structure-unique numeric identity.
func (a *Atom) ID() uint64 { return a.id }

// Name returns the atom name within its residue (e.g. "CA", "N").
func (a *Atom) Name() string { return a.name }

// Element returns the atom's chemical element.
func (a *Atom) Element() Element { return a.element }

// IsHydrogen reports whether the atom is a hydrogen.
func (a *Atom) IsHydrogen() bool { return a.element.Number == 1 }

// Residue returns the residue owning this atom.
func (a *Atom) Residue() *Residue { return a.residue }

// Structure returns the structure owning this atom, or nil after the atom
// has been destroyed.
func (a *Atom) Structure() *Structure {
	if a.residue == nil {
		return nil
	}
	return a.residue.structure
}

// Coord returns the atom's current 3-D coordinate.
func (a *Atom) Coord() geometry.Vec3 { return a.coord }

// SetCoord moves the atom.
func (a *Atom) SetCoord(c geometry.Vec3) { a.coord = c }

// Visible reports the atom's display flag.
func (a *Atom) Visible() bool { return a.visible }

// SetVisible sets the atom's display flag.
func (a *Atom) SetVisible(v bool) { a.visible = v }

// Bonds returns the bonds this atom participates in.
func (a *Atom) Bonds() []*Bond { return a.bonds }

// Neighbors returns the atoms directly bonded to a.
func (a *Atom) Neighbors() []*Atom {
	out := make([]*Atom, 0, len(a.bonds))
	for _, b := range a.bonds {
		out = append(out, b.Other(a))
	}
	return out
}

// IsBondedTo reports whether a shares a bond with other.
func (a *Atom) IsBondedTo(other *Atom) bool {
	for _, b := range a.bonds {
		if b.Other(a) == other {
			return true
		}
	}
	return false
}

// BondTo returns the bond between a and other, or nil when they are unbonded.
func (a *Atom) BondTo(other *Atom) *Bond {
	for _, b := range a.bonds {
		if b.Other(a) == other {
			return b
		}
	}
	return nil
}

// Bond is a covalent bond between two atoms of the same structure.
type Bond struct {
	atoms [2]*Atom
}

// Atoms returns the two bonded atoms.
func (b *Bond) Atoms() [2]*Atom { return b.atoms }

// Other returns the bond partner of a, or nil when a is not part of the bond.
func (b *Bond) Other(a *Atom) *Atom {
	switch a {
	case b.atoms[0]:
		return b.atoms[1]
	case b.atoms[1]:
		return b.atoms[0]
	}
	return nil
}
