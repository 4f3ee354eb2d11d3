package structure

import (
	"github.com/turtacn/MolVal-Engine/internal/domain/geometry"
	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

// Destroyed is a single batch of destruction notifications.  Observers
// receive the complete batch after the graph has already been edited, so a
// handle found in the batch must never be dereferenced again.
type Destroyed struct {
	Atoms    map[*Atom]struct{}
	Residues map[*Residue]struct{}
}

func newDestroyed() *Destroyed {
	return &Destroyed{
		Atoms:    make(map[*Atom]struct{}),
		Residues: make(map[*Residue]struct{}),
	}
}

// HasAtom reports whether the atom is part of this destruction batch.
func (d *Destroyed) HasAtom(a *Atom) bool {
	_, ok := d.Atoms[a]
	return ok
}

// HasResidue reports whether the residue is part of this destruction batch.
func (d *Destroyed) HasResidue(r *Residue) bool {
	_, ok := d.Residues[r]
	return ok
}

// Empty reports whether the batch contains no destroyed objects.
func (d *Destroyed) Empty() bool {
	return len(d.Atoms) == 0 && len(d.Residues) == 0
}

// DestructionObserver is implemented by every registry that holds references
// into the structure graph.  DestructorsDone is invoked synchronously, once
// per destruction batch, and must complete in full: there is no caller to
// report a failure to on this path.
type DestructionObserver interface {
	DestructorsDone(destroyed *Destroyed)
}

// Structure is the externally-owned, continuously mutable molecular graph.
// It is the sole owner of its atoms, bonds and residues; registries hold
// non-owning handles and subscribe to the destruction feed.
type Structure struct {
	name      string
	residues  []*Residue
	bonds     []*Bond
	observers []DestructionObserver
	nextID    uint64
}

// NewStructure creates an empty structure.
func NewStructure(name string) *Structure {
	return &Structure{name: name}
}

// Name returns the structure's name.
func (s *Structure) Name() string { return s.name }

// Residues returns the structure's residues.
func (s *Structure) Residues() []*Residue { return s.residues }

// NumAtoms returns the total number of live atoms.
func (s *Structure) NumAtoms() int {
	n := 0
	for _, r := range s.residues {
		n += len(r.atoms)
	}
	return n
}

// NewResidue appends a residue with the given type name and sequence number.
func (s *Structure) NewResidue(name string, number int) *Residue {
	r := &Residue{structure: s, name: name, number: number}
	s.residues = append(s.residues, r)
	return r
}

// NewAtom creates an atom inside res at the given coordinate.  Atoms are
// visible by default.
func (s *Structure) NewAtom(res *Residue, name string, el Element, coord geometry.Vec3) *Atom {
	s.nextID++
	a := &Atom{
		id:      s.nextID,
		name:    name,
		element: el,
		residue: res,
		coord:   coord,
		visible: true,
	}
	res.atoms = append(res.atoms, a)
	return a
}

// AddBond creates a bond between two atoms of this structure.  Bonding an
// atom pair twice returns the existing bond.
func (s *Structure) AddBond(a1, a2 *Atom) (*Bond, error) {
	if a1 == nil || a2 == nil || a1 == a2 {
		return nil, errors.InvalidParam("a bond requires two distinct atoms")
	}
	if a1.Structure() != s || a2.Structure() != s {
		return nil, errors.New(errors.CodeAtomWrongStructure, "both atoms must belong to this structure")
	}
	if b := a1.BondTo(a2); b != nil {
		return b, nil
	}
	b := &Bond{atoms: [2]*Atom{a1, a2}}
	a1.bonds = append(a1.bonds, b)
	a2.bonds = append(a2.bonds, b)
	s.bonds = append(s.bonds, b)
	return b, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Destruction feed
// ─────────────────────────────────────────────────────────────────────────────

// Subscribe registers an observer for destruction batches.  Each registry
// subscribes exactly once at construction.
func (s *Structure) Subscribe(obs DestructionObserver) {
	s.observers = append(s.observers, obs)
}

// Unsubscribe removes an observer.  Unknown observers are ignored.
func (s *Structure) Unsubscribe(obs DestructionObserver) {
	for i, o := range s.observers {
		if o == obs {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// DeleteAtoms removes the given atoms from the graph, together with every
// bond touching them, and delivers one destruction batch to all subscribed
// observers.  Residues left without atoms are destroyed in the same batch.
// Atoms not (or no longer) part of this structure are skipped.
func (s *Structure) DeleteAtoms(atoms ...*Atom) {
	batch := newDestroyed()
	for _, a := range atoms {
		if a == nil || a.residue == nil || a.residue.structure != s {
			continue
		}
		if batch.HasAtom(a) {
			continue
		}
		batch.Atoms[a] = struct{}{}
	}
	s.applyDeletion(batch)
}

// DeleteResidues removes whole residues and their atoms in one batch.
func (s *Structure) DeleteResidues(residues ...*Residue) {
	batch := newDestroyed()
	for _, r := range residues {
		if r == nil || r.structure != s {
			continue
		}
		batch.Residues[r] = struct{}{}
		for _, a := range r.atoms {
			batch.Atoms[a] = struct{}{}
		}
	}
	s.applyDeletion(batch)
}

// applyDeletion edits the graph first, then notifies.  Observers therefore
// always see a graph from which the batch is already gone.
func (s *Structure) applyDeletion(batch *Destroyed) {
	if batch.Empty() {
		return
	}

	// Drop bonds touching any destroyed atom.
	keptBonds := s.bonds[:0]
	for _, b := range s.bonds {
		if batch.HasAtom(b.atoms[0]) || batch.HasAtom(b.atoms[1]) {
			b.atoms[0].dropBond(b)
			b.atoms[1].dropBond(b)
			continue
		}
		keptBonds = append(keptBonds, b)
	}
	s.bonds = keptBonds

	// Detach atoms from their residues; residues emptied by the deletion are
	// destroyed as well.
	for a := range batch.Atoms {
		r := a.residue
		r.removeAtom(a)
		// Dangling handles stay detectable: a destroyed atom has no residue.
		a.residue = nil
		if len(r.atoms) == 0 {
			batch.Residues[r] = struct{}{}
		}
	}
	keptResidues := s.residues[:0]
	for _, r := range s.residues {
		if batch.HasResidue(r) {
			continue
		}
		keptResidues = append(keptResidues, r)
	}
	s.residues = keptResidues

	for _, obs := range s.observers {
		obs.DestructorsDone(batch)
	}
}

func (a *Atom) dropBond(b *Bond) {
	for i, x := range a.bonds {
		if x == b {
			a.bonds = append(a.bonds[:i], a.bonds[i+1:]...)
			return
		}
	}
}
