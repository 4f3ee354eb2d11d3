package structure

// Residue is a named, numbered group of atoms (one amino-acid or ligand
// building block).  Like Atom, its pointer identity is the stable handle that
// registries index on.
type Residue struct {
	structure *Structure
	name      string
	number    int
	atoms     []*Atom
}

// Name returns the residue type name (e.g. "ALA", "PRO").
func (r *Residue) Name() string { return r.name }

// Number returns the residue's sequence number.
func (r *Residue) Number() int { return r.number }

// Structure returns the owning structure.
func (r *Residue) Structure() *Structure { return r.structure }

// Atoms returns the residue's atoms.
func (r *Residue) Atoms() []*Atom { return r.atoms }

// FindAtom returns the atom with the given name, or nil when absent.
func (r *Residue) FindAtom(name string) *Atom {
	for _, a := range r.atoms {
		if a.name == name {
			return a
		}
	}
	return nil
}

// AdjacentResidues returns the residues connected to r by at least one
// inter-residue bond, in discovery order without duplicates.
func (r *Residue) AdjacentResidues() []*Residue {
	seen := make(map[*Residue]struct{})
	var out []*Residue
	for _, a := range r.atoms {
		for _, n := range a.Neighbors() {
			if n.residue != r {
				if _, ok := seen[n.residue]; !ok {
					seen[n.residue] = struct{}{}
					out = append(out, n.residue)
				}
			}
		}
	}
	return out
}

func (r *Residue) removeAtom(a *Atom) {
	for i, x := range r.atoms {
		if x == a {
			r.atoms = append(r.atoms[:i], r.atoms[i+1:]...)
			return
		}
	}
}
