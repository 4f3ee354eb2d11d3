package dihedral

// Canonical protein backbone dihedral names.
const (
	Phi   = "phi"
	Psi   = "psi"
	Omega = "omega"
)

// standardResidueNames are the residue types the backbone definitions are
// registered for.
var standardResidueNames = []string{
	"ALA", "ARG", "ASN", "ASP", "CYS", "GLN", "GLU", "GLY", "HIS", "ILE",
	"LEU", "LYS", "MET", "PHE", "PRO", "SER", "THR", "TRP", "TYR", "VAL",
}

// RegisterBackboneDefs registers phi, psi and omega for the twenty standard
// amino acids.  Phi and omega reach into the preceding residue and psi into
// the following one, so the first and last residues of a chain resolve only
// a subset.  Re-registration is a Conflict error, matching AddDihedralDef.
func RegisterBackboneDefs(m *Manager) error {
	defs := []struct {
		name     string
		atoms    []string
		external []bool
	}{
		{Phi, []string{"C", "N", "CA", "C"}, []bool{true, false, false, false}},
		{Psi, []string{"N", "CA", "C", "N"}, []bool{false, false, false, true}},
		{Omega, []string{"CA", "C", "N", "CA"}, []bool{true, true, false, false}},
	}
	for _, res := range standardResidueNames {
		for _, d := range defs {
			if err := m.AddDihedralDef(res, d.name, d.atoms, d.external); err != nil {
				return err
			}
		}
	}
	return nil
}
