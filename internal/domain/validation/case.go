// Package validation scores protein backbone conformations against
// Ramachandran probability maps.  A RamaMgr composes the dihedral registry
// with one grid interpolator per residue case and turns live phi/psi angles
// into probability scores, favored/allowed/outlier bins and display colors.
package validation

// RamaCase partitions residues into the categories that carry distinct
// Ramachandran probability distributions.
type RamaCase int

const (
	// CaseNone marks residues that cannot be scored: non-protein residues
	// and chain termini missing phi or psi.
	CaseNone RamaCase = iota
	CaseCisPro
	CaseTransPro
	CaseGlycine
	CasePrePro
	CaseIleVal
	CaseGeneral

	numCases
)

func (c RamaCase) String() string {
	switch c {
	case CaseNone:
		return "none"
	case CaseCisPro:
		return "cis-proline"
	case CaseTransPro:
		return "trans-proline"
	case CaseGlycine:
		return "glycine"
	case CasePrePro:
		return "pre-proline"
	case CaseIleVal:
		return "isoleucine/valine"
	case CaseGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// Valid reports whether c is a scoreable case.
func (c RamaCase) Valid() bool { return c > CaseNone && c < numCases }

// RamaBin is the qualitative classification of a score against the
// per-case cutoffs.
type RamaBin int

const (
	BinFavored RamaBin = iota
	BinAllowed
	BinOutlier
	BinNotApplicable
)

func (b RamaBin) String() string {
	switch b {
	case BinFavored:
		return "favored"
	case BinAllowed:
		return "allowed"
	case BinOutlier:
		return "outlier"
	default:
		return "n/a"
	}
}

// Cutoffs are the per-case probability thresholds.  Allowed is always at
// least Outlier.
type Cutoffs struct {
	Allowed float64
	Outlier float64
}

// Default cutoffs follow the MolProbity convention: the general case uses a
// stricter outlier threshold than the special cases.
var defaultCutoffs = map[RamaCase]Cutoffs{
	CaseCisPro:   {Allowed: 0.02, Outlier: 0.002},
	CaseTransPro: {Allowed: 0.02, Outlier: 0.002},
	CaseGlycine:  {Allowed: 0.02, Outlier: 0.002},
	CasePrePro:   {Allowed: 0.02, Outlier: 0.002},
	CaseIleVal:   {Allowed: 0.02, Outlier: 0.002},
	CaseGeneral:  {Allowed: 0.02, Outlier: 0.0005},
}
