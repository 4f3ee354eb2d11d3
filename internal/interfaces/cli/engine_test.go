package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/MolVal-Engine/internal/config"
	"github.com/turtacn/MolVal-Engine/internal/domain/dihedral"
	"github.com/turtacn/MolVal-Engine/internal/domain/geometry"
	"github.com/turtacn/MolVal-Engine/internal/domain/structure"
	"github.com/turtacn/MolVal-Engine/internal/domain/validation"
	"github.com/turtacn/MolVal-Engine/internal/interfaces/cli"
)

// buildEngineChain lays out a two-residue backbone with a peptide bond so
// that phi resolves on the second residue.
func buildEngineChain(t *testing.T, s *structure.Structure) []*structure.Residue {
	t.Helper()
	var residues []*structure.Residue
	var prevC *structure.Atom
	for i := 0; i < 2; i++ {
		res := s.NewResidue("ALA", i+1)
		x := float64(i) * 3.5
		n := s.NewAtom(res, "N", structure.ElementN, geometry.Vec3{x, 0.3, 0.1})
		ca := s.NewAtom(res, "CA", structure.ElementC, geometry.Vec3{x + 1.2, 1.1, 0.5})
		c := s.NewAtom(res, "C", structure.ElementC, geometry.Vec3{x + 2.4, 0.2, 0.9})
		_, err := s.AddBond(n, ca)
		require.NoError(t, err)
		_, err = s.AddBond(ca, c)
		require.NoError(t, err)
		if prevC != nil {
			_, err = s.AddBond(prevC, n)
			require.NoError(t, err)
		}
		prevC = c
		residues = append(residues, res)
	}
	return residues
}

func TestNewEngineAppliesConfig(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Limits.MaxTorsionSpringConstant = 5
	cfg.Limits.MaxLinearSpringConstant = 50
	cfg.Limits.MinDistanceTarget = 2.0
	cfg.Validation.Cutoffs["general"] = config.CutoffConfig{Allowed: 0.5, Outlier: 0.1}
	cfg.Validation.Colors.Favored = []uint8{1, 2, 3, 4}

	s := structure.NewStructure("configured")
	residues := buildEngineChain(t, s)

	eng, err := cli.NewEngine(cfg, s, nil, nil)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	// Torsion springs clamp at the configured ceiling.
	phi, err := eng.Dihedrals.GetDihedral(residues[1], dihedral.Phi, true)
	require.NoError(t, err)
	phi.SetSpringConstant(1e9)
	assert.Equal(t, 5.0, phi.SpringConstant())

	// Distance restraints clamp to the configured floor and ceiling.
	ca1 := residues[0].FindAtom("CA")
	ca2 := residues[1].FindAtom("CA")
	dr, err := eng.Distances.Restraint(ca1, ca2, true)
	require.NoError(t, err)
	assert.Equal(t, 2.0, dr.Target())
	dr.SetSpringConstant(1e9)
	assert.Equal(t, 50.0, dr.SpringConstant())

	// Position restraints share the linear ceiling.
	pr, err := eng.Positions.Restraint(ca1, true)
	require.NoError(t, err)
	pr.SetSpringConstant(1e9)
	assert.Equal(t, 50.0, pr.SpringConstant())

	// Cutoffs and colors land on the Ramachandran manager.
	cut, err := eng.Rama.CutoffsFor(validation.CaseGeneral)
	require.NoError(t, err)
	assert.Equal(t, validation.Cutoffs{Allowed: 0.5, Outlier: 0.1}, cut)
	assert.Equal(t, validation.RGBA{R: 1, G: 2, B: 3, A: 4}, eng.Rama.ColorScale().Favored)

	// Unconfigured cases keep their defaults.
	cut, err = eng.Rama.CutoffsFor(validation.CaseGlycine)
	require.NoError(t, err)
	assert.Equal(t, validation.Cutoffs{Allowed: 0.02, Outlier: 0.002}, cut)
}

func TestNewEngineRejectsUnknownCase(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Validation.Cutoffs["bogus"] = config.CutoffConfig{Allowed: 0.5, Outlier: 0.1}

	_, err := cli.NewEngine(cfg, structure.NewStructure("bad"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
