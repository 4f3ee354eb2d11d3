package validation_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/MolVal-Engine/internal/domain/dihedral"
	"github.com/turtacn/MolVal-Engine/internal/domain/geometry"
	"github.com/turtacn/MolVal-Engine/internal/domain/structure"
	"github.com/turtacn/MolVal-Engine/internal/domain/tracking"
	"github.com/turtacn/MolVal-Engine/internal/domain/validation"
	"github.com/turtacn/MolVal-Engine/internal/interpolation"
	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

// buildChain constructs a backbone chain with the given residue type names.
func buildChain(t *testing.T, names ...string) (*structure.Structure, []*structure.Residue) {
	t.Helper()
	s := structure.NewStructure("chain")
	var residues []*structure.Residue
	var prevC *structure.Atom
	for i, name := range names {
		res := s.NewResidue(name, i+1)
		x := float64(i) * 3.5
		n := s.NewAtom(res, "N", structure.ElementN, geometry.Vec3{x, 0.2, 0.1 * float64(i)})
		ca := s.NewAtom(res, "CA", structure.ElementC, geometry.Vec3{x + 1.2, 1.1, 0.4})
		c := s.NewAtom(res, "C", structure.ElementC, geometry.Vec3{x + 2.4, 0.3, 0.9})
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
	return s, residues
}

func newRamaMgr(t *testing.T, s *structure.Structure) (*validation.RamaMgr, *dihedral.Manager) {
	t.Helper()
	dm := dihedral.NewManager(s, tracking.NewTracker(nil), nil, nil)
	t.Cleanup(dm.Close)
	require.NoError(t, dihedral.RegisterBackboneDefs(dm))
	return validation.NewRamaMgr(dm, nil, nil), dm
}

// flatMap builds a 2-D interpolator returning value everywhere.
func flatMap(t *testing.T, value float64) *interpolation.RegularGridInterpolator {
	t.Helper()
	data := make([]float64, 4)
	for i := range data {
		data[i] = value
	}
	g, err := interpolation.NewRegularGridInterpolator(
		2, []int{2, 2}, []float64{-math.Pi, -math.Pi}, []float64{math.Pi, math.Pi}, data)
	require.NoError(t, err)
	return g
}

func TestAddInterpolatorValidation(t *testing.T) {
	s, _ := buildChain(t, "ALA")
	rm, _ := newRamaMgr(t, s)

	err := rm.AddInterpolator(validation.CaseNone, flatMap(t, 1))
	require.Error(t, err)

	err = rm.AddInterpolator(validation.CaseGeneral, nil)
	require.Error(t, err)

	oneD, err := interpolation.NewRegularGridInterpolator(
		1, []int{2}, []float64{0}, []float64{1}, []float64{0, 1})
	require.NoError(t, err)
	err = rm.AddInterpolator(validation.CaseGeneral, oneD)
	require.Error(t, err)
	assert.Equal(t, errors.CodeGridDimensionMismatch, errors.GetCode(err))

	require.NoError(t, rm.AddInterpolator(validation.CaseGeneral, flatMap(t, 1)))
}

func TestCaseForResidueTopology(t *testing.T) {
	s, residues := buildChain(t, "ALA", "GLY", "PRO", "VAL", "ALA")
	rm, _ := newRamaMgr(t, s)

	// Chain termini are missing phi or psi.
	assert.Equal(t, validation.CaseNone, rm.CaseForResidue(residues[0]))
	assert.Equal(t, validation.CaseNone, rm.CaseForResidue(residues[4]))
	assert.Equal(t, validation.CaseNone, rm.CaseForResidue(nil))

	// Glycine wins over pre-proline: the pre-proline distribution excludes
	// Gly, so a glycine keeps its own case even before a proline.
	assert.Equal(t, validation.CaseGlycine, rm.CaseForResidue(residues[1]))

	// Proline classifies as trans without consulting geometry.
	assert.Equal(t, validation.CaseTransPro, rm.CaseForResidue(residues[2]))

	assert.Equal(t, validation.CaseIleVal, rm.CaseForResidue(residues[3]))
}

func TestCaseForResiduePreProline(t *testing.T) {
	s, residues := buildChain(t, "ALA", "VAL", "PRO", "ALA")
	rm, _ := newRamaMgr(t, s)

	// A non-Gly, non-Pro residue before a proline is pre-proline even when
	// it would otherwise carry its own case.
	assert.Equal(t, validation.CasePrePro, rm.CaseForResidue(residues[1]))
}

func TestCaseForResidueGlycineAndGeneral(t *testing.T) {
	s, residues := buildChain(t, "ALA", "GLY", "ALA", "ALA")
	rm, _ := newRamaMgr(t, s)

	assert.Equal(t, validation.CaseGlycine, rm.CaseForResidue(residues[1]))
	assert.Equal(t, validation.CaseGeneral, rm.CaseForResidue(residues[2]))
}

func TestScoreSentinelPaths(t *testing.T) {
	s, residues := buildChain(t, "ALA", "ALA", "ALA")
	rm, _ := newRamaMgr(t, s)

	// No interpolator installed yet.
	score, c := rm.Score(residues[1])
	assert.Equal(t, validation.CaseGeneral, c)
	assert.Equal(t, validation.NoScore, score)

	require.NoError(t, rm.AddInterpolator(validation.CaseGeneral, flatMap(t, 0.3)))

	score, c = rm.Score(residues[1])
	assert.Equal(t, validation.CaseGeneral, c)
	assert.InDelta(t, 0.3, score, 1e-12)

	// Terminal residue stays unscoreable.
	score, c = rm.Score(residues[0])
	assert.Equal(t, validation.CaseNone, c)
	assert.Equal(t, validation.NoScore, score)
}

func TestScoreAllSkipsUnscoreable(t *testing.T) {
	s, residues := buildChain(t, "ALA", "ALA", "ALA", "ALA")
	rm, _ := newRamaMgr(t, s)
	require.NoError(t, rm.AddInterpolator(validation.CaseGeneral, flatMap(t, 0.5)))

	scores, cases := rm.ScoreAll(residues)
	require.Len(t, scores, 4)
	assert.Equal(t, validation.NoScore, scores[0])
	assert.InDelta(t, 0.5, scores[1], 1e-12)
	assert.InDelta(t, 0.5, scores[2], 1e-12)
	assert.Equal(t, validation.NoScore, scores[3])
	assert.Equal(t, validation.CaseNone, cases[0])
	assert.Equal(t, validation.CaseGeneral, cases[1])
}

func TestScoreAllCasesExplicit(t *testing.T) {
	s, residues := buildChain(t, "ALA", "PRO", "ALA")
	rm, _ := newRamaMgr(t, s)
	require.NoError(t, rm.AddInterpolator(validation.CaseCisPro, flatMap(t, 0.7)))

	// Cis-proline is reachable only through an explicit case.
	scores, err := rm.ScoreAllCases(
		[]*structure.Residue{residues[1]},
		[]validation.RamaCase{validation.CaseCisPro})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, scores[0], 1e-12)

	_, err = rm.ScoreAllCases(residues, []validation.RamaCase{validation.CaseGeneral})
	require.Error(t, err, "length mismatch")
}

func TestBinBoundaries(t *testing.T) {
	s, _ := buildChain(t, "ALA")
	rm, _ := newRamaMgr(t, s)
	require.NoError(t, rm.SetCutoffs(validation.CaseGeneral, 0.02, 0.002))

	tests := []struct {
		name  string
		score float64
		want  validation.RamaBin
	}{
		{"well above allowed", 0.05, validation.BinFavored},
		{"exactly at allowed", 0.02, validation.BinAllowed},
		{"between cutoffs", 0.01, validation.BinAllowed},
		{"exactly at outlier", 0.002, validation.BinAllowed},
		{"below outlier", 0.0005, validation.BinOutlier},
		{"sentinel", validation.NoScore, validation.BinNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rm.Bin(tt.score, validation.CaseGeneral))
		})
	}

	assert.Equal(t, validation.BinNotApplicable, rm.Bin(0.5, validation.CaseNone))
}

func TestCutoffsRoundTrip(t *testing.T) {
	s, _ := buildChain(t, "ALA")
	rm, _ := newRamaMgr(t, s)

	require.NoError(t, rm.SetCutoffs(validation.CaseGlycine, 0.04, 0.004))
	cut, err := rm.CutoffsFor(validation.CaseGlycine)
	require.NoError(t, err)
	assert.Equal(t, validation.Cutoffs{Allowed: 0.04, Outlier: 0.004}, cut)

	err = rm.SetCutoffs(validation.CaseGlycine, 0.001, 0.01)
	require.Error(t, err, "allowed below outlier")

	err = rm.SetCutoffs(validation.CaseNone, 0.02, 0.002)
	require.Error(t, err)

	_, err = rm.CutoffsFor(validation.CaseNone)
	require.Error(t, err)
}

func TestColorScaleRoundTripAndAnchors(t *testing.T) {
	s, _ := buildChain(t, "ALA")
	rm, _ := newRamaMgr(t, s)
	require.NoError(t, rm.SetCutoffs(validation.CaseGeneral, 0.02, 0.002))

	scale := validation.ColorScale{
		Favored:       validation.RGBA{R: 0, G: 255, B: 0, A: 255},
		Allowed:       validation.RGBA{R: 255, G: 255, B: 0, A: 255},
		Outlier:       validation.RGBA{R: 255, G: 0, B: 0, A: 255},
		NotApplicable: validation.RGBA{R: 128, G: 128, B: 128, A: 255},
	}
	rm.SetColorScale(scale)
	assert.Equal(t, scale, rm.ColorScale())

	// Anchors reproduce the scale colors exactly.
	assert.Equal(t, scale.Outlier, rm.Color(0.002, validation.CaseGeneral))
	assert.Equal(t, scale.Outlier, rm.Color(0.0001, validation.CaseGeneral))
	assert.Equal(t, scale.Allowed, rm.Color(0.02, validation.CaseGeneral))
	assert.Equal(t, scale.Favored, rm.Color(1.0, validation.CaseGeneral))
	assert.Equal(t, scale.NotApplicable, rm.Color(validation.NoScore, validation.CaseGeneral))
	assert.Equal(t, scale.NotApplicable, rm.Color(0.5, validation.CaseNone))

	// Midway between the outlier and allowed cutoffs the red channel is
	// unchanged and green sits halfway.
	mid := rm.Color(0.011, validation.CaseGeneral)
	assert.Equal(t, uint8(255), mid.R)
	assert.InDelta(t, 128, float64(mid.G), 1.0)
}

func TestColorDegenerateAllowedCutoff(t *testing.T) {
	s, _ := buildChain(t, "ALA")
	rm, _ := newRamaMgr(t, s)

	// With the allowed cutoff at 1.0 the favored band has zero width; any
	// score above it maps straight to the favored color rather than a
	// zero-denominator blend.
	require.NoError(t, rm.SetCutoffs(validation.CaseGeneral, 1.0, 0.5))
	assert.Equal(t, rm.ColorScale().Favored, rm.Color(1.5, validation.CaseGeneral))
	assert.Equal(t, rm.ColorScale().Allowed, rm.Color(1.0, validation.CaseGeneral))
}

func TestColorAll(t *testing.T) {
	s, _ := buildChain(t, "ALA")
	rm, _ := newRamaMgr(t, s)

	colors, err := rm.ColorAll(
		[]float64{validation.NoScore, 1.0},
		[]validation.RamaCase{validation.CaseNone, validation.CaseGeneral})
	require.NoError(t, err)
	require.Len(t, colors, 2)
	assert.Equal(t, rm.ColorScale().NotApplicable, colors[0])
	assert.Equal(t, rm.ColorScale().Favored, colors[1])

	_, err = rm.ColorAll([]float64{1}, nil)
	require.Error(t, err)
}
