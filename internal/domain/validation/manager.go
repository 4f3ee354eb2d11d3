package validation

import (
	"fmt"
	"math"

	"github.com/turtacn/MolVal-Engine/internal/domain/dihedral"
	"github.com/turtacn/MolVal-Engine/internal/domain/structure"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolVal-Engine/internal/interpolation"
	"github.com/turtacn/MolVal-Engine/pkg/errors"
)

// NoScore is the sentinel returned for residues that cannot be scored.
// Probability scores are non-negative, so the sentinel is unambiguous.
const NoScore = -1.0

// RamaMgr scores residues against per-case Ramachandran probability maps.
// It composes the dihedral registry (which owns the phi/psi torsions) with a
// 2-D interpolator per case.  Scoring never fails: any residue that lacks a
// torsion, a case or a map yields the NoScore sentinel, so batch callers
// never abort halfway through a structure.
type RamaMgr struct {
	dihedrals *dihedral.Manager
	logger    logging.Logger
	metrics   *prometheus.Metrics

	interpolators map[RamaCase]*interpolation.RegularGridInterpolator
	cutoffs       map[RamaCase]Cutoffs
	colors        ColorScale
}

// NewRamaMgr constructs a manager over an existing dihedral registry with
// the default cutoffs and color scale.  Interpolators are added separately,
// one per case, as their maps are loaded.
func NewRamaMgr(dm *dihedral.Manager, logger logging.Logger, metrics *prometheus.Metrics) *RamaMgr {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	cutoffs := make(map[RamaCase]Cutoffs, len(defaultCutoffs))
	for c, v := range defaultCutoffs {
		cutoffs[c] = v
	}
	return &RamaMgr{
		dihedrals:     dm,
		logger:        logger.Named("rama"),
		metrics:       metrics,
		interpolators: make(map[RamaCase]*interpolation.RegularGridInterpolator),
		cutoffs:       cutoffs,
		colors:        DefaultColorScale(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// AddInterpolator installs (or replaces) the probability map for a case.
// Ramachandran maps are functions of phi and psi, so the interpolator must
// be two-dimensional.
func (m *RamaMgr) AddInterpolator(c RamaCase, interp *interpolation.RegularGridInterpolator) error {
	if !c.Valid() {
		return errors.InvalidParam(fmt.Sprintf("case %s cannot carry a probability map", c))
	}
	if interp == nil {
		return errors.InvalidParam("interpolator must not be nil")
	}
	if interp.Dim() != 2 {
		return errors.New(errors.CodeGridDimensionMismatch,
			fmt.Sprintf("a Ramachandran map must be 2-D, got %d-D", interp.Dim()))
	}
	m.interpolators[c] = interp
	m.logger.Info("probability map installed", logging.String("case", c.String()))
	return nil
}

// SetCutoffs overrides the thresholds for a case.  Allowed below outlier is
// rejected since it would make the bins overlap.
func (m *RamaMgr) SetCutoffs(c RamaCase, allowed, outlier float64) error {
	if !c.Valid() {
		return errors.InvalidParam(fmt.Sprintf("case %s carries no cutoffs", c))
	}
	if allowed < outlier {
		return errors.InvalidParam("allowed cutoff must not be below outlier cutoff")
	}
	m.cutoffs[c] = Cutoffs{Allowed: allowed, Outlier: outlier}
	return nil
}

// CutoffsFor returns the thresholds for a case.
func (m *RamaMgr) CutoffsFor(c RamaCase) (Cutoffs, error) {
	if cut, ok := m.cutoffs[c]; ok {
		return cut, nil
	}
	return Cutoffs{}, errors.New(errors.CodeCaseNotRegistered,
		fmt.Sprintf("no cutoffs for case %s", c))
}

// SetColorScale replaces the display color scale.
func (m *RamaMgr) SetColorScale(s ColorScale) { m.colors = s }

// ColorScale returns the current display color scale.
func (m *RamaMgr) ColorScale() ColorScale { return m.colors }

// ─────────────────────────────────────────────────────────────────────────────
// Classification
// ─────────────────────────────────────────────────────────────────────────────

// CaseForResidue classifies a residue from topology alone: its name, the
// identity of the following residue, and whether phi and psi resolve.  It
// never consults coordinates, so proline classifies as trans-proline; callers
// that have determined cis peptide geometry by other means pass CaseCisPro
// explicitly to ScoreCase.
func (m *RamaMgr) CaseForResidue(res *structure.Residue) RamaCase {
	if res == nil {
		return CaseNone
	}
	psi, err := m.dihedrals.GetDihedral(res, dihedral.Psi, true)
	if err != nil {
		return CaseNone
	}
	if _, err := m.dihedrals.GetDihedral(res, dihedral.Phi, true); err != nil {
		return CaseNone
	}
	switch {
	case res.Name() == "PRO":
		return CaseTransPro
	case res.Name() == "GLY":
		return CaseGlycine
	case psi.Atoms()[3].Residue().Name() == "PRO":
		return CasePrePro
	case res.Name() == "ILE" || res.Name() == "VAL":
		return CaseIleVal
	default:
		return CaseGeneral
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Scoring
// ─────────────────────────────────────────────────────────────────────────────

// Score classifies a residue and returns its probability score from live
// phi/psi coordinates, or NoScore when the residue cannot be scored.
func (m *RamaMgr) Score(res *structure.Residue) (float64, RamaCase) {
	c := m.CaseForResidue(res)
	return m.ScoreCase(res, c), c
}

// ScoreCase scores a residue under an explicitly chosen case.  This is the
// escape hatch for cis-proline, whose detection requires geometry the
// classifier deliberately avoids.
func (m *RamaMgr) ScoreCase(res *structure.Residue, c RamaCase) float64 {
	if res == nil || !c.Valid() {
		return NoScore
	}
	interp, ok := m.interpolators[c]
	if !ok {
		return NoScore
	}
	phi, err := m.dihedrals.GetDihedral(res, dihedral.Phi, true)
	if err != nil {
		return NoScore
	}
	psi, err := m.dihedrals.GetDihedral(res, dihedral.Psi, true)
	if err != nil {
		return NoScore
	}
	phiA, psiA := phi.Angle(), psi.Angle()
	if math.IsNaN(phiA) || math.IsNaN(psiA) {
		return NoScore
	}
	score, err := interp.InterpolateOne([]float64{phiA, psiA})
	if err != nil {
		return NoScore
	}
	if m.metrics != nil {
		m.metrics.InterpolationQueries.Inc()
	}
	return score
}

// ScoreAll scores a batch of residues, classifying each.  Unscoreable
// residues yield NoScore and CaseNone rather than aborting the batch.
func (m *RamaMgr) ScoreAll(residues []*structure.Residue) ([]float64, []RamaCase) {
	scores := make([]float64, len(residues))
	cases := make([]RamaCase, len(residues))
	for i, res := range residues {
		scores[i], cases[i] = m.Score(res)
	}
	return scores, cases
}

// ScoreAllCases scores a batch under caller-supplied cases, one per residue.
func (m *RamaMgr) ScoreAllCases(residues []*structure.Residue, cases []RamaCase) ([]float64, error) {
	if len(residues) != len(cases) {
		return nil, errors.InvalidParam("residues and cases must have equal length")
	}
	scores := make([]float64, len(residues))
	for i, res := range residues {
		scores[i] = m.ScoreCase(res, cases[i])
	}
	return scores, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Binning and coloring
// ─────────────────────────────────────────────────────────────────────────────

// Bin classifies a score against the case's cutoffs.  A score exactly at a
// threshold falls in the more permissive bin on both boundaries.
func (m *RamaMgr) Bin(score float64, c RamaCase) RamaBin {
	cut, ok := m.cutoffs[c]
	if !ok || score == NoScore {
		return BinNotApplicable
	}
	switch {
	case score > cut.Allowed:
		return BinFavored
	case score >= cut.Outlier:
		return BinAllowed
	default:
		return BinOutlier
	}
}

// Color maps a score onto the display scale: outlier color at or below the
// outlier cutoff, blending to the allowed color at the allowed cutoff, then
// to the favored color at probability 1.
func (m *RamaMgr) Color(score float64, c RamaCase) RGBA {
	cut, ok := m.cutoffs[c]
	if !ok || score == NoScore {
		return m.colors.NotApplicable
	}
	switch {
	case score <= cut.Outlier:
		return m.colors.Outlier
	case score <= cut.Allowed:
		t := (score - cut.Outlier) / (cut.Allowed - cut.Outlier)
		return blend(m.colors.Outlier, m.colors.Allowed, t)
	default:
		if cut.Allowed >= 1 {
			return m.colors.Favored
		}
		t := (score - cut.Allowed) / (1.0 - cut.Allowed)
		return blend(m.colors.Allowed, m.colors.Favored, t)
	}
}

// ColorAll maps a batch of scores onto display colors.
func (m *RamaMgr) ColorAll(scores []float64, cases []RamaCase) ([]RGBA, error) {
	if len(scores) != len(cases) {
		return nil, errors.InvalidParam("scores and cases must have equal length")
	}
	out := make([]RGBA, len(scores))
	for i := range scores {
		out[i] = m.Color(scores[i], cases[i])
	}
	return out, nil
}
