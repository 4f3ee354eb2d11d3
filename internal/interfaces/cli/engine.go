package cli

import (
	"fmt"

	"github.com/turtacn/MolVal-Engine/internal/config"
	"github.com/turtacn/MolVal-Engine/internal/domain/dihedral"
	"github.com/turtacn/MolVal-Engine/internal/domain/restraints"
	"github.com/turtacn/MolVal-Engine/internal/domain/structure"
	"github.com/turtacn/MolVal-Engine/internal/domain/tracking"
	"github.com/turtacn/MolVal-Engine/internal/domain/validation"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/prometheus"
)

// Engine bundles the registries for one structure, with the configured
// limits, cutoffs and color scale applied.  Commands assemble it once per
// structure instead of wiring the managers by hand.
type Engine struct {
	Tracker   *tracking.Tracker
	Dihedrals *dihedral.Manager
	Positions *restraints.PositionRestraintMgr
	Distances *restraints.DistanceRestraintMgr
	Rama      *validation.RamaMgr
}

// caseByName maps the configuration case keys onto their RamaCase.
var caseByName = map[string]validation.RamaCase{
	"general":  validation.CaseGeneral,
	"glycine":  validation.CaseGlycine,
	"cispro":   validation.CaseCisPro,
	"transpro": validation.CaseTransPro,
	"prepro":   validation.CasePrePro,
	"ileval":   validation.CaseIleVal,
}

// NewEngine assembles the registries for s and applies cfg: spring and
// distance limits onto the managers, cutoffs and colors onto the
// Ramachandran manager.  The standard backbone definitions are registered.
func NewEngine(cfg *config.Config, s *structure.Structure, logger logging.Logger, metrics *prometheus.Metrics) (*Engine, error) {
	tracker := tracking.NewTracker(metrics)
	e := &Engine{
		Tracker:   tracker,
		Dihedrals: dihedral.NewManager(s, tracker, logger, metrics),
		Positions: restraints.NewPositionRestraintMgr(s, tracker, logger, metrics),
		Distances: restraints.NewDistanceRestraintMgr(s, tracker, logger, metrics),
	}

	e.Dihedrals.SetMaxSpringConstant(cfg.Limits.MaxTorsionSpringConstant)
	e.Positions.SetMaxSpringConstant(cfg.Limits.MaxLinearSpringConstant)
	e.Distances.SetMaxSpringConstant(cfg.Limits.MaxLinearSpringConstant)
	e.Distances.SetMinDistanceTarget(cfg.Limits.MinDistanceTarget)

	if err := dihedral.RegisterBackboneDefs(e.Dihedrals); err != nil {
		e.Close()
		return nil, err
	}

	e.Rama = validation.NewRamaMgr(e.Dihedrals, logger, metrics)
	for name, cut := range cfg.Validation.Cutoffs {
		c, ok := caseByName[name]
		if !ok {
			e.Close()
			return nil, fmt.Errorf("cli: unknown validation case %q", name)
		}
		if err := e.Rama.SetCutoffs(c, cut.Allowed, cut.Outlier); err != nil {
			e.Close()
			return nil, err
		}
	}
	e.Rama.SetColorScale(validation.ColorScale{
		Favored:       rgbaFromConfig(cfg.Validation.Colors.Favored),
		Allowed:       rgbaFromConfig(cfg.Validation.Colors.Allowed),
		Outlier:       rgbaFromConfig(cfg.Validation.Colors.Outlier),
		NotApplicable: rgbaFromConfig(cfg.Validation.Colors.NotApplicable),
	})
	return e, nil
}

// Close unsubscribes every registry from the structure's destruction feed.
func (e *Engine) Close() {
	e.Distances.Close()
	e.Positions.Close()
	e.Dihedrals.Close()
}

// rgbaFromConfig converts a validated 4-component quadruplet.
func rgbaFromConfig(c []uint8) validation.RGBA {
	return validation.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}
