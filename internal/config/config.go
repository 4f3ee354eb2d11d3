// Package config defines the configuration structures for the MolVal engine.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"

	"github.com/turtacn/MolVal-Engine/internal/infrastructure/monitoring/logging"
)

// LimitsConfig holds the physical clamp limits applied by the restraint and
// dihedral registries.
type LimitsConfig struct {
	// MaxLinearSpringConstant caps position and distance restraint springs,
	// in kJ mol⁻¹ nm⁻².
	MaxLinearSpringConstant float64 `mapstructure:"max_linear_spring_constant"`

	// MaxTorsionSpringConstant caps dihedral restraint springs, in
	// kJ mol⁻¹ rad⁻².
	MaxTorsionSpringConstant float64 `mapstructure:"max_torsion_spring_constant"`

	// MinDistanceTarget is the floor for distance restraint targets, in Å.
	MinDistanceTarget float64 `mapstructure:"min_distance_target"`
}

// CutoffConfig holds the probability thresholds for one Ramachandran case.
type CutoffConfig struct {
	Allowed float64 `mapstructure:"allowed"`
	Outlier float64 `mapstructure:"outlier"`
}

// ColorsConfig holds the display color scale as RGBA quadruplets in 0–255.
type ColorsConfig struct {
	Favored       []uint8 `mapstructure:"favored"`
	Allowed       []uint8 `mapstructure:"allowed"`
	Outlier       []uint8 `mapstructure:"outlier"`
	NotApplicable []uint8 `mapstructure:"not_applicable"`
}

// ValidationConfig holds the Ramachandran scoring tunables.  Cutoffs is
// keyed by case name: "general", "glycine", "cispro", "transpro", "prepro",
// "ileval".
type ValidationConfig struct {
	Cutoffs map[string]CutoffConfig `mapstructure:"cutoffs"`
	Colors  ColorsConfig            `mapstructure:"colors"`
}

// Config is the root configuration object.
type Config struct {
	Log        logging.LogConfig `mapstructure:"log"`
	Limits     LimitsConfig      `mapstructure:"limits"`
	Validation ValidationConfig  `mapstructure:"validation"`
}

// knownCases lists the accepted keys of ValidationConfig.Cutoffs.
var knownCases = map[string]struct{}{
	"general": {}, "glycine": {}, "cispro": {}, "transpro": {},
	"prepro": {}, "ileval": {},
}

// Validate checks internal consistency.  It returns the first problem found.
func (c *Config) Validate() error {
	if c.Limits.MaxLinearSpringConstant < 0 {
		return fmt.Errorf("limits.max_linear_spring_constant must be non-negative, got %v",
			c.Limits.MaxLinearSpringConstant)
	}
	if c.Limits.MaxTorsionSpringConstant < 0 {
		return fmt.Errorf("limits.max_torsion_spring_constant must be non-negative, got %v",
			c.Limits.MaxTorsionSpringConstant)
	}
	if c.Limits.MinDistanceTarget < 0 {
		return fmt.Errorf("limits.min_distance_target must be non-negative, got %v",
			c.Limits.MinDistanceTarget)
	}
	for name, cut := range c.Validation.Cutoffs {
		if _, ok := knownCases[name]; !ok {
			return fmt.Errorf("validation.cutoffs: unknown case %q", name)
		}
		if cut.Allowed < cut.Outlier {
			return fmt.Errorf("validation.cutoffs.%s: allowed (%v) below outlier (%v)",
				name, cut.Allowed, cut.Outlier)
		}
	}
	for name, color := range map[string][]uint8{
		"favored":        c.Validation.Colors.Favored,
		"allowed":        c.Validation.Colors.Allowed,
		"outlier":        c.Validation.Colors.Outlier,
		"not_applicable": c.Validation.Colors.NotApplicable,
	} {
		if len(color) != 4 {
			return fmt.Errorf("validation.colors.%s: expected 4 RGBA components, got %d",
				name, len(color))
		}
	}
	return nil
}
