package config

// ApplyDefaults fills every unset field of cfg with its default value.
// Explicit zero values for the limits cannot be distinguished from unset
// fields; operators who genuinely want a zero limit set a tiny positive
// value instead.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Limits.MaxLinearSpringConstant == 0 {
		cfg.Limits.MaxLinearSpringConstant = 100000.0
	}
	if cfg.Limits.MaxTorsionSpringConstant == 0 {
		cfg.Limits.MaxTorsionSpringConstant = 10000.0
	}
	if cfg.Limits.MinDistanceTarget == 0 {
		cfg.Limits.MinDistanceTarget = 1.0
	}

	if cfg.Validation.Cutoffs == nil {
		cfg.Validation.Cutoffs = map[string]CutoffConfig{}
	}
	defaultCutoffs := map[string]CutoffConfig{
		"general":  {Allowed: 0.02, Outlier: 0.0005},
		"glycine":  {Allowed: 0.02, Outlier: 0.002},
		"cispro":   {Allowed: 0.02, Outlier: 0.002},
		"transpro": {Allowed: 0.02, Outlier: 0.002},
		"prepro":   {Allowed: 0.02, Outlier: 0.002},
		"ileval":   {Allowed: 0.02, Outlier: 0.002},
	}
	for name, cut := range defaultCutoffs {
		if _, ok := cfg.Validation.Cutoffs[name]; !ok {
			cfg.Validation.Cutoffs[name] = cut
		}
	}

	colors := &cfg.Validation.Colors
	if colors.Favored == nil {
		colors.Favored = []uint8{0, 255, 0, 255}
	}
	if colors.Allowed == nil {
		colors.Allowed = []uint8{255, 240, 50, 255}
	}
	if colors.Outlier == nil {
		colors.Outlier = []uint8{255, 0, 100, 255}
	}
	if colors.NotApplicable == nil {
		colors.NotApplicable = []uint8{128, 128, 128, 255}
	}
}
