package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	// FactorsPath is a .hcl factor file or a directory of them. Empty means
	// the built-in predefined factors (UsePredefined must then be set).
	FactorsPath   string
	UsePredefined bool

	// OutputDir receives one module (and its generated source) per library.
	OutputDir string

	// CC overrides toolchain discovery; empty means $CC, then "cc".
	CC string

	LogFormat string
	LogLevel  string

	// Workers bounds how many libraries compile concurrently. Each library
	// has its own output path, so concurrent compiles never share state.
	Workers int

	// Describe prints function renderings instead of compiling.
	Describe bool
	// EmitOnly stops after generating intermediate source; no toolchain runs.
	EmitOnly bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FactorsPath == "" && !cfg.UsePredefined {
		return nil, errors.New("either FactorsPath or UsePredefined is required")
	}
	if cfg.FactorsPath != "" && cfg.UsePredefined {
		return nil, errors.New("FactorsPath and UsePredefined are mutually exclusive")
	}
	if cfg.OutputDir == "" && !cfg.Describe {
		return nil, errors.New("OutputDir is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 1 {
		return nil, errors.New("Workers must be at least 1")
	}
	return &cfg, nil
}
