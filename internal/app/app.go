// Package app wires the factor loaders, the compilation driver, and the
// toolchain into one runnable application.
package app

import (
	"io"
	"log/slog"

	"github.com/quantfold/factorc/internal/compile"
	"github.com/quantfold/factorc/internal/factorfile"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader *factorfile.Loader
	driver *compile.Driver
}

// NewApp constructs the application with its own isolated logger. The
// optional toolchain override exists for tests; nil means the system C
// compiler selected by config.
func NewApp(outW io.Writer, cfg *Config, toolchain compile.Toolchain) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	if toolchain == nil {
		toolchain = compile.NewSystemToolchain(cfg.CC)
	}
	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: factorfile.NewLoader(),
		driver: compile.NewDriver(toolchain),
	}
}
