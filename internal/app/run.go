package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/quantfold/factorc/internal/compile"
	"github.com/quantfold/factorc/internal/ctxlog"
)

// Run executes the application: load factor definitions, then describe,
// emit, or compile them.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	libs, err := a.collectLibraries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load factor definitions: %w", err)
	}
	a.logger.Info("Factor libraries collected.", "count", len(libs))

	if a.config.Describe {
		return a.describe(libs)
	}

	// Libraries are independent: each compiles to its own path, so they can
	// run concurrently. Failures don't cancel siblings; the caller gets
	// every failure at once.
	group := errgroup.Group{}
	group.SetLimit(a.config.Workers)
	errs := make([]error, len(libs))
	for i, lib := range libs {
		i, lib := i, lib
		group.Go(func() error {
			errs[i] = a.compileLibrary(ctx, lib)
			return nil
		})
	}
	_ = group.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}
	a.logger.Info("All libraries compiled.", "count", len(libs))
	return nil
}

// describe prints each function's rendering instead of compiling.
func (a *App) describe(libs []library) error {
	for _, lib := range libs {
		for _, e := range lib.entries {
			fmt.Fprintf(a.outW, "# %s/%s (%s -> %s)\n%s\n\n",
				lib.name, e.Symbol, e.Config.InputLayout, e.Config.OutputLayout, e.Fn)
		}
	}
	return nil
}

func (a *App) compileLibrary(ctx context.Context, lib library) error {
	logger := a.logger.With("library", lib.name)
	stem := filepath.Join(a.config.OutputDir, lib.name)

	if a.config.EmitOnly {
		source, _, err := a.driver.Lower(lib.entries)
		if err != nil {
			return fmt.Errorf("library %q: %w", lib.name, err)
		}
		if err := os.MkdirAll(a.config.OutputDir, 0o755); err != nil {
			return fmt.Errorf("library %q: %w", lib.name, err)
		}
		if err := os.WriteFile(stem+".c", []byte(source), 0o644); err != nil {
			return fmt.Errorf("library %q: %w", lib.name, err)
		}
		logger.Info("Intermediate source emitted.", "path", stem+".c")
		return nil
	}

	artifact, err := a.driver.Compile(ctx, lib.entries, stem)
	if err != nil {
		return fmt.Errorf("library %q: %w", lib.name, err)
	}

	for _, r := range artifact.Routines {
		attrs := []any{
			"symbol", r.Symbol,
			"input_layout", r.InputLayout.String(),
			"output_layout", r.OutputLayout.String(),
			"params", describeParams(r),
		}
		if r.Streaming() {
			attrs = append(attrs, "init", r.InitSymbol, "state_size", r.StateSizeSymbol)
		}
		logger.Info("Routine published.", attrs...)
	}
	logger.Info("Library compiled.", "module", artifact.Path)
	return nil
}

func describeParams(r compile.Routine) []string {
	params := make([]string, 0, len(r.Params))
	for _, p := range r.Params {
		dir := "in"
		if p.Dir == compile.ParamOut {
			dir = "out"
		}
		params = append(params, dir+":"+p.Name)
	}
	return params
}
