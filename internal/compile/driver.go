package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"github.com/quantfold/factorc/internal/ctxlog"
	"github.com/quantfold/factorc/internal/expr"
)

// Entry is the unit submitted to the driver: one exported symbol, the
// function it computes, and the layout/backend configuration it is compiled
// under.
type Entry struct {
	Symbol string
	Fn     *expr.Function
	Config Config
}

// Driver lowers batches of entries and delegates native compilation to a
// Toolchain. A Driver is stateless and safe for concurrent Compile calls on
// distinct output paths.
type Driver struct {
	toolchain Toolchain
}

// NewDriver creates a driver around the given toolchain. A nil toolchain
// means the system C compiler.
func NewDriver(toolchain Toolchain) *Driver {
	if toolchain == nil {
		toolchain = NewSystemToolchain("")
	}
	return &Driver{toolchain: toolchain}
}

var symbolPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validate runs every precondition check. It aggregates independent entry
// failures so a caller sees all of them at once, and it runs to completion
// before any subprocess is spawned.
func validate(entries []Entry) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}

	var errs error
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !symbolPattern.MatchString(e.Symbol) {
			errs = multierr.Append(errs, &InvalidSymbolError{Symbol: e.Symbol})
			continue
		}
		if _, dup := seen[e.Symbol]; dup {
			errs = multierr.Append(errs, &SymbolConflictError{Symbol: e.Symbol})
			continue
		}
		seen[e.Symbol] = struct{}{}

		if e.Fn == nil {
			errs = multierr.Append(errs, fmt.Errorf("compile: entry %q has no function", e.Symbol))
			continue
		}
		if len(e.Fn.Outputs()) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("compile: entry %q: %w", e.Symbol, expr.ErrNoOutputs))
		}
		if err := e.Config.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("compile: entry %q: %w", e.Symbol, err))
			continue
		}
		if err := checkEntryLayout(e); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Lower validates the entries and produces the intermediate source plus
// per-symbol calling metadata, without touching the toolchain or the
// filesystem.
func (d *Driver) Lower(entries []Entry) (string, []Routine, error) {
	if err := validate(entries); err != nil {
		return "", nil, err
	}
	source, routines := generateSource(entries)
	return source, routines, nil
}

// Compile lowers all entries into one generated translation unit, delegates
// to the toolchain, and atomically publishes the module and its source next
// to outputPath. outputPath is the module path stem; the module lands at
// stem+".so" and the source at stem+".c". The parent directory is created if
// absent.
//
// On any failure nothing is published: intermediate files live in a
// temporary directory that is removed, and a previously published module at
// the same stem is left untouched.
func (d *Driver) Compile(ctx context.Context, entries []Entry, outputPath string) (*Artifact, error) {
	logger := ctxlog.FromContext(ctx).With("module", outputPath)
	logger.Debug("Compile started.", "entries", len(entries))

	source, routines, err := d.Lower(entries)
	if err != nil {
		logger.Debug("Validation failed; toolchain not invoked.", "error", err)
		return nil, err
	}

	stem := strings.TrimSuffix(outputPath, ".so")
	dir, base := filepath.Dir(stem), filepath.Base(stem)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("compile: create output directory: %w", err)
	}

	// Stage everything in a temp directory on the same filesystem so the
	// final renames are atomic.
	tmpDir, err := os.MkdirTemp(dir, "."+base+"-")
	if err != nil {
		return nil, fmt.Errorf("compile: create staging directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	stagedSource := filepath.Join(tmpDir, base+".c")
	stagedModule := filepath.Join(tmpDir, base+".so")
	if err := os.WriteFile(stagedSource, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("compile: write generated source: %w", err)
	}

	logger.Debug("Delegating to toolchain.", "source", stagedSource)
	if err := d.toolchain.Build(ctx, stagedSource, stagedModule, mergeBackendOptions(entries)); err != nil {
		var cerr *CompilationError
		if !errors.As(err, &cerr) {
			err = &CompilationError{Err: err}
		}
		logger.Error("Toolchain failed.", "error", err)
		return nil, err
	}

	finalSource := stem + ".c"
	finalModule := stem + ".so"
	if err := os.Rename(stagedSource, finalSource); err != nil {
		return nil, fmt.Errorf("compile: publish generated source: %w", err)
	}
	// The module rename comes last: its appearance is the publication.
	if err := os.Rename(stagedModule, finalModule); err != nil {
		return nil, fmt.Errorf("compile: publish module: %w", err)
	}

	logger.Debug("Module published.", "path", finalModule, "routines", len(routines))
	return &Artifact{
		Path:     finalModule,
		Sources:  []string{finalSource},
		Routines: routines,
	}, nil
}
