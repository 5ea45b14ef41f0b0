package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quantfold/factorc/internal/compile"
	"github.com/quantfold/factorc/internal/predefined"
)

// library is one compile call: a named batch of entries that becomes a
// single module under OutputDir.
type library struct {
	name    string
	entries []compile.Entry
}

// collectLibraries resolves the configured factor source into libraries.
// Factor files map one file to one library; the built-in factors become a
// single "predefined" library.
func (a *App) collectLibraries(ctx context.Context) ([]library, error) {
	if a.config.UsePredefined {
		cfg := compile.Config{
			InputLayout:  compile.LayoutTimeSeries,
			OutputLayout: compile.LayoutTimeSeries,
		}
		entries, err := predefined.Entries(cfg)
		if err != nil {
			return nil, err
		}
		return []library{{name: "predefined", entries: entries}}, nil
	}

	defs, err := a.loader.Load(ctx, a.config.FactorsPath)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no factors found under %s", a.config.FactorsPath)
	}

	var libs []library
	byFile := make(map[string]int)
	sourceOf := make(map[string]string)
	for _, def := range defs {
		name := strings.TrimSuffix(filepath.Base(def.SourceFile), ".hcl")
		idx, ok := byFile[def.SourceFile]
		if !ok {
			// Two files with the same base name would race for one module
			// path; refuse rather than guess.
			if other, taken := sourceOf[name]; taken {
				return nil, fmt.Errorf("factor files %q and %q collide on library name %q",
					other, def.SourceFile, name)
			}
			sourceOf[name] = def.SourceFile
			libs = append(libs, library{name: name})
			idx = len(libs) - 1
			byFile[def.SourceFile] = idx
		}
		libs[idx].entries = append(libs[idx].entries, compile.Entry{
			Symbol: def.Name,
			Fn:     def.Fn,
			Config: def.Config,
		})
	}
	return libs, nil
}
