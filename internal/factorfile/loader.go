// Package factorfile loads declarative factor definitions from .hcl files
// and translates them into expression functions plus compilation configs.
//
// A factor file looks like:
//
//	factor "range_ratio" {
//	  input_layout  = "TS"
//	  output_layout = "STREAM"
//
//	  output "s" {
//	    expr = (close - open) / ((high - low) + 0.001)
//	  }
//	}
//
// Bare identifiers in expressions are input columns; numeric literals are
// lifted into constants. Only the arithmetic operators +, -, *, / (and unary
// minus) are accepted — anything else is rejected with a source-ranged error
// before a graph is built.
package factorfile

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/quantfold/factorc/internal/compile"
	"github.com/quantfold/factorc/internal/ctxlog"
	"github.com/quantfold/factorc/internal/expr"
)

// Definition is one loaded factor: its name (the exported symbol), the built
// function, the layout configuration, and the file it came from.
type Definition struct {
	Name       string
	Fn         *expr.Function
	Config     compile.Config
	SourceFile string
}

// fileRoot decodes the top-level blocks of one factor file.
type fileRoot struct {
	Factors []*factorBlock `hcl:"factor,block"`
}

type factorBlock struct {
	Name         string         `hcl:"name,label"`
	InputLayout  string         `hcl:"input_layout,optional"`
	OutputLayout string         `hcl:"output_layout,optional"`
	Outputs      []*outputBlock `hcl:"output,block"`
}

type outputBlock struct {
	Name string         `hcl:"name,label"`
	Expr hcl.Expression `hcl:"expr"`
}

// Loader loads factor definitions from files and directories.
type Loader struct{}

// NewLoader creates a factor file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from the given paths (files or
// directories) and returns the factor definitions in file, then declaration,
// order.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]Definition, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findFactorFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered factor files.", "count", len(files))

	parser := hclparse.NewParser()
	var defs []Definition
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("factorfile: parse %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("factorfile: decode %s: %w", file, diags)
		}

		for _, fb := range root.Factors {
			def, err := translateFactor(fb, file)
			if err != nil {
				return nil, err
			}
			logger.Debug("Factor loaded.", "name", def.Name, "file", file,
				"inputs", def.Fn.Inputs(), "outputs", def.Fn.Outputs())
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func translateFactor(fb *factorBlock, file string) (Definition, error) {
	cfg, err := layoutConfig(fb)
	if err != nil {
		return Definition{}, fmt.Errorf("factorfile: factor %q: %w", fb.Name, err)
	}

	fn, err := expr.Build(func(g *expr.Graph) error {
		tr := newTranslator(g)
		for _, ob := range fb.Outputs {
			node, err := tr.lower(ob.Expr)
			if err != nil {
				return err
			}
			if err := g.Output(node, ob.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Definition{}, fmt.Errorf("factorfile: factor %q: %w", fb.Name, err)
	}

	return Definition{Name: fb.Name, Fn: fn, Config: cfg, SourceFile: file}, nil
}

func layoutConfig(fb *factorBlock) (compile.Config, error) {
	input := fb.InputLayout
	if input == "" {
		input = "TS"
	}
	output := fb.OutputLayout
	if output == "" {
		output = "TS"
	}

	inLayout, err := compile.ParseLayout(input)
	if err != nil {
		return compile.Config{}, err
	}
	outLayout, err := compile.ParseLayout(output)
	if err != nil {
		return compile.Config{}, err
	}
	return compile.Config{InputLayout: inLayout, OutputLayout: outLayout}, nil
}

// findFactorFiles flattens the given files and directories into a deduplicated
// list of .hcl files.
func findFactorFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(path string) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("factorfile: stat %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".hcl") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("factorfile: walk %s: %w", path, err)
		}
	}
	return files, nil
}
