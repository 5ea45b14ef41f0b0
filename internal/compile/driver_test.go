package compile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/factorc/internal/expr"
)

// Graph construction holds the process-wide builder scope, so tests that
// build functions do not run in parallel.

// fakeToolchain stands in for the external collaborator. It records every
// invocation so tests can prove validation happens before any delegation.
type fakeToolchain struct {
	calls      int
	fail       bool
	lastSource string
}

func (f *fakeToolchain) Build(_ context.Context, sourcePath, modulePath string, _ BackendOptions) error {
	f.calls++
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	f.lastSource = string(data)
	if f.fail {
		return &CompilationError{Diagnostics: "synthetic diagnostic", Err: errors.New("exit status 1")}
	}
	return os.WriteFile(modulePath, []byte("fake module"), 0o755)
}

func tsConfig() Config {
	return Config{InputLayout: LayoutTimeSeries, OutputLayout: LayoutTimeSeries}
}

func buildTriple(t *testing.T) *expr.Function {
	t.Helper()
	fn, err := expr.Build(func(g *expr.Graph) error {
		in, err := g.Input("input")
		if err != nil {
			return err
		}
		return g.Output(g.Add(in, g.MulScalar(in, 2)), "output")
	})
	require.NoError(t, err)
	return fn
}

func buildRangeRatio(t *testing.T) *expr.Function {
	t.Helper()
	fn, err := expr.Build(func(g *expr.Graph) error {
		closeP, err := g.Input("close")
		if err != nil {
			return err
		}
		openP, err := g.Input("open")
		if err != nil {
			return err
		}
		high, err := g.Input("high")
		if err != nil {
			return err
		}
		low, err := g.Input("low")
		if err != nil {
			return err
		}
		num := g.Sub(closeP, openP)
		den := g.AddScalar(g.Sub(high, low), 0.001)
		return g.Output(g.Div(num, den), "s")
	})
	require.NoError(t, err)
	return fn
}

func TestCompile_Publishes(t *testing.T) {
	tc := &fakeToolchain{}
	driver := NewDriver(tc)
	// The parent directory does not exist yet; Compile must create it.
	stem := filepath.Join(t.TempDir(), "libs", "triple_lib")

	artifact, err := driver.Compile(context.Background(), []Entry{
		{Symbol: "triple", Fn: buildTriple(t), Config: tsConfig()},
	}, stem)
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, stem+".so", artifact.Path)
	assert.FileExists(t, stem+".so")
	require.Len(t, artifact.Sources, 1)
	assert.FileExists(t, artifact.Sources[0])
	assert.Equal(t, 1, tc.calls)

	routine := artifact.Routine("triple")
	require.NotNil(t, routine)
	assert.False(t, routine.Streaming())
	require.Len(t, routine.Params, 2)
	assert.Equal(t, "input", routine.Params[0].Name)
	assert.Equal(t, ParamIn, routine.Params[0].Dir)
	assert.Equal(t, "output", routine.Params[1].Name)
	assert.Equal(t, ParamOut, routine.Params[1].Dir)
}

func TestCompile_SymbolConflict_NeverInvokesToolchain(t *testing.T) {
	tc := &fakeToolchain{}
	driver := NewDriver(tc)
	fn := buildTriple(t)

	entries := []Entry{
		{Symbol: "dup", Fn: fn, Config: tsConfig()},
		{Symbol: "dup", Fn: fn, Config: tsConfig()},
	}
	_, err := driver.Compile(context.Background(), entries, filepath.Join(t.TempDir(), "lib"))

	var conflict *SymbolConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "dup", conflict.Symbol)
	assert.Zero(t, tc.calls, "validation failures must not spawn the toolchain")
}

func TestCompile_FailureLeavesNoModule(t *testing.T) {
	tc := &fakeToolchain{fail: true}
	driver := NewDriver(tc)
	dir := t.TempDir()
	stem := filepath.Join(dir, "broken_lib")

	_, err := driver.Compile(context.Background(), []Entry{
		{Symbol: "triple", Fn: buildTriple(t), Config: tsConfig()},
	}, stem)

	var cerr *CompilationError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Diagnostics, "synthetic diagnostic")

	assert.NoFileExists(t, stem+".so")
	assert.NoFileExists(t, stem+".c")

	// The staging directory must be gone as well.
	leftovers, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCompile_Preconditions(t *testing.T) {
	driver := NewDriver(&fakeToolchain{})
	stem := filepath.Join(t.TempDir(), "lib")

	t.Run("no entries", func(t *testing.T) {
		_, err := driver.Compile(context.Background(), nil, stem)
		require.ErrorIs(t, err, ErrNoEntries)
	})

	t.Run("invalid symbol", func(t *testing.T) {
		_, err := driver.Compile(context.Background(), []Entry{
			{Symbol: "not a symbol", Fn: buildTriple(t), Config: tsConfig()},
		}, stem)
		var invalid *InvalidSymbolError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("missing function", func(t *testing.T) {
		_, err := driver.Compile(context.Background(), []Entry{
			{Symbol: "hollow", Config: tsConfig()},
		}, stem)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hollow")
	})

	t.Run("unvalidated layout", func(t *testing.T) {
		_, err := driver.Compile(context.Background(), []Entry{
			{Symbol: "bad_layout", Fn: buildTriple(t), Config: Config{}},
		}, stem)
		require.ErrorIs(t, err, ErrUnknownLayout)
	})
}

func TestCompile_TwoPathsSameFunction_IdenticalSource(t *testing.T) {
	fn := buildRangeRatio(t)
	cfg := Config{InputLayout: LayoutTimeSeries, OutputLayout: LayoutStream}
	entries := []Entry{{Symbol: "range_ratio", Fn: fn, Config: cfg}}

	tcA, tcB := &fakeToolchain{}, &fakeToolchain{}
	_, err := NewDriver(tcA).Compile(context.Background(), entries, filepath.Join(t.TempDir(), "a"))
	require.NoError(t, err)
	_, err = NewDriver(tcB).Compile(context.Background(), entries, filepath.Join(t.TempDir(), "b"))
	require.NoError(t, err)

	// Identical entries and configs lower identically; the two modules are
	// functionally equivalent by construction.
	assert.Equal(t, tcA.lastSource, tcB.lastSource)
	assert.NotEmpty(t, tcA.lastSource)
}

func TestLower_NoFilesystemTouch(t *testing.T) {
	driver := NewDriver(&fakeToolchain{})
	source, routines, err := driver.Lower([]Entry{
		{Symbol: "triple", Fn: buildTriple(t), Config: tsConfig()},
	})
	require.NoError(t, err)
	require.Len(t, routines, 1)
	assert.Contains(t, source, "void triple(")
}
