package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTriple(t *testing.T) *Function {
	t.Helper()
	fn, err := Build(func(g *Graph) error {
		in, err := g.Input("input")
		if err != nil {
			return err
		}
		doubled := g.MulScalar(in, 2)
		return g.Output(g.Add(in, doubled), "output")
	})
	require.NoError(t, err)
	return fn
}

func TestFunction_String(t *testing.T) {
	fn := buildTriple(t)

	want := `v0 = input("input")
v1 = const(2)
v2 = mul(v0, v1)
v3 = add(v0, v2)
v4 = output("output", v3)`
	assert.Equal(t, want, fn.String())
}

func TestFunction_String_Deterministic(t *testing.T) {
	a := buildTriple(t)
	b := buildTriple(t)
	assert.Equal(t, a.String(), b.String())
}

func TestFunction_Names(t *testing.T) {
	fn, err := Build(func(g *Graph) error {
		closeP, err := g.Input("close")
		if err != nil {
			return err
		}
		openP, err := g.Input("open")
		if err != nil {
			return err
		}
		if err := g.Output(g.Sub(closeP, openP), "gap"); err != nil {
			return err
		}
		return g.Output(g.Add(closeP, openP), "sum")
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"close", "open"}, fn.Inputs())
	assert.Equal(t, []string{"gap", "sum"}, fn.Outputs())
	assert.Equal(t, 7, fn.Len())
}

func TestFunction_ConstRendering(t *testing.T) {
	fn, err := Build(func(g *Graph) error {
		in, err := g.Input("x")
		if err != nil {
			return err
		}
		return g.Output(g.AddScalar(in, 0.001), "out")
	})
	require.NoError(t, err)
	assert.Contains(t, fn.String(), "const(0.001)")
}
