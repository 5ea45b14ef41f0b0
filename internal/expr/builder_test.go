package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scope activation is process-wide, so tests in this file do not run in
// parallel with each other.

func TestBuild_TopologicalOrder(t *testing.T) {
	fn, err := Build(func(g *Graph) error {
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
		if err := g.Output(g.Div(num, den), "s"); err != nil {
			return err
		}
		return g.Output(g.MulScalar(num, 2), "s2")
	})
	require.NoError(t, err)

	for _, n := range fn.Nodes() {
		for _, op := range n.Operands() {
			assert.Less(t, op, n.Index(), "operand of v%d must precede it", n.Index())
		}
	}
}

func TestInput_DuplicateSymbol(t *testing.T) {
	b := NewBuilder()
	g, err := b.Enter()
	require.NoError(t, err)
	defer b.Abort()

	_, err = g.Input("close")
	require.NoError(t, err)

	_, err = g.Input("close")
	var dup *DuplicateSymbolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "close", dup.Name)
}

func TestOutput_DuplicateSymbol(t *testing.T) {
	t.Run("output vs output", func(t *testing.T) {
		b := NewBuilder()
		g, err := b.Enter()
		require.NoError(t, err)
		defer b.Abort()

		in, err := g.Input("x")
		require.NoError(t, err)

		// Pad the graph so the collision is not at index zero.
		v := g.AddScalar(in, 1)
		v = g.MulScalar(v, 3)

		require.NoError(t, g.Output(v, "out"))
		err = g.Output(in, "out")
		var dup *DuplicateSymbolError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "out", dup.Name)
	})

	t.Run("output vs input", func(t *testing.T) {
		b := NewBuilder()
		g, err := b.Enter()
		require.NoError(t, err)
		defer b.Abort()

		in, err := g.Input("x")
		require.NoError(t, err)

		err = g.Output(in, "x")
		var dup *DuplicateSymbolError
		require.ErrorAs(t, err, &dup)
	})

	t.Run("duplicate is fatal to the scope", func(t *testing.T) {
		_, err := Build(func(g *Graph) error {
			in, err := g.Input("x")
			require.NoError(t, err)
			require.NoError(t, g.Output(in, "a"))
			g.Output(in, "a") // ignored on purpose; the scope is poisoned
			return nil
		})
		var dup *DuplicateSymbolError
		require.ErrorAs(t, err, &dup)
	})
}

func TestEnter_NestedScope(t *testing.T) {
	b1 := NewBuilder()
	_, err := b1.Enter()
	require.NoError(t, err)

	b2 := NewBuilder()
	_, err = b2.Enter()
	require.ErrorIs(t, err, ErrNestedScope)

	// Releasing the first scope unblocks activation.
	b1.Abort()
	g2, err := b2.Enter()
	require.NoError(t, err)
	require.NotNil(t, g2)
	b2.Abort()
}

func TestConstruction_OutsideScope(t *testing.T) {
	b := NewBuilder()
	g, err := b.Enter()
	require.NoError(t, err)
	b.Abort()

	_, err = g.Input("x")
	require.ErrorIs(t, err, ErrInvalidState)
	require.ErrorIs(t, g.Output(nil, "y"), ErrInvalidState)
	assert.Nil(t, g.Const(1))
}

func TestBuilder_NotReusable(t *testing.T) {
	b := NewBuilder()
	_, err := b.Enter()
	require.NoError(t, err)
	b.Abort()

	_, err = b.Enter()
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestFinish_NoOutputs(t *testing.T) {
	_, err := Build(func(g *Graph) error {
		in, err := g.Input("x")
		require.NoError(t, err)
		g.AddScalar(in, 1)
		return nil
	})
	require.ErrorIs(t, err, ErrNoOutputs)
}

func TestFinish_StickyOperandError(t *testing.T) {
	_, err := Build(func(g *Graph) error {
		in, err := g.Input("x")
		require.NoError(t, err)
		v := g.Add(in, nil) // poisons the scope
		assert.Nil(t, v)
		return g.Output(in, "out")
	})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestBuild_ReleasesOnPanic(t *testing.T) {
	require.Panics(t, func() {
		_, _ = Build(func(g *Graph) error {
			panic("boom")
		})
	})

	// The scope slot must be free again.
	fn, err := Build(func(g *Graph) error {
		in, err := g.Input("x")
		if err != nil {
			return err
		}
		return g.Output(in, "out")
	})
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestOperand_ForeignScope(t *testing.T) {
	b1 := NewBuilder()
	g1, err := b1.Enter()
	require.NoError(t, err)
	foreign, err := g1.Input("x")
	require.NoError(t, err)
	b1.Abort()

	_, err = Build(func(g *Graph) error {
		in, err := g.Input("y")
		require.NoError(t, err)
		g.Add(in, foreign)
		return g.Output(in, "out")
	})
	require.ErrorIs(t, err, ErrInvalidState)
}
