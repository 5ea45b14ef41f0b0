package expr

import (
	"fmt"
	"sync"
)

// scopeMu guards the process-wide current-scope slot.
var (
	scopeMu     sync.Mutex
	activeScope *Builder
)

type builderState uint8

const (
	stateIdle builderState = iota
	stateActive
	stateFinished
)

// Builder is the scoped collector of expression nodes. A builder is created
// idle, activated with Enter, and released exactly once with Finish or
// Abort. It is not reusable after release.
type Builder struct {
	state builderState
	graph *Graph
}

// Graph is the construction handle for one active builder scope. All node
// construction goes through its methods. It is single-threaded by contract.
type Graph struct {
	b       *Builder
	nodes   []*Node
	names   map[string]struct{} // input and output names share one namespace
	outputs int
	err     error // first construction misuse; fatal to the scope
}

// NewBuilder creates an idle builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Enter activates the builder as the current scope and returns its
// construction handle. It fails with ErrNestedScope while any other scope is
// active, and with ErrInvalidState if the builder was already released.
func (b *Builder) Enter() (*Graph, error) {
	scopeMu.Lock()
	defer scopeMu.Unlock()

	if b.state != stateIdle {
		return nil, fmt.Errorf("builder already used: %w", ErrInvalidState)
	}
	if activeScope != nil {
		return nil, ErrNestedScope
	}

	b.graph = &Graph{
		b:     b,
		names: make(map[string]struct{}),
	}
	b.state = stateActive
	activeScope = b
	return b.graph, nil
}

// Finish releases the scope and freezes the collected nodes into a Function.
// It surfaces the first construction error recorded in the scope, and fails
// with ErrNoOutputs when no Output node was registered.
func (b *Builder) Finish() (*Function, error) {
	g, err := b.release()
	if err != nil {
		return nil, err
	}
	if g.err != nil {
		return nil, g.err
	}
	if g.outputs == 0 {
		return nil, ErrNoOutputs
	}
	return &Function{nodes: g.nodes}, nil
}

// Abort releases the scope without producing a Function. It is a no-op on a
// builder that is not active, which makes it safe to defer alongside Finish.
func (b *Builder) Abort() {
	_, _ = b.release()
}

func (b *Builder) release() (*Graph, error) {
	scopeMu.Lock()
	defer scopeMu.Unlock()

	if b.state != stateActive {
		return nil, ErrInvalidState
	}
	b.state = stateFinished
	activeScope = nil
	g := b.graph
	b.graph = nil
	return g, nil
}

// Build runs the construction callback inside a fresh builder scope and
// returns the finished Function. The scope is released on every path: a
// callback error aborts the scope, and a panic aborts it before propagating.
func Build(build func(*Graph) error) (*Function, error) {
	b := NewBuilder()
	g, err := b.Enter()
	if err != nil {
		return nil, err
	}
	defer b.Abort()

	if err := build(g); err != nil {
		return nil, err
	}
	return b.Finish()
}

// active reports whether g belongs to the currently active scope.
func (g *Graph) active() bool {
	scopeMu.Lock()
	defer scopeMu.Unlock()
	return g.b != nil && g.b.state == stateActive && activeScope == g.b
}

// poison records the first misuse of the scope. The error is surfaced by
// Finish; construction errors are fatal to the scope and never retried.
func (g *Graph) poison(err error) {
	if g.err == nil {
		g.err = err
	}
}

func (g *Graph) append(n *Node) *Node {
	n.index = len(g.nodes)
	n.owner = g
	g.nodes = append(g.nodes, n)
	return n
}

// Input registers a new named source column. The name must not collide with
// any Input or Output already registered in this scope.
func (g *Graph) Input(name string) (*Node, error) {
	if !g.active() {
		return nil, ErrInvalidState
	}
	if _, taken := g.names[name]; taken {
		err := &DuplicateSymbolError{Name: name}
		g.poison(err)
		return nil, err
	}
	g.names[name] = struct{}{}
	return g.append(&Node{kind: KindInput, name: name, lhs: -1, rhs: -1}), nil
}

// Const lifts a numeric literal into the graph.
func (g *Graph) Const(v float64) *Node {
	if !g.active() {
		g.poison(ErrInvalidState)
		return nil
	}
	return g.append(&Node{kind: KindConst, value: v, lhs: -1, rhs: -1})
}

// Output registers src as a named result. The name shares a namespace with
// Input names; collisions fail with DuplicateSymbolError.
func (g *Graph) Output(src *Node, name string) error {
	if !g.active() {
		return ErrInvalidState
	}
	if err := g.checkOperand(src); err != nil {
		return err
	}
	if _, taken := g.names[name]; taken {
		err := &DuplicateSymbolError{Name: name}
		g.poison(err)
		return err
	}
	g.names[name] = struct{}{}
	g.append(&Node{kind: KindOutput, name: name, lhs: src.index, rhs: -1})
	g.outputs++
	return nil
}

// Add returns a node computing a + b.
func (g *Graph) Add(a, b *Node) *Node { return g.binary(KindAdd, a, b) }

// Sub returns a node computing a - b.
func (g *Graph) Sub(a, b *Node) *Node { return g.binary(KindSub, a, b) }

// Mul returns a node computing a * b.
func (g *Graph) Mul(a, b *Node) *Node { return g.binary(KindMul, a, b) }

// Div returns a node computing a / b.
func (g *Graph) Div(a, b *Node) *Node { return g.binary(KindDiv, a, b) }

// AddScalar returns a node computing a + c.
func (g *Graph) AddScalar(a *Node, c float64) *Node { return g.binary(KindAdd, a, g.Const(c)) }

// SubScalar returns a node computing a - c.
func (g *Graph) SubScalar(a *Node, c float64) *Node { return g.binary(KindSub, a, g.Const(c)) }

// MulScalar returns a node computing a * c.
func (g *Graph) MulScalar(a *Node, c float64) *Node { return g.binary(KindMul, a, g.Const(c)) }

// DivScalar returns a node computing a / c.
func (g *Graph) DivScalar(a *Node, c float64) *Node { return g.binary(KindDiv, a, g.Const(c)) }

// ScalarSub returns a node computing c - a.
func (g *Graph) ScalarSub(c float64, a *Node) *Node { return g.binary(KindSub, g.Const(c), a) }

// ScalarDiv returns a node computing c / a.
func (g *Graph) ScalarDiv(c float64, a *Node) *Node { return g.binary(KindDiv, g.Const(c), a) }

// binary appends one arithmetic node. Combinators do not return errors;
// misuse poisons the scope and Finish reports it.
func (g *Graph) binary(kind Kind, a, b *Node) *Node {
	if !g.active() {
		g.poison(ErrInvalidState)
		return nil
	}
	if err := g.checkOperand(a); err != nil {
		return nil
	}
	if err := g.checkOperand(b); err != nil {
		return nil
	}
	return g.append(&Node{kind: kind, lhs: a.index, rhs: b.index})
}

func (g *Graph) checkOperand(n *Node) error {
	var err error
	switch {
	case n == nil:
		err = fmt.Errorf("operand comes from a failed construction call: %w", ErrInvalidState)
	case n.owner != g:
		err = fmt.Errorf("operand was built in a different scope: %w", ErrInvalidState)
	default:
		return nil
	}
	g.poison(err)
	return err
}
