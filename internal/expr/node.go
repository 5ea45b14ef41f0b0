package expr

import (
	"fmt"
	"strconv"
)

// Kind identifies the operation a Node performs.
type Kind uint8

const (
	// KindInput is a named source column.
	KindInput Kind = iota
	// KindConst is a numeric literal lifted into the graph.
	KindConst
	// KindAdd through KindDiv are elementwise binary arithmetic.
	KindAdd
	KindSub
	KindMul
	KindDiv
	// KindOutput names the result of a source expression.
	KindOutput
)

// String returns the lowercase mnemonic used in Function renderings.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConst:
		return "const"
	case KindAdd:
		return "add"
	case KindSub:
		return "sub"
	case KindMul:
		return "mul"
	case KindDiv:
		return "div"
	case KindOutput:
		return "output"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Node is a single vertex of the expression graph. Nodes are created through
// a Graph handle and are immutable afterwards; consumers interact with them
// via the accessor methods only.
type Node struct {
	owner *Graph
	index int
	kind  Kind
	name  string  // KindInput, KindOutput
	value float64 // KindConst
	lhs   int     // first operand index; -1 when unused
	rhs   int     // second operand index; -1 when unused
}

// Index returns the node's position in its function's ordered node list.
func (n *Node) Index() int { return n.index }

// Kind returns the node's operation kind.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the symbol of an Input or Output node, and "" otherwise.
func (n *Node) Name() string { return n.name }

// Value returns the literal of a Const node, and 0 otherwise.
func (n *Node) Value() float64 { return n.value }

// Operands returns the indices of the node's operands, in order. Every
// operand index is strictly smaller than the node's own index.
func (n *Node) Operands() []int {
	switch n.kind {
	case KindInput, KindConst:
		return nil
	case KindOutput:
		return []int{n.lhs}
	default:
		return []int{n.lhs, n.rhs}
	}
}

// render writes the node's one-line textual form, e.g. `v2 = mul(v0, v1)`.
func (n *Node) render() string {
	switch n.kind {
	case KindInput:
		return fmt.Sprintf("v%d = input(%q)", n.index, n.name)
	case KindConst:
		return fmt.Sprintf("v%d = const(%s)", n.index, strconv.FormatFloat(n.value, 'g', -1, 64))
	case KindOutput:
		return fmt.Sprintf("v%d = output(%q, v%d)", n.index, n.name, n.lhs)
	default:
		return fmt.Sprintf("v%d = %s(v%d, v%d)", n.index, n.kind, n.lhs, n.rhs)
	}
}
