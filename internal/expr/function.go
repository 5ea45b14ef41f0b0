package expr

import "strings"

// Function is the immutable result of one finished builder scope: the frozen,
// topologically ordered node list plus derived name metadata. Two Functions
// are distinct artifacts even when algebraically equivalent; no
// canonicalization happens at this layer.
type Function struct {
	nodes []*Node
}

// Len returns the number of nodes.
func (f *Function) Len() int { return len(f.nodes) }

// Node returns the node at index i.
func (f *Function) Node(i int) *Node { return f.nodes[i] }

// Nodes returns the ordered node list. The returned slice is shared with the
// Function and must be treated as read-only.
func (f *Function) Nodes() []*Node { return f.nodes }

// Inputs returns the Input names in creation order.
func (f *Function) Inputs() []string {
	return f.namesOf(KindInput)
}

// Outputs returns the Output names in creation order.
func (f *Function) Outputs() []string {
	return f.namesOf(KindOutput)
}

func (f *Function) namesOf(kind Kind) []string {
	var names []string
	for _, n := range f.nodes {
		if n.kind == kind {
			names = append(names, n.name)
		}
	}
	return names
}

// String renders the function one node per line, operands referenced by
// stable index. The rendering is deterministic and suitable for diffing
// without involving any backend.
func (f *Function) String() string {
	var sb strings.Builder
	for i, n := range f.nodes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(n.render())
	}
	return sb.String()
}
