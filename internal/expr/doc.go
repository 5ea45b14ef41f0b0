// Package expr implements the factor expression graph: an in-memory IR for
// pure arithmetic computations over named data columns.
//
// # Construction model
//
// Nodes are created through a Builder scope. Entering a builder activates it
// as the process-wide current scope; while it is active, construction calls
// on its Graph handle append nodes to one ordered list. Because operands must
// already exist when a node is created, the list is a valid topological order
// by construction and cycles are impossible.
//
// Exactly one scope may be active at a time. This mirrors the single-writer
// nature of graph construction; it is a deliberate simplification, not a
// general concurrency primitive. Independent idle builders may coexist (tests
// rely on this), but activating a second one while another is active fails
// with ErrNestedScope.
//
// Finishing a scope freezes the collected nodes into an immutable Function.
// The Build helper packages the acquire/release discipline so the scope is
// released on every path, including panics in the construction callback.
package expr
