package compile

import (
	"errors"
	"fmt"

	"github.com/quantfold/factorc/internal/expr"
)

// ErrNoEntries is returned by Compile when the entry batch is empty.
var ErrNoEntries = errors.New("compile: no entries to compile")

// ErrUnknownLayout reports a layout value outside the closed enum.
var ErrUnknownLayout = errors.New("compile: unknown layout")

// SymbolConflictError reports a duplicate symbol name within one compile
// call. It is detected before the toolchain is invoked.
type SymbolConflictError struct {
	Symbol string
}

func (e *SymbolConflictError) Error() string {
	return fmt.Sprintf("compile: duplicate symbol %q in one compile call", e.Symbol)
}

// InvalidSymbolError reports a symbol name the module could not export.
type InvalidSymbolError struct {
	Symbol string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("compile: symbol %q is not a valid exported identifier", e.Symbol)
}

// LayoutMismatchError reports a node kind that cannot be lowered under the
// requested layout. The base arithmetic node set lowers under both layouts,
// so today this only guards the boundary for future stateful node kinds;
// the check still runs on every entry so the contract is enforced here and
// not deferred to the toolchain.
type LayoutMismatchError struct {
	Symbol string
	Kind   expr.Kind
	Layout Layout
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("compile: symbol %q: node kind %s cannot be lowered under %s layout",
		e.Symbol, e.Kind, e.Layout)
}

// CompilationError carries the external toolchain's raw diagnostic text. It
// is never retried automatically.
type CompilationError struct {
	Diagnostics string
	Err         error
}

func (e *CompilationError) Error() string {
	if e.Diagnostics == "" {
		return fmt.Sprintf("compile: toolchain failed: %v", e.Err)
	}
	return fmt.Sprintf("compile: toolchain failed: %v\n%s", e.Err, e.Diagnostics)
}

func (e *CompilationError) Unwrap() error { return e.Err }
