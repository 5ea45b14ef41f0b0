package expr

import (
	"errors"
	"fmt"
)

// ErrNestedScope is returned by Enter when another builder scope is already
// active. Graph construction is single-writer; the caller must finish or
// abort the active scope first.
var ErrNestedScope = errors.New("expr: another builder scope is already active")

// ErrInvalidState is returned when a construction call happens outside an
// active builder scope, or when a builder is reused after it has finished.
var ErrInvalidState = errors.New("expr: builder scope is not active")

// ErrNoOutputs is returned by Finish when the scope registered no Output
// nodes. A Function without outputs is not compilable.
var ErrNoOutputs = errors.New("expr: function declares no outputs")

// DuplicateSymbolError reports a name collision between Input and Output
// registrations within one scope.
type DuplicateSymbolError struct {
	Name string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("expr: duplicate symbol %q", e.Name)
}
