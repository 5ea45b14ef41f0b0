// Package eval evaluates finished expression functions in-process, without
// the native toolchain. It is the reference semantics for both calling
// conventions: Batch mirrors the TimeSeries lowering (elementwise over whole
// arrays) and Stream mirrors the incremental lowering (one tick per call).
// Division follows IEEE-754 doubles, the same arithmetic the generated C
// performs.
package eval

import (
	"fmt"

	"github.com/quantfold/factorc/internal/expr"
)

// MissingInputError reports an input column the caller did not supply.
type MissingInputError struct {
	Name string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("eval: missing input column %q", e.Name)
}

// step evaluates every node for one time point. in resolves input names to
// the current value; results land in vals, indexed by node position; outputs
// are written into out.
func step(fn *expr.Function, in func(name string) float64, vals []float64, out func(name string, v float64)) {
	for _, n := range fn.Nodes() {
		switch n.Kind() {
		case expr.KindInput:
			vals[n.Index()] = in(n.Name())
		case expr.KindConst:
			vals[n.Index()] = n.Value()
		case expr.KindOutput:
			out(n.Name(), vals[n.Operands()[0]])
		default:
			ops := n.Operands()
			a, b := vals[ops[0]], vals[ops[1]]
			var v float64
			switch n.Kind() {
			case expr.KindAdd:
				v = a + b
			case expr.KindSub:
				v = a - b
			case expr.KindMul:
				v = a * b
			default:
				v = a / b
			}
			vals[n.Index()] = v
		}
	}
}
