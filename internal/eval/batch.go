package eval

import (
	"fmt"

	"github.com/quantfold/factorc/internal/expr"
)

// Batch evaluates fn elementwise over whole time-indexed arrays, one entry
// per time point, and returns one array per output. Every input column the
// function declares must be present and all supplied columns must share one
// length; extra columns are ignored (names are resolved by identity only).
func Batch(fn *expr.Function, inputs map[string][]float64) (map[string][]float64, error) {
	n, err := checkInputs(fn, inputs)
	if err != nil {
		return nil, err
	}
	return batchRange(fn, inputs, 0, n)
}

// BatchRange evaluates a window of length points starting at start,
// mirroring chunked batch computation: outputs are indexed from zero and
// cover only the requested window.
func BatchRange(fn *expr.Function, inputs map[string][]float64, start, length int) (map[string][]float64, error) {
	n, err := checkInputs(fn, inputs)
	if err != nil {
		return nil, err
	}
	if start < 0 || length < 0 || start+length > n {
		return nil, fmt.Errorf("eval: window [%d, %d+%d) exceeds input length %d", start, start, length, n)
	}
	return batchRange(fn, inputs, start, length)
}

func batchRange(fn *expr.Function, inputs map[string][]float64, start, length int) (map[string][]float64, error) {
	outputs := make(map[string][]float64, len(fn.Outputs()))
	for _, name := range fn.Outputs() {
		outputs[name] = make([]float64, length)
	}

	vals := make([]float64, fn.Len())
	for i := 0; i < length; i++ {
		t := start + i
		step(fn,
			func(name string) float64 { return inputs[name][t] },
			vals,
			func(name string, v float64) { outputs[name][i] = v },
		)
	}
	return outputs, nil
}

// checkInputs verifies presence and a single shared length across all
// supplied columns, and returns that length.
func checkInputs(fn *expr.Function, inputs map[string][]float64) (int, error) {
	for _, name := range fn.Inputs() {
		if _, ok := inputs[name]; !ok {
			return 0, &MissingInputError{Name: name}
		}
	}
	n := -1
	for _, name := range fn.Inputs() {
		col := inputs[name]
		if n == -1 {
			n = len(col)
			continue
		}
		if len(col) != n {
			return 0, fmt.Errorf("eval: input %q has length %d, want %d", name, len(col), n)
		}
	}
	if n == -1 {
		// Constant-only function; nothing constrains the length.
		n = 0
	}
	return n, nil
}
