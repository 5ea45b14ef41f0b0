package eval

import (
	"github.com/quantfold/factorc/internal/expr"
)

// Stream is the incremental evaluation context for one logical instrument
// stream: one Push per new data point, results after the k-th push depend
// only on pushes 1..k. For the arithmetic node set each result is a function
// of the current tick alone, so the per-tick sequence equals the Batch
// evaluation of the matching prefix arrays.
//
// A Stream is not safe for concurrent use; create one per instrument, the
// same way a compiled stream routine gets one state block per instrument.
type Stream struct {
	fn    *expr.Function
	vals  []float64
	ticks int
}

// NewStream creates a fresh context for fn, equivalent to a zeroed state
// block before the first call.
func NewStream(fn *expr.Function) *Stream {
	return &Stream{
		fn:   fn,
		vals: make([]float64, fn.Len()),
	}
}

// Ticks returns how many data points have been pushed so far.
func (s *Stream) Ticks() int { return s.ticks }

// Push consumes one data point and returns the outputs for it. Every input
// column the function declares must be present in the tick.
func (s *Stream) Push(tick map[string]float64) (map[string]float64, error) {
	for _, name := range s.fn.Inputs() {
		if _, ok := tick[name]; !ok {
			return nil, &MissingInputError{Name: name}
		}
	}

	out := make(map[string]float64, len(s.fn.Outputs()))
	step(s.fn,
		func(name string) float64 { return tick[name] },
		s.vals,
		func(name string, v float64) { out[name] = v },
	)
	s.ticks++
	return out, nil
}
