package compile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quantfold/factorc/internal/expr"
)

// sourceHeader opens every generated translation unit.
const sourceHeader = "/* Generated by factorc. Do not edit. */\n#include <stddef.h>\n"

// checkEntryLayout verifies that every node of the entry can be realized
// under the entry's calling convention. The arithmetic node set passes under
// both layouts; the default branch is the boundary where future stateful or
// windowed node kinds get rejected.
func checkEntryLayout(e Entry) error {
	convention := LayoutTimeSeries
	if e.Config.streaming() {
		convention = LayoutStream
	}
	for _, n := range e.Fn.Nodes() {
		switch n.Kind() {
		case expr.KindInput, expr.KindConst, expr.KindOutput,
			expr.KindAdd, expr.KindSub, expr.KindMul, expr.KindDiv:
			// Purely combinational; lowers under either convention.
		default:
			return &LayoutMismatchError{Symbol: e.Symbol, Kind: n.Kind(), Layout: convention}
		}
	}
	return nil
}

// generateSource lowers all entries into one C99 translation unit and
// returns it together with the per-symbol calling metadata.
func generateSource(entries []Entry) (string, []Routine) {
	var sb strings.Builder
	sb.WriteString(sourceHeader)

	routines := make([]Routine, 0, len(entries))
	for _, e := range entries {
		sb.WriteByte('\n')
		routine := lowerEntry(&sb, e)
		routines = append(routines, routine)
	}
	return sb.String(), routines
}

func lowerEntry(sb *strings.Builder, e Entry) Routine {
	routine := Routine{
		Symbol:       e.Symbol,
		InputLayout:  e.Config.InputLayout,
		OutputLayout: e.Config.OutputLayout,
	}
	var inputs, outputs []*expr.Node
	for _, n := range e.Fn.Nodes() {
		switch n.Kind() {
		case expr.KindInput:
			inputs = append(inputs, n)
		case expr.KindOutput:
			outputs = append(outputs, n)
		}
	}
	for k, n := range inputs {
		routine.Params = append(routine.Params, Param{
			Name:  n.Name(),
			CName: cParamName("in", k, n.Name()),
			Dir:   ParamIn,
		})
	}
	for k, n := range outputs {
		routine.Params = append(routine.Params, Param{
			Name:  n.Name(),
			CName: cParamName("out", k, n.Name()),
			Dir:   ParamOut,
		})
	}

	if e.Config.streaming() {
		routine.InitSymbol = e.Symbol + "_init"
		routine.StateSizeSymbol = e.Symbol + "_state_size"
		lowerStream(sb, e, routine)
	} else {
		lowerTimeSeries(sb, e, routine)
	}
	return routine
}

// lowerTimeSeries emits the batch form: whole-array parameters and one
// elementwise loop. output[t] is a function only of input[t]; the arithmetic
// primitives carry no temporal memory.
func lowerTimeSeries(sb *strings.Builder, e Entry, routine Routine) {
	fmt.Fprintf(sb, "void %s(", e.Symbol)
	for _, p := range routine.Params {
		if p.Dir == ParamIn {
			fmt.Fprintf(sb, "const double *%s, ", p.CName)
		} else {
			fmt.Fprintf(sb, "double *%s, ", p.CName)
		}
	}
	sb.WriteString("size_t n) {\n")
	sb.WriteString("    for (size_t t = 0; t < n; ++t) {\n")
	emitBody(sb, e, routine, "        ", true)
	sb.WriteString("    }\n}\n")
}

// lowerStream emits the incremental form: one value per call plus an opaque
// state block the caller initializes once and threads through every call for
// the same logical instrument. The arithmetic node set needs no state of its
// own; the block carries a tick counter so the init/state_size/step ABI is
// already the one stateful node kinds will need.
func lowerStream(sb *strings.Builder, e Entry, routine Routine) {
	fmt.Fprintf(sb, "typedef struct %s_state {\n    unsigned long long ticks;\n} %s_state_t;\n\n",
		e.Symbol, e.Symbol)
	fmt.Fprintf(sb, "size_t %s(void) {\n    return sizeof(%s_state_t);\n}\n\n",
		routine.StateSizeSymbol, e.Symbol)
	fmt.Fprintf(sb, "void %s(%s_state_t *state) {\n    state->ticks = 0;\n}\n\n",
		routine.InitSymbol, e.Symbol)

	fmt.Fprintf(sb, "void %s(%s_state_t *state", e.Symbol, e.Symbol)
	for _, p := range routine.Params {
		if p.Dir == ParamIn {
			fmt.Fprintf(sb, ", double %s", p.CName)
		} else {
			fmt.Fprintf(sb, ", double *%s", p.CName)
		}
	}
	sb.WriteString(") {\n")
	emitBody(sb, e, routine, "    ", false)
	sb.WriteString("    state->ticks += 1;\n}\n")
}

// emitBody writes one SSA-style temporary per node, in graph order. No
// deduplication happens here: structurally identical nodes emit separate
// temporaries and any folding is left to the toolchain's optimizer.
func emitBody(sb *strings.Builder, e Entry, routine Routine, indent string, batch bool) {
	inIdx, outIdx := 0, 0
	for _, n := range e.Fn.Nodes() {
		switch n.Kind() {
		case expr.KindInput:
			p := routine.Params[paramAt(routine, ParamIn, inIdx)]
			inIdx++
			if batch {
				fmt.Fprintf(sb, "%sconst double v%d = %s[t];\n", indent, n.Index(), p.CName)
			} else {
				fmt.Fprintf(sb, "%sconst double v%d = %s;\n", indent, n.Index(), p.CName)
			}
		case expr.KindConst:
			fmt.Fprintf(sb, "%sconst double v%d = %s;\n", indent, n.Index(), cFloat(n.Value()))
		case expr.KindOutput:
			p := routine.Params[paramAt(routine, ParamOut, outIdx)]
			outIdx++
			ops := n.Operands()
			if batch {
				fmt.Fprintf(sb, "%s%s[t] = v%d;\n", indent, p.CName, ops[0])
			} else {
				fmt.Fprintf(sb, "%s*%s = v%d;\n", indent, p.CName, ops[0])
			}
		default:
			ops := n.Operands()
			fmt.Fprintf(sb, "%sconst double v%d = v%d %s v%d;\n",
				indent, n.Index(), ops[0], cOp(n.Kind()), ops[1])
		}
	}
}

// paramAt finds the k-th parameter flowing in the given direction.
func paramAt(routine Routine, dir ParamDir, k int) int {
	seen := 0
	for i, p := range routine.Params {
		if p.Dir != dir {
			continue
		}
		if seen == k {
			return i
		}
		seen++
	}
	return -1
}

func cOp(k expr.Kind) string {
	switch k {
	case expr.KindAdd:
		return "+"
	case expr.KindSub:
		return "-"
	case expr.KindMul:
		return "*"
	default:
		return "/"
	}
}

// cFloat renders a float64 as a C double expression. Non-finite literals
// have no portable literal form, so they are spelled as expressions.
func cFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "(0.0 / 0.0)"
	case math.IsInf(v, 1):
		return "(1.0 / 0.0)"
	case math.IsInf(v, -1):
		return "(-1.0 / 0.0)"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// cParamName derives a readable, collision-free C identifier for a data
// parameter. The positional index keeps names unique even when sanitizing
// maps two symbols to the same text.
func cParamName(prefix string, k int, name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	san := sb.String()
	if san == "" {
		return fmt.Sprintf("%s_%d", prefix, k)
	}
	return fmt.Sprintf("%s_%d_%s", prefix, k, san)
}
