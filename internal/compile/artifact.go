package compile

// ParamDir says which way a routine parameter flows.
type ParamDir uint8

const (
	// ParamIn parameters carry input columns into the routine.
	ParamIn ParamDir = iota
	// ParamOut parameters receive computed outputs.
	ParamOut
)

// Param describes one data parameter of a compiled routine, in declaration
// order. Under the TimeSeries convention the parameter is a whole double
// array; under the Stream convention it is a single double (inputs) or a
// pointer to one (outputs).
type Param struct {
	// Name is the Input/Output symbol the parameter binds to.
	Name string
	// CName is the identifier used in the generated source.
	CName string
	Dir   ParamDir
}

// Routine is the calling metadata for one exported symbol: everything a
// caller needs to bind and invoke it correctly.
type Routine struct {
	Symbol       string
	InputLayout  Layout
	OutputLayout Layout

	// Params lists data parameters in order: inputs first, then outputs,
	// both in creation order. TimeSeries routines take one trailing size_t
	// length parameter after these; Stream routines take a leading state
	// pointer before these.
	Params []Param

	// InitSymbol and StateSizeSymbol are the auxiliary exports of a Stream
	// routine ("" for TimeSeries): the state initializer and the function
	// reporting the state block's size in bytes.
	InitSymbol      string
	StateSizeSymbol string
}

// Streaming reports whether the routine follows the per-tick convention.
func (r *Routine) Streaming() bool { return r.InitSymbol != "" }

// Artifact is the handle to one published native module.
type Artifact struct {
	// Path is the module file.
	Path string
	// Sources are the published intermediate source files.
	Sources []string
	// Routines holds per-symbol calling metadata, in entry order.
	Routines []Routine
}

// Routine returns the metadata for the given symbol, or nil when the symbol
// was not part of the compile call.
func (a *Artifact) Routine(symbol string) *Routine {
	for i := range a.Routines {
		if a.Routines[i].Symbol == symbol {
			return &a.Routines[i]
		}
	}
	return nil
}
