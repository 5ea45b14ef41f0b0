package compile

import (
	"fmt"
	"strings"
)

// Layout is the closed set of calling conventions a routine can be compiled
// under.
type Layout uint8

const (
	// LayoutUnknown is the zero value; it never validates.
	LayoutUnknown Layout = iota
	// LayoutTimeSeries is the batch convention: the routine consumes and
	// produces whole time-indexed arrays per call.
	LayoutTimeSeries
	// LayoutStream is the incremental convention: the routine is invoked once
	// per new data point and threads an opaque state block across calls.
	LayoutStream
)

// String returns the canonical wire spelling, matching ParseLayout.
func (l Layout) String() string {
	switch l {
	case LayoutTimeSeries:
		return "TS"
	case LayoutStream:
		return "STREAM"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// ParseLayout maps a configuration string onto the Layout enum. Unrecognized
// values are rejected here, at the configuration boundary, rather than being
// passed through to the toolchain.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "ts", "timeseries":
		return LayoutTimeSeries, nil
	case "stream":
		return LayoutStream, nil
	default:
		return LayoutUnknown, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
}

// BackendOptions are declarative knobs forwarded to the toolchain. They are
// value data; the driver merges the options of all entries in one compile
// call before the single toolchain invocation (highest OptLevel wins,
// FastMath only when every entry asks for it, ExtraFlags unioned in entry
// order).
type BackendOptions struct {
	// OptLevel selects the optimization level. Zero means "toolchain
	// default", which the system toolchain maps to -O2.
	OptLevel int
	// FastMath relaxes IEEE-754 conformance for speed.
	FastMath bool
	// ExtraFlags are passed to the toolchain verbatim, after the generated
	// flags.
	ExtraFlags []string
}

// Config attaches layout and backend options to one compilation entry.
// Config is immutable value data.
type Config struct {
	InputLayout  Layout
	OutputLayout Layout
	Backend      BackendOptions
}

// Validate rejects configs whose layouts are outside the closed enum.
func (c Config) Validate() error {
	if c.InputLayout != LayoutTimeSeries && c.InputLayout != LayoutStream {
		return fmt.Errorf("input layout: %w: %s", ErrUnknownLayout, c.InputLayout)
	}
	if c.OutputLayout != LayoutTimeSeries && c.OutputLayout != LayoutStream {
		return fmt.Errorf("output layout: %w: %s", ErrUnknownLayout, c.OutputLayout)
	}
	return nil
}

// streaming reports whether the routine follows the per-tick convention.
// A stream layout on either side makes the whole routine incremental; an
// array-shaped parameter cannot appear in a per-tick call.
func (c Config) streaming() bool {
	return c.InputLayout == LayoutStream || c.OutputLayout == LayoutStream
}

func mergeBackendOptions(entries []Entry) BackendOptions {
	merged := BackendOptions{FastMath: len(entries) > 0}
	seen := make(map[string]struct{})
	for _, e := range entries {
		opts := e.Config.Backend
		if opts.OptLevel > merged.OptLevel {
			merged.OptLevel = opts.OptLevel
		}
		merged.FastMath = merged.FastMath && opts.FastMath
		for _, flag := range opts.ExtraFlags {
			if _, dup := seen[flag]; dup {
				continue
			}
			seen[flag] = struct{}{}
			merged.ExtraFlags = append(merged.ExtraFlags, flag)
		}
	}
	return merged
}
