package compile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/quantfold/factorc/internal/ctxlog"
)

// Toolchain is the external collaborator that turns generated source into a
// loadable module. Build is synchronous: it returns only when the module
// exists at modulePath or the build has failed. Implementations own their
// invocation protocol entirely; the driver only translates the outcome into
// published or failed.
type Toolchain interface {
	Build(ctx context.Context, sourcePath, modulePath string, opts BackendOptions) error
}

// SystemToolchain drives the system C compiler. There is no built-in timeout
// or retry; callers cancel through ctx, and a cancelled build is a failure.
type SystemToolchain struct {
	// CC overrides compiler discovery. Empty means $CC, then "cc".
	CC string
}

// NewSystemToolchain creates a toolchain around the given compiler command.
func NewSystemToolchain(cc string) *SystemToolchain {
	return &SystemToolchain{CC: cc}
}

func (t *SystemToolchain) compiler() string {
	if t.CC != "" {
		return t.CC
	}
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}
	return "cc"
}

// Build compiles sourcePath into a shared module at modulePath. Any failure,
// including a missing compiler, is reported as a *CompilationError carrying
// the compiler's raw diagnostic output.
func (t *SystemToolchain) Build(ctx context.Context, sourcePath, modulePath string, opts BackendOptions) error {
	optLevel := opts.OptLevel
	if optLevel == 0 {
		optLevel = 2
	}
	args := []string{"-shared", "-fPIC", fmt.Sprintf("-O%d", optLevel)}
	if opts.FastMath {
		args = append(args, "-ffast-math")
	}
	args = append(args, opts.ExtraFlags...)
	args = append(args, "-o", modulePath, sourcePath)

	cc := t.compiler()
	ctxlog.FromContext(ctx).Debug("Invoking toolchain.", "cc", cc, "args", args)

	cmd := exec.CommandContext(ctx, cc, args...)
	var diag bytes.Buffer
	cmd.Stdout = &diag
	cmd.Stderr = &diag

	if err := cmd.Run(); err != nil {
		return &CompilationError{Diagnostics: diag.String(), Err: err}
	}
	return nil
}
