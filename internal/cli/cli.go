// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/quantfold/factorc/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app config,
// a boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("factorc", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
factorc - compile declarative market-data factors into native modules.

Usage:
  factorc [options] [FACTORS_PATH]

Arguments:
  FACTORS_PATH
    Path to a single .hcl factor file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	factorsFlag := flagSet.String("factors", "", "Path to the factor file or directory.")
	fFlag := flagSet.String("f", "", "Path to the factor file or directory (shorthand).")
	predefinedFlag := flagSet.Bool("predefined", false, "Compile the built-in factor library instead of reading files.")
	outFlag := flagSet.String("out", "build", "Directory receiving compiled modules and generated sources.")
	ccFlag := flagSet.String("cc", "", "C compiler command. Defaults to $CC, then cc.")
	workersFlag := flagSet.Int("workers", 4, "Number of libraries compiled concurrently.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	describeFlag := flagSet.Bool("describe", false, "Print each factor's expression graph instead of compiling.")
	emitOnlyFlag := flagSet.Bool("emit-only", false, "Generate intermediate C source without invoking the toolchain.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *factorsFlag != "" {
		path = *factorsFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" && !*predefinedFlag {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		FactorsPath:   path,
		UsePredefined: *predefinedFlag,
		OutputDir:     *outFlag,
		CC:            *ccFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		Workers:       *workersFlag,
		Describe:      *describeFlag,
		EmitOnly:      *emitOnlyFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
