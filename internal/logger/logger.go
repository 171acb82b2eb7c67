package logger

import (
	"os"

	"github.com/fatih/color"     // Colored console output
	"github.com/mattn/go-isatty" // Terminal detection for the color decision
)

// Define colorized printing functions for different log levels using fatih/color.
// These are package-level variables holding functions that behave like fmt.Printf,
// but with text colored appropriately for the log level.

// Info logs informational messages in green color.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warning messages in bright magenta color.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red color.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It is assigned during Init based on the verbose flag.
var Debug = func(format string, a ...any) {}

// Success and Failure print the per-tool outcome lines. They are kept apart from
// Info/Error so that outcomes stay distinguishable when color is off.
var (
	Success = func(format string, a ...any) { printMarked(color.FgGreen, successMark, format, a...) }
	Failure = func(format string, a ...any) { printMarked(color.FgRed, failureMark, format, a...) }
)

var (
	successMark = "✓"
	failureMark = "✗"
)

// Init initializes the logger package.
// - verbose turns Debug messages on or off.
// - noColor forces plain output; color is also dropped for NO_COLOR, TERM=dumb and
// when stdout is not a terminal.
func Init(verbose, noColor bool) {
	if noColor || !ColorSupported() {
		color.NoColor = true
		successMark = "+"
		failureMark = "x"
	} else {
		color.NoColor = false
		successMark = "✓"
		failureMark = "✗"
	}

	if verbose {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// ColorSupported reports whether the environment allows colored output.
func ColorSupported() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if term := os.Getenv("TERM"); term == "" || term == "dumb" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printMarked(attr color.Attribute, mark, format string, a ...any) {
	c := color.New(attr)
	c.Printf(mark+" "+format, a...)
}
