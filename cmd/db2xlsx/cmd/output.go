package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

// outputWriter and errWriter are used for printing, can be overridden in tests
var (
	outputWriter io.Writer = os.Stdout
	errWriter    io.Writer = os.Stderr
)

// setOutputWriter sets the output writers (used for testing)
func setOutputWriter(out, errOut io.Writer) {
	outputWriter = out
	errWriter = errOut
}

// resetOutputWriter resets output to stdout/stderr (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
	errWriter = os.Stderr
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", runewidth.StringWidth(title)+2))
}
