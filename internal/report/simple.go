package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs one fixed-width summary line per map:
// molecule, NP radius, simple average, Boltzmann average and mean error.
type SimpleWriter struct {
	baseWriter

	// header prints a comment line naming the columns.
	header bool

	// verbose appends the nanoparticle, omega and source path.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithHeader configures the writer to print a column header.
func WithHeader(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.header = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report, one line per entry in report order.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	if w.header {
		sb.WriteString(fmt.Sprintf("#%-9s%-10s%-14s%-14s%-14s", "name", "radius", "simple", "boltzmann", "error"))
		if w.verbose {
			sb.WriteString("np, omega, path")
		}
		sb.WriteString("\n")
	}

	for _, e := range report.Entries {
		sb.WriteString(e.Line())
		if w.verbose {
			sb.WriteString(fmt.Sprintf("%s, %.1f, %s", e.Nanoparticle, e.Omega, e.Path))
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}
