package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nao1215/unitedatom/internal/summary"
)

// Writer defines the interface for report output.
// Implementations write summary reports in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *Report) (int, error)
}

// Entry is one summarised orientation map.
type Entry struct {
	summary.Stats

	// Path is the grid file the statistics were computed from.
	Path string
}

// Report is the set of maps produced by one run, or read back by
// the summarize command.
type Report struct {
	RunID       string
	Fingerprint string
	GeneratedAt time.Time
	Entries     []Entry
}

// NewReport creates a Report stamped with the given time.
func NewReport(runID, fingerprint string, at time.Time, entries ...Entry) *Report {
	return &Report{
		RunID:       runID,
		Fingerprint: fingerprint,
		GeneratedAt: at,
		Entries:     entries,
	}
}

// Add appends an entry.
func (r *Report) Add(e Entry) {
	r.Entries = append(r.Entries, e)
}

// Strongest returns the entry with the lowest Boltzmann average.
func (r *Report) Strongest() (Entry, bool) {
	if len(r.Entries) == 0 {
		return Entry{}, false
	}
	best := r.Entries[0]
	for _, e := range r.Entries[1:] {
		if e.Boltzmann < best.Boltzmann {
			best = e
		}
	}
	return best, true
}

// Sorted returns the entries ordered by nanoparticle, then molecule, then
// omega. The report itself is not modified.
func (r *Report) Sorted() []Entry {
	out := make([]Entry, len(r.Entries))
	copy(out, r.Entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Nanoparticle != b.Nanoparticle {
			return a.Nanoparticle < b.Nanoparticle
		}
		if a.Molecule != b.Molecule {
			return a.Molecule < b.Molecule
		}
		return a.Omega < b.Omega
	})
	return out
}

// Format selects a report writer.
type Format int

const (
	// FormatSimple is the fixed-width summary line format.
	FormatSimple Format = iota
	// FormatJSON is indented JSON.
	FormatJSON
	// FormatMarkdown is a Markdown document.
	FormatMarkdown
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatSimple:
		return "simple"
	case FormatJSON:
		return "json"
	case FormatMarkdown:
		return "markdown"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// New returns the writer for format f.
func New(output io.Writer, f Format) (Writer, error) {
	switch f {
	case FormatSimple:
		return NewSimpleWriter(output, WithHeader(true)), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %s", f)
	}
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
