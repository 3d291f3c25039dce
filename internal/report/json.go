package report

import (
	"encoding/json"
	"io"
	"math"
	"time"
)

// JSONWriter outputs reports in JSON format for downstream analysis
// scripts.
type JSONWriter struct {
	baseWriter

	// prefix and indent are passed to json.MarshalIndent when pretty is set.
	pretty         bool
	prefix, indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents the output as json.MarshalIndent does.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.pretty = true
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the serialised form of a Report.
type JSONReport struct {
	RunID       string      `json:"run_id,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
	Maps        []JSONEntry `json:"maps"`
}

// JSONEntry is the serialised form of an Entry. Non-finite values are
// written as null.
type JSONEntry struct {
	Molecule     string   `json:"molecule"`
	Nanoparticle string   `json:"nanoparticle"`
	Shape        string   `json:"shape"`
	Radius       float64  `json:"radius_nm"`
	Zeta         float64  `json:"zeta_v"`
	Omega        float64  `json:"omega_deg"`
	Simple       *float64 `json:"simple_kt"`
	Boltzmann    *float64 `json:"boltzmann_kt"`
	Error        *float64 `json:"error_kt"`
	Min          *float64 `json:"min_kt"`
	Bins         int      `json:"bins"`
	Path         string   `json:"path,omitempty"`
}

// finite returns nil for NaN and infinities, which encoding/json rejects.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewJSONReport converts r to its serialised form.
func NewJSONReport(r *Report) *JSONReport {
	out := &JSONReport{
		RunID:       r.RunID,
		Fingerprint: r.Fingerprint,
		GeneratedAt: r.GeneratedAt,
		Maps:        make([]JSONEntry, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		out.Maps = append(out.Maps, JSONEntry{
			Molecule:     e.Molecule,
			Nanoparticle: e.Nanoparticle,
			Shape:        e.Shape.String(),
			Radius:       e.Radius,
			Zeta:         e.Zeta,
			Omega:        e.Omega,
			Simple:       finite(e.Simple),
			Boltzmann:    finite(e.Boltzmann),
			Error:        finite(e.Error),
			Min:          finite(e.Min),
			Bins:         e.Bins,
			Path:         e.Path,
		})
	}
	return out
}

// Write outputs the report as one JSON document followed by a newline.
func (w *JSONWriter) Write(report *Report) (int, error) {
	v := NewJSONReport(report)
	var (
		data []byte
		err  error
	)
	if w.pretty {
		data, err = json.MarshalIndent(v, w.prefix, w.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
