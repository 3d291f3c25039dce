package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/unitedatom/internal/geometry"
)

// MarkdownWriter outputs reports in Markdown format, for lab notebooks and
// pull requests against a results repository.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeEnergies(md, report)
	w.writeShapes(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("UnitedAtom Adsorption Summary")
	md.PlainText("")

	runID := report.RunID
	if runID == "" {
		runID = "-"
	}
	fingerprint := report.Fingerprint
	if fingerprint == "" {
		fingerprint = "-"
	} else {
		fingerprint = "`" + truncateString(fingerprint, 16) + "`"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", runID},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Parameters", fingerprint},
			{"Maps", strconv.Itoa(len(report.Entries))},
		},
	})
	md.PlainText("")
}

// writeEnergies writes the per-map energy table and a note on the
// strongest binder.
func (w *MarkdownWriter) writeEnergies(md *markdown.Markdown, report *Report) {
	md.H2("Binding Free Energies")
	md.PlainText("")

	if len(report.Entries) == 0 {
		md.PlainText("No maps were summarised.")
		md.PlainText("")
		return
	}

	entries := report.Sorted()
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Molecule,
			e.Nanoparticle,
			shapeName(e.Shape),
			formatFloat(e.Radius, 1),
			formatFloat(e.Zeta, 3),
			formatFloat(e.Omega, 0),
			formatFloat(e.Simple, 3),
			formatFloat(e.Boltzmann, 3),
			formatFloat(e.Error, 3),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{
			"Molecule", "NP", "Shape", "Radius (nm)", "Zeta (V)", "Omega (°)",
			"Simple (kT)", "Boltzmann (kT)", "Error (kT)",
		},
		Rows: rows,
	})
	md.PlainText("")

	if best, ok := report.Strongest(); ok {
		md.Tip(fmt.Sprintf("Strongest adsorption: %s on %s with a Boltzmann average of %.3f kT.",
			best.Molecule, best.Nanoparticle, best.Boltzmann))
		md.PlainText("")
	}
}

// writeShapes writes a mermaid pie chart of maps per NP shape when the run
// covered more than one shape.
func (w *MarkdownWriter) writeShapes(md *markdown.Markdown, report *Report) {
	counts := make(map[geometry.Shape]uint64)
	var order []geometry.Shape
	for _, e := range report.Entries {
		if counts[e.Shape] == 0 {
			order = append(order, e.Shape)
		}
		counts[e.Shape]++
	}
	if len(order) < 2 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Maps per Nanoparticle Shape"),
		piechart.WithShowData(true),
	)
	for _, s := range order {
		chart.LabelAndIntValue(shapeName(s), counts[s])
	}

	md.H2("Shapes")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [UnitedAtom](https://github.com/nao1215/unitedatom)*")
}

func shapeName(s geometry.Shape) string {
	if !s.Valid() {
		return "-"
	}
	return s.DisplayName()
}

// formatFloat formats v with prec decimals, or "-" when v is not finite.
func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
