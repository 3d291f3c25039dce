package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/profile"
)

// Version is written into every grid header.
const Version = "1.0.0"

const (
	boltzmann = 1.380649e-23
	avogadro  = 6.02214076e23

	// kTToKJPerMol converts an energy in kT at 300 K to kJ/mol.
	kTToKJPerMol = 300.0 * boltzmann * avogadro / 1000.0
)

const gridLegend = "#phi-LeftHandEdge theta-LeftHandEdge EAds/kbT=300 SDEV(Eads)/kbT=300 " +
	"min_surf-surf-dist/nm mfpt*DiffusionCoeff/nm^2 EAds/kJ/mol " +
	"min_ProtSurf_NPCentre-dist/nm omega NumContacts"

// ErrMalformedGrid is returned when a grid file cannot be parsed.
var ErrMalformedGrid = errors.New("malformed grid file")

// Writer stores grid and profile files under a root directory, one
// subdirectory per nanoparticle.
type Writer struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithClock overrides the time source used for grid headers.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Dir returns the root output directory.
func (w *Writer) Dir() string { return w.dir }

// GridPath returns where the grid for key is stored.
func (w *Writer) GridPath(key model.ScanKey) string {
	return GridPath(w.dir, key)
}

// Exists reports whether the grid for key has already been written.
// A finished grid is the checkpoint; its scan is not repeated.
func (w *Writer) Exists(key model.ScanKey) bool {
	_, err := os.Stat(w.GridPath(key))
	return err == nil
}

// WriteGrid writes g and returns the file path.
func (w *Writer) WriteGrid(g *model.Grid) (string, error) {
	path := w.GridPath(g.Key)
	w.logger.Info("saving map", "path", path)
	err := writeAtomic(path, func(out io.Writer) error {
		return EncodeGrid(out, g, w.now())
	})
	if err != nil {
		return "", fmt.Errorf("write grid: %w", err)
	}
	return path, nil
}

// SaveProfile writes the raw profile of one bin. It satisfies scan.ProfileSink.
func (w *Writer) SaveProfile(key model.ScanKey, phiDeg, thetaDeg int, p profile.Profile) error {
	path := ProfilePath(w.dir, key, phiDeg, thetaDeg)
	return writeAtomic(path, func(out io.Writer) error {
		return EncodeProfile(out, p, key.Radius)
	})
}

// EncodeGrid writes g in the grid text format.
func EncodeGrid(out io.Writer, g *model.Grid, at time.Time) error {
	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "#Results generated at: %s using UA version: %s\n", at.Format(time.ANSIC), Version)
	fmt.Fprintf(bw, "#%s - %s\n", g.Key.Nanoparticle, g.Key.Molecule)
	fmt.Fprintln(bw, gridLegend)
	for _, b := range g.Bins {
		fmt.Fprintf(bw, "%-7.1f%-7.1f%-14.5f%-14.5f%-14.5f%-14.5e%-14.5f%-14.5f%-7.1f%-14.5f\n",
			b.Phi,
			b.Theta,
			b.FreeEnergy,
			b.FreeEnergySD,
			b.MinLocation,
			b.MFPT,
			b.FreeEnergy*kTToKJPerMol,
			b.MinLocation+g.Key.Radius,
			g.Key.Omega,
			b.Contacts,
		)
	}
	return bw.Flush()
}

// EncodeProfile writes the "#ssd,E(kbT)" profile format. Separations are
// reported relative to radius.
func EncodeProfile(out io.Writer, p profile.Profile, radius float64) error {
	bw := bufio.NewWriter(out)
	fmt.Fprintln(bw, "#ssd,E(kbT)")
	for i, s := range p.Separations {
		fmt.Fprintf(bw, "%.6g, %.6g\n", s-radius, p.Energies[i])
	}
	return bw.Flush()
}

// ReadGrid parses a grid file. The key is recovered from the header, the
// file name and the first row; zeta comes from the file name.
func ReadGrid(path string) (*model.Grid, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()

	g, err := DecodeGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), GridExt)
	if strings.HasSuffix(base, "_mfpt") {
		g.Key.MFPT = true
		base = strings.TrimSuffix(base, "_mfpt")
	}
	rest := strings.TrimPrefix(base, g.Key.Molecule+"_")
	parts := strings.Split(rest, "_")
	if rest != base && len(parts) >= 2 {
		if z, err := strconv.Atoi(parts[1]); err == nil {
			g.Key.Zeta = float64(z) / 1000
		}
	}
	return g, nil
}

// DecodeGrid parses the grid text format. The returned key has no shape or
// zeta; ReadGrid fills in what the file name provides.
func DecodeGrid(r io.Reader) (*model.Grid, error) {
	g := &model.Grid{}
	sc := bufio.NewScanner(r)
	headers := 0
	radiusSet := false

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			headers++
			if headers == 2 {
				np, mol, ok := strings.Cut(line[1:], " - ")
				if !ok {
					return nil, fmt.Errorf("%w: bad title line %q", ErrMalformedGrid, line)
				}
				g.Key.Nanoparticle, g.Key.Molecule = np, mol
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 10 {
			return nil, fmt.Errorf("%w: expected 10 columns, got %d", ErrMalformedGrid, len(fields))
		}
		v := make([]float64, len(fields))
		for i, s := range fields {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %d: %w", ErrMalformedGrid, i+1, err)
			}
			v[i] = x
		}
		g.Bins = append(g.Bins, model.BinResult{
			Phi:          v[0],
			Theta:        v[1],
			FreeEnergy:   v[2],
			FreeEnergySD: v[3],
			MinLocation:  v[4],
			MFPT:         v[5],
			Contacts:     v[9],
		})
		if !radiusSet {
			g.Key.Radius = math.Round((v[7]-v[4])*1e4) / 1e4
			g.Key.Omega = v[8]
			radiusSet = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	if len(g.Bins) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedGrid)
	}

	rows := math.Sqrt(float64(len(g.Bins)) / 2)
	if rows != math.Trunc(rows) {
		return nil, fmt.Errorf("%w: %d rows do not form a full grid", ErrMalformedGrid, len(g.Bins))
	}
	g.Delta = 180 / rows
	return g, nil
}
