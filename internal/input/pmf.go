package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/nao1215/unitedatom/internal/model"
)

// PMFExt is the extension of surface PMF tables.
const PMFExt = ".dat"

// ErrMalformedPMF is returned for PMF tables that cannot be parsed.
var ErrMalformedPMF = errors.New("malformed pmf table")

// PMF is one residue's potential of mean force against a surface, as a
// function of residue centre to surface distance in nm. Energies are in kT.
type PMF struct {
	first, last float64
	firstEnergy float64
	cutoff      float64
	curve       interp.PiecewiseLinear
}

// Value returns the interpolated energy at d. Below the first tabulated
// distance the first energy is returned; beyond the cutoff or the last
// tabulated distance the energy is zero.
func (p *PMF) Value(d float64) float64 {
	if d > p.cutoff || d > p.last {
		return 0
	}
	if d <= p.first {
		return p.firstEnergy
	}
	return p.curve.Predict(d)
}

// ParsePMF reads a two-column table of distance and energy. Columns may be
// separated by whitespace or commas; lines starting with # are comments.
// Distances must be strictly increasing.
func ParsePMF(r io.Reader, cutoff float64) (*PMF, error) {
	var xs, ys []float64

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(c rune) bool {
			return c == ',' || c == ' ' || c == '\t'
		})
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 columns", ErrMalformedPMF, lineNo)
		}
		d, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedPMF, lineNo, err)
		}
		e, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedPMF, lineNo, err)
		}
		if n := len(xs); n > 0 && d <= xs[n-1] {
			return nil, fmt.Errorf("%w: line %d: distance %g is not increasing", ErrMalformedPMF, lineNo, d)
		}
		xs = append(xs, d)
		ys = append(ys, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pmf: %w", err)
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrMalformedPMF, len(xs))
	}

	p := &PMF{first: xs[0], last: xs[len(xs)-1], firstEnergy: ys[0], cutoff: cutoff}
	if err := p.curve.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPMF, err)
	}
	return p, nil
}

// ReadPMF reads {dir}/{residue}.dat.
func ReadPMF(dir, residue string, cutoff float64) (*PMF, error) {
	path := filepath.Join(dir, residue+PMFExt)
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open pmf for %s: %w", residue, err)
	}
	defer f.Close()

	p, err := ParsePMF(f, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// PMFTable holds a PMF per (residue type, NP bead type). It implements the
// profile builder's Potential interface and is safe for concurrent reads.
type PMFTable struct {
	// pmfs is indexed by NP bead type, then residue type.
	pmfs [][]*PMF
}

// LoadPMFTable reads the PMF of every residue for every bead type of np.
// A bead type without a PMF directory uses defaultDir; tables shared by
// several bead types are read once.
func LoadPMFTable(np *model.Nanoparticle, residues []string, defaultDir string) (*PMFTable, error) {
	type key struct {
		dir, residue string
		cutoff       float64
	}
	cache := make(map[key]*PMF)

	t := &PMFTable{pmfs: make([][]*PMF, len(np.Types))}
	for i, bt := range np.Types {
		dir := bt.PMFDir
		if dir == "" {
			dir = defaultDir
		}
		t.pmfs[i] = make([]*PMF, len(residues))
		for j, res := range residues {
			k := key{dir: dir, residue: res, cutoff: bt.PMFCutoff}
			p, ok := cache[k]
			if !ok {
				var err error
				p, err = ReadPMF(dir, res, bt.PMFCutoff)
				if err != nil {
					return nil, err
				}
				cache[k] = p
			}
			t.pmfs[i][j] = p
		}
	}
	return t, nil
}

// Value returns the energy of a residue of type residueType at surface
// distance d from an NP bead of type npBeadType.
func (t *PMFTable) Value(residueType, npBeadType int, d float64) float64 {
	return t.pmfs[npBeadType][residueType].Value(d)
}
