package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nao1215/unitedatom/internal/model"
)

// angstromToNM converts PDB coordinates to nm.
const angstromToNM = 0.1

// alphaFoldRMSD replaces the B-factor derived RMSD in AlphaFold models,
// whose B-factor column holds pLDDT.
const alphaFoldRMSD = 0.05

var (
	// ErrUnknownResidue is returned for a residue missing from the residue table.
	ErrUnknownResidue = errors.New("residue not in residue table")

	// ErrMalformedPDB is returned when a CA record cannot be parsed.
	ErrMalformedPDB = errors.New("malformed pdb record")
)

// Disorder strategies, matching the configuration values.
const (
	DisorderIgnore   = 0
	DisorderCentre   = 1
	DisorderSuppress = 2
)

// PDBOptions controls how CA records become beads.
type PDBOptions struct {
	// Residues maps residue names to type ids.
	Residues map[string]int

	DisorderStrategy int

	// A residue is disordered when DisorderMin < B-factor < DisorderMax.
	DisorderMin float64
	DisorderMax float64
}

// ReadPDB reads the first model of a PDB file. The molecule is named after
// the file stem.
func ReadPDB(path string, opts PDBOptions) (*model.Molecule, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdb file: %w", err)
	}
	defer f.Close()

	mol, err := ParsePDB(f, Stem(path), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mol, nil
}

// record is one parsed CA line before centring.
type record struct {
	pos       r3.Vec
	typ       int
	occupancy float64
	bfactor   float64
	rmsd      float64
}

// ParsePDB reads ATOM CA records up to the first ENDMDL, converts them to
// nm, applies the disorder strategy and centres the molecule on the
// occupancy-weighted centre of its ordered residues.
func ParsePDB(r io.Reader, name string, opts PDBOptions) (*model.Molecule, error) {
	var records []record
	alphaFold := false

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		line := sc.Text()
		lineNo++

		if strings.Contains(line, "ALPHAFOLD") {
			alphaFold = true
		}
		if strings.HasPrefix(line, "ENDMDL") {
			break
		}
		if !strings.HasPrefix(line, "ATOM") || column(line, 13, 2) != "CA" {
			continue
		}

		rec, err := parseCA(line, alphaFold, opts.Residues)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pdb: %w", err)
	}

	return &model.Molecule{Name: name, Beads: centre(records, opts)}, nil
}

func parseCA(line string, alphaFold bool, residues map[string]int) (record, error) {
	tag := strings.TrimSpace(column(line, 17, 3))

	var v [5]float64
	for i, c := range [5][2]int{{30, 8}, {38, 8}, {46, 8}, {54, 6}, {60, 6}} {
		s := strings.TrimSpace(column(line, c[0], c[1]))
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return record{}, fmt.Errorf("%w: column %d: %q", ErrMalformedPDB, c[0]+1, s)
		}
		v[i] = x
	}

	typ, ok := residues[tag]
	if !ok {
		return record{}, fmt.Errorf("%w: %q", ErrUnknownResidue, tag)
	}

	rmsd := alphaFoldRMSD
	if !alphaFold {
		rmsd = 0.1 * math.Sqrt(v[4]/(8*math.Pi*math.Pi))
	}
	return record{
		pos:       r3.Scale(angstromToNM, r3.Vec{X: v[0], Y: v[1], Z: v[2]}),
		typ:       typ,
		occupancy: v[3],
		bfactor:   v[4],
		rmsd:      rmsd,
	}, nil
}

// centre applies the disorder strategy. Disordered residues are placed at
// the centre under strategies 1 and 2; everything else is shifted by the
// centre of the contributing residues, which is the origin when their total
// occupancy is at most 0.5.
func centre(records []record, opts PDBOptions) []model.Bead {
	disordered := func(r record) bool {
		return opts.DisorderStrategy != DisorderIgnore && r.bfactor > opts.DisorderMin && r.bfactor < opts.DisorderMax
	}

	var com r3.Vec
	var totalOcc float64
	for i := range records {
		if disordered(records[i]) {
			if opts.DisorderStrategy == DisorderSuppress {
				records[i].occupancy = model.SuppressedOccupancy
			}
			continue
		}
		com = r3.Add(com, r3.Scale(records[i].occupancy, records[i].pos))
		totalOcc += records[i].occupancy
	}
	if totalOcc > 0.5 {
		com = r3.Scale(1/totalOcc, com)
	} else {
		com = r3.Vec{}
	}

	beads := make([]model.Bead, len(records))
	for i, r := range records {
		pos := r3.Vec{}
		if !disordered(r) {
			pos = r3.Sub(r.pos, com)
		}
		beads[i] = model.Bead{Position: pos, Type: r.typ, Occupancy: r.occupancy, RMSD: r.rmsd}
	}
	return beads
}

// column returns up to n bytes of line starting at the zero-based offset
// start, or "" when the line is shorter than start.
func column(line string, start, n int) string {
	if start >= len(line) {
		return ""
	}
	end := min(start+n, len(line))
	return line[start:end]
}
