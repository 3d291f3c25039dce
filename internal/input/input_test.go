package input

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/model"
)

// discardLogger returns a logger that drops everything.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFile creates path with content, making parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// caLine formats a PDB ATOM CA record with the standard column layout.
func caLine(serial int, res string, x, y, z, occ, b float64) string {
	return fmt.Sprintf("ATOM  %5d  CA  %-3s A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f           C",
		serial, res, serial, x, y, z, occ, b)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

var testResidues = map[string]int{"ALA": 0, "GLY": 1}

// TestParsePDB tests CA parsing, unit conversion and centring.
func TestParsePDB(t *testing.T) {
	t.Parallel()

	pdb := strings.Join([]string{
		"HEADER    TEST",
		caLine(1, "ALA", 10, 0, 0, 1, 20),
		"ATOM      2  CB  ALA A   1      99.000  99.000  99.000  1.00 20.00           C",
		caLine(3, "GLY", -10, 20, 0, 1, 20),
		"ENDMDL",
		caLine(4, "ALA", 500, 500, 500, 1, 20),
	}, "\n")

	mol, err := ParsePDB(strings.NewReader(pdb), "test", PDBOptions{Residues: testResidues})
	if err != nil {
		t.Fatalf("ParsePDB() error = %v", err)
	}
	if mol.Name != "test" || len(mol.Beads) != 2 {
		t.Fatalf("expected 2 beads, got %d", len(mol.Beads))
	}

	// Centre is (0, 1, 0) nm.
	b0, b1 := mol.Beads[0], mol.Beads[1]
	if !approx(b0.Position.X, 1) || !approx(b0.Position.Y, -1) || !approx(b0.Position.Z, 0) {
		t.Errorf("bead 0 position = %v", b0.Position)
	}
	if !approx(b1.Position.X, -1) || !approx(b1.Position.Y, 1) {
		t.Errorf("bead 1 position = %v", b1.Position)
	}
	if b0.Type != 0 || b1.Type != 1 {
		t.Errorf("types = %d, %d", b0.Type, b1.Type)
	}
	wantRMSD := 0.1 * math.Sqrt(20/(8*math.Pi*math.Pi))
	if !approx(b0.RMSD, wantRMSD) {
		t.Errorf("RMSD = %v, want %v", b0.RMSD, wantRMSD)
	}
}

// TestParsePDB_AlphaFold tests the fixed RMSD of AlphaFold models.
func TestParsePDB_AlphaFold(t *testing.T) {
	t.Parallel()

	pdb := "TITLE     ALPHAFOLD MONOMER V2.0 PREDICTION\n" + caLine(1, "ALA", 0, 0, 0, 1, 90) + "\n"
	mol, err := ParsePDB(strings.NewReader(pdb), "af", PDBOptions{Residues: testResidues})
	if err != nil {
		t.Fatalf("ParsePDB() error = %v", err)
	}
	if mol.Beads[0].RMSD != alphaFoldRMSD {
		t.Errorf("RMSD = %v, want %v", mol.Beads[0].RMSD, alphaFoldRMSD)
	}
}

// TestParsePDB_Disorder tests the three disorder strategies.
func TestParsePDB_Disorder(t *testing.T) {
	t.Parallel()

	// Residues 1 and 2 are ordered (pLDDT 90), residue 3 is disordered (pLDDT 30).
	pdb := strings.Join([]string{
		caLine(1, "ALA", 10, 0, 0, 1, 90),
		caLine(2, "ALA", 30, 0, 0, 1, 90),
		caLine(3, "GLY", 80, 0, 0, 1, 30),
	}, "\n")

	tests := []struct {
		name     string
		strategy int
		wantX    [3]float64
		wantOcc  float64
	}{
		{name: "ignore", strategy: DisorderIgnore, wantX: [3]float64{-3, -1, 4}, wantOcc: 1},
		{name: "centre", strategy: DisorderCentre, wantX: [3]float64{-1, 1, 0}, wantOcc: 1},
		{name: "suppress", strategy: DisorderSuppress, wantX: [3]float64{-1, 1, 0}, wantOcc: model.SuppressedOccupancy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mol, err := ParsePDB(strings.NewReader(pdb), "d", PDBOptions{
				Residues:         testResidues,
				DisorderStrategy: tt.strategy,
				DisorderMin:      -5,
				DisorderMax:      50,
			})
			if err != nil {
				t.Fatalf("ParsePDB() error = %v", err)
			}
			for i, want := range tt.wantX {
				if !approx(mol.Beads[i].Position.X, want) {
					t.Errorf("bead %d x = %v, want %v", i, mol.Beads[i].Position.X, want)
				}
			}
			if !approx(mol.Beads[2].Occupancy, tt.wantOcc) {
				t.Errorf("disordered occupancy = %v, want %v", mol.Beads[2].Occupancy, tt.wantOcc)
			}
		})
	}
}

// TestParsePDB_LowOccupancy tests that no centring happens when the total
// occupancy is at most 0.5.
func TestParsePDB_LowOccupancy(t *testing.T) {
	t.Parallel()

	pdb := caLine(1, "ALA", 10, 0, 0, 0.4, 20)
	mol, err := ParsePDB(strings.NewReader(pdb), "low", PDBOptions{Residues: testResidues})
	if err != nil {
		t.Fatalf("ParsePDB() error = %v", err)
	}
	if !approx(mol.Beads[0].Position.X, 1) {
		t.Errorf("x = %v, want 1", mol.Beads[0].Position.X)
	}
}

// TestParsePDB_Errors tests unknown residues and bad numbers.
func TestParsePDB_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pdb     string
		wantErr error
	}{
		{name: "unknown residue", pdb: caLine(1, "TRP", 0, 0, 0, 1, 1), wantErr: ErrUnknownResidue},
		{name: "bad coordinate", pdb: "ATOM      1  CA  ALA A   1        abc   0.000   0.000  1.00 20.00", wantErr: ErrMalformedPDB},
		{name: "truncated line", pdb: "ATOM      1  CA  ALA A   1       1.000", wantErr: ErrMalformedPDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePDB(strings.NewReader(tt.pdb), "bad", PDBOptions{Residues: testResidues})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestReadPDB tests naming after the file stem.
func TestReadPDB(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "1ABC.pdb")
	writeFile(t, path, caLine(1, "ALA", 0, 0, 0, 1, 1)+"\n")

	mol, err := ReadPDB(path, PDBOptions{Residues: testResidues})
	if err != nil {
		t.Fatalf("ReadPDB() error = %v", err)
	}
	if mol.Name != "1ABC" {
		t.Errorf("Name = %q, want 1ABC", mol.Name)
	}

	if _, err := ReadPDB(filepath.Join(t.TempDir(), "missing.pdb"), PDBOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestCollectTargets tests file and recursive directory collection.
func TestCollectTargets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "set", "b.pdb"), "")
	writeFile(t, filepath.Join(dir, "set", "a.pdb"), "")
	writeFile(t, filepath.Join(dir, "set", "nested", "c.PDB"), "")
	writeFile(t, filepath.Join(dir, "set", "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "single.pdb"), "")
	writeFile(t, filepath.Join(dir, "other.np"), "")

	t.Run("collects recursively", func(t *testing.T) {
		t.Parallel()

		got, err := CollectTargets([]string{
			filepath.Join(dir, "single.pdb"),
			filepath.Join(dir, "set"),
			filepath.Join(dir, "other.np"),
			filepath.Join(dir, "missing"),
		}, PDBExt, discardLogger())
		if err != nil {
			t.Fatalf("CollectTargets() error = %v", err)
		}
		want := []string{
			filepath.Join(dir, "single.pdb"),
			filepath.Join(dir, "set", "a.pdb"),
			filepath.Join(dir, "set", "b.pdb"),
			filepath.Join(dir, "set", "nested", "c.PDB"),
		}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("path %d = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("no targets", func(t *testing.T) {
		t.Parallel()

		if _, err := CollectTargets(nil, PDBExt, discardLogger()); !errors.Is(err, ErrNoTargets) {
			t.Errorf("error = %v, want ErrNoTargets", err)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		t.Parallel()

		_, err := CollectTargets([]string{filepath.Join(dir, "other.np")}, PDBExt, discardLogger())
		if !errors.Is(err, ErrNoMatchingFiles) {
			t.Errorf("error = %v, want ErrNoMatchingFiles", err)
		}
	})
}

// TestStem tests file stem extraction.
func TestStem(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/data/1ABC.pdb":      "1ABC",
		"np1R_5_ZP_0.np":      "np1R_5_ZP_0",
		"dir/archive.tar.pdb": "archive.tar",
		"no_extension":        "no_extension",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestParseNP tests types, beads and bounds.
func TestParseNP(t *testing.T) {
	t.Parallel()

	np := `# two-bead particle
TYPE,2.0,0.025,1,1,1,hamaker.dat,pmfs/gold,5.0,1
TYPE,1.0,-0.01,1,1,cube,,pmfs/silica,4.0,3
BEAD,0,0,0,0
BEAD,1,3,4,0
`
	got, err := ParseNP(strings.NewReader(np), "pair")
	if err != nil {
		t.Fatalf("ParseNP() error = %v", err)
	}
	if len(got.Types) != 2 || len(got.Beads) != 2 {
		t.Fatalf("expected 2 types and 2 beads, got %d and %d", len(got.Types), len(got.Beads))
	}
	if got.Zeta != 0.025 {
		t.Errorf("Zeta = %v, want 0.025", got.Zeta)
	}
	if got.InnerBound != 2 {
		t.Errorf("InnerBound = %v, want 2", got.InnerBound)
	}
	if got.OuterBound != 6 {
		t.Errorf("OuterBound = %v, want 6", got.OuterBound)
	}
	bt := got.BeadType(1)
	if bt.Shape != geometry.ShapeCube || bt.PMFDir != "pmfs/silica" || bt.PMFCutoff != 4 || bt.Correction != 3 {
		t.Errorf("bead type 1 = %+v", bt)
	}
	if got.Types[0].HamakerFile != "hamaker.dat" {
		t.Errorf("HamakerFile = %q", got.Types[0].HamakerFile)
	}
}

// TestParseNP_Errors tests malformed NP files.
func TestParseNP_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		np      string
		wantErr error
	}{
		{name: "no beads", np: "TYPE,1,0,1,1,1,,p,5,1\n", wantErr: ErrEmptyNP},
		{name: "short type", np: "TYPE,1,0\n", wantErr: ErrMalformedNP},
		{name: "undefined bead type", np: "TYPE,1,0,1,1,1,,p,5,1\nBEAD,1,0,0,0\n", wantErr: ErrMalformedNP},
		{name: "bad shape", np: "TYPE,1,0,1,1,9,,p,5,1\nBEAD,0,0,0,0\n", wantErr: ErrMalformedNP},
		{name: "unknown record", np: "ATOM,1\n", wantErr: ErrMalformedNP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseNP(strings.NewReader(tt.np), "bad"); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestGenerateNPs tests that generated NPs read back as single-bead NPs.
func TestGenerateNPs(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nps", "run_NPs")
	paths, err := GenerateNPs(dir, GenerateOptions{
		Radii:          []float64{5, 10},
		ZetaPotentials: []float64{0, -0.025},
		Shape:          geometry.ShapeCylinderA,
		PMFDir:         "pmfs",
		PMFCutoff:      5,
	})
	if err != nil {
		t.Fatalf("GenerateNPs() error = %v", err)
	}

	wantNames := []string{"np1R_5_ZP_0", "np2R_5_ZP_-25", "np3R_10_ZP_0", "np4R_10_ZP_-25"}
	if len(paths) != len(wantNames) {
		t.Fatalf("expected %d files, got %d", len(wantNames), len(paths))
	}
	for i, p := range paths {
		if Stem(p) != wantNames[i] {
			t.Errorf("file %d = %q, want %q", i, Stem(p), wantNames[i])
		}
	}

	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}
	want := GeneratedHeader + "\nTYPE,5.000000,-0.025000,1,1,2,,pmfs,5.000000,2\nBEAD,0,0,0,0\n"
	if string(data) != want {
		t.Errorf("generated file = %q, want %q", data, want)
	}

	np, err := ReadNP(paths[1])
	if err != nil {
		t.Fatalf("ReadNP() error = %v", err)
	}
	if np.Name != "np2R_5_ZP_-25" || np.Zeta != -0.025 || np.InnerBound != 5 || np.OuterBound != 5 {
		t.Errorf("unexpected NP %+v", np)
	}
	if np.Shape() != geometry.ShapeCylinderA {
		t.Errorf("Shape() = %v, want cylinder", np.Shape())
	}
}

// samplePMF is a three-point table.
const samplePMF = `# distance energy
0.2 -4.0
0.4, -2.0
0.8	0.0
`

// TestPMF_Value tests interpolation, clamping and cutoffs.
func TestPMF_Value(t *testing.T) {
	t.Parallel()

	p, err := ParsePMF(strings.NewReader(samplePMF), 0.6)
	if err != nil {
		t.Fatalf("ParsePMF() error = %v", err)
	}

	tests := []struct {
		d    float64
		want float64
	}{
		{d: 0.0, want: -4},
		{d: 0.2, want: -4},
		{d: 0.3, want: -3},
		{d: 0.5, want: -1.5},
		{d: 0.7, want: 0},
		{d: 2.0, want: 0},
	}
	for _, tt := range tests {
		if got := p.Value(tt.d); !approx(got, tt.want) {
			t.Errorf("Value(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

// TestParsePMF_Errors tests malformed tables.
func TestParsePMF_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"single point":   "0.1 1\n",
		"one column":     "0.1\n0.2\n",
		"not numeric":    "a b\n0.2 1\n",
		"not increasing": "0.2 1\n0.1 2\n",
	}
	for name, table := range tests {
		if _, err := ParsePMF(strings.NewReader(table), 5); !errors.Is(err, ErrMalformedPMF) {
			t.Errorf("%s: error = %v, want ErrMalformedPMF", name, err)
		}
	}
}

// TestLoadPMFTable tests per bead type lookup and the default directory.
func TestLoadPMFTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gold", "ALA.dat"), "0 -1\n1 -1\n")
	writeFile(t, filepath.Join(dir, "gold", "GLY.dat"), "0 -2\n1 -2\n")
	writeFile(t, filepath.Join(dir, "default", "ALA.dat"), "0 -3\n1 -3\n")
	writeFile(t, filepath.Join(dir, "default", "GLY.dat"), "0 -4\n1 -4\n")

	np := &model.Nanoparticle{Types: []model.NPBeadType{
		{PMFDir: filepath.Join(dir, "gold"), PMFCutoff: 5},
		{PMFCutoff: 5},
	}}
	table, err := LoadPMFTable(np, []string{"ALA", "GLY"}, filepath.Join(dir, "default"))
	if err != nil {
		t.Fatalf("LoadPMFTable() error = %v", err)
	}

	tests := []struct {
		residue, beadType int
		want              float64
	}{
		{0, 0, -1},
		{1, 0, -2},
		{0, 1, -3},
		{1, 1, -4},
	}
	for _, tt := range tests {
		if got := table.Value(tt.residue, tt.beadType, 0.5); got != tt.want {
			t.Errorf("Value(%d, %d) = %v, want %v", tt.residue, tt.beadType, got, tt.want)
		}
	}

	if _, err := LoadPMFTable(np, []string{"TRP"}, filepath.Join(dir, "default")); err == nil {
		t.Error("expected error for missing residue table")
	}
}
