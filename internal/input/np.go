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

	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/model"
)

// GeneratedHeader is the first line of every generated NP file.
const GeneratedHeader = "#NP file generated by UnitedAtom"

var (
	// ErrMalformedNP is returned for NP files that cannot be parsed.
	ErrMalformedNP = errors.New("malformed np file")

	// ErrEmptyNP is returned when an NP file defines no beads.
	ErrEmptyNP = errors.New("np file has no beads")
)

// ReadNP reads an NP description file. The nanoparticle is named after the
// file stem.
func ReadNP(path string) (*model.Nanoparticle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open np file: %w", err)
	}
	defer f.Close()

	np, err := ParseNP(f, Stem(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return np, nil
}

// ParseNP parses the comma-separated NP format:
//
//	TYPE,radius,zeta,coreFactor,surfFactor,shape,hamakerFile,pmfDir,pmfCutoff,correction
//	BEAD,type,x,y,z
//
// Bead types are numbered in the order their TYPE lines appear. Lines
// starting with # are comments. The NP takes the zeta of its first type;
// the inner bound is the largest type radius and the outer bound the
// largest |position| + radius over all beads.
func ParseNP(r io.Reader, name string) (*model.Nanoparticle, error) {
	np := &model.Nanoparticle{Name: name}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		var err error
		switch strings.ToUpper(fields[0]) {
		case "TYPE":
			err = parseType(np, fields[1:])
		case "BEAD":
			err = parseBead(np, fields[1:])
		default:
			err = fmt.Errorf("unknown record %q", fields[0])
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedNP, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read np file: %w", err)
	}
	if len(np.Beads) == 0 {
		return nil, ErrEmptyNP
	}

	np.Zeta = np.Types[0].Zeta
	for _, t := range np.Types {
		np.InnerBound = math.Max(np.InnerBound, t.Radius)
	}
	for _, b := range np.Beads {
		np.OuterBound = math.Max(np.OuterBound, r3.Norm(b.Position)+np.Types[b.Type].Radius)
	}
	return np, nil
}

func parseType(np *model.Nanoparticle, f []string) error {
	if len(f) < 9 {
		return fmt.Errorf("TYPE needs 9 fields, got %d", len(f))
	}
	nums, err := parseFloats(f[0], f[1], f[2], f[3], f[7])
	if err != nil {
		return err
	}
	shape, err := geometry.ParseShape(f[4])
	if err != nil {
		return err
	}
	correction, err := strconv.Atoi(f[8])
	if err != nil {
		return fmt.Errorf("correction type %q: %w", f[8], err)
	}
	np.Types = append(np.Types, model.NPBeadType{
		Shape:       shape,
		Radius:      nums[0],
		Zeta:        nums[1],
		CoreFactor:  nums[2],
		SurfFactor:  nums[3],
		HamakerFile: f[5],
		PMFDir:      f[6],
		PMFCutoff:   nums[4],
		Correction:  correction,
	})
	return nil
}

func parseBead(np *model.Nanoparticle, f []string) error {
	if len(f) < 4 {
		return fmt.Errorf("BEAD needs 4 fields, got %d", len(f))
	}
	typ, err := strconv.Atoi(f[0])
	if err != nil {
		return fmt.Errorf("bead type %q: %w", f[0], err)
	}
	if typ < 0 || typ >= len(np.Types) {
		return fmt.Errorf("bead type %d is not defined", typ)
	}
	xyz, err := parseFloats(f[1], f[2], f[3])
	if err != nil {
		return err
	}
	np.Beads = append(np.Beads, model.NPBead{
		Position: r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		Type:     typ,
	})
	return nil
}

func parseFloats(fields ...string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// GenerateOptions describes the single-bead NPs written by GenerateNPs.
type GenerateOptions struct {
	Radii          []float64
	ZetaPotentials []float64
	Shape          geometry.Shape
	HamakerFile    string
	PMFDir         string
	PMFCutoff      float64
}

// GeneratedName returns the name of the n-th generated NP (1-based).
func GeneratedName(n int, radius, zeta float64) string {
	return fmt.Sprintf("np%dR_%d_ZP_%d", n, int(radius), int(zeta*1000))
}

// GenerateNPs writes one single-bead NP file into dir for every
// (radius, zeta) pair, radii varying slowest, and returns their paths.
// Generated NPs are read back through ReadNP like any other NP file.
func GenerateNPs(dir string, opts GenerateOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create np directory: %w", err)
	}

	var paths []string
	n := 1
	for _, radius := range opts.Radii {
		for _, zeta := range opts.ZetaPotentials {
			path := filepath.Join(dir, GeneratedName(n, radius, zeta)+NPExt)
			n++

			shape := strconv.Itoa(int(opts.Shape))
			body := fmt.Sprintf("%s\nTYPE,%f,%f,1,1,%s,%s,%s,%f,%s\nBEAD,0,0,0,0\n",
				GeneratedHeader, radius, zeta, shape, opts.HamakerFile, opts.PMFDir, opts.PMFCutoff, shape)
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				return nil, fmt.Errorf("failed to write generated np: %w", err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
