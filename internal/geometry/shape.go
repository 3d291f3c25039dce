package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Shape identifies the surface model of a nanoparticle or of one of its beads.
// The numeric values match the shape ids used in NP description files.
type Shape int

const (
	// ShapeUnknown is the zero value and is never valid.
	ShapeUnknown Shape = iota

	// ShapeSphere models a sphere; distances are full 3-D centre distances.
	ShapeSphere

	// ShapeCylinderA is the primary infinite cylinder aligned with the x axis.
	ShapeCylinderA

	// ShapeCube models a cube approached face-on along z.
	ShapeCube

	// ShapeCylinderB is an infinite cylinder variant sharing CylinderA's distance model.
	ShapeCylinderB

	// ShapeCylinderC is an infinite cylinder variant sharing CylinderA's distance model.
	ShapeCylinderC
)

var shapeNames = map[Shape]string{
	ShapeSphere:    "sphere",
	ShapeCylinderA: "cylinder",
	ShapeCube:      "cube",
	ShapeCylinderB: "cylinder-b",
	ShapeCylinderC: "cylinder-c",
}

// String returns the configuration name of the shape.
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// DisplayName returns a title-cased name suitable for reports.
func (s Shape) DisplayName() string {
	return cases.Title(language.English).String(strings.ReplaceAll(s.String(), "-", " "))
}

// Valid reports whether s is one of the five known shapes.
func (s Shape) Valid() bool {
	_, ok := shapeNames[s]
	return ok
}

// IsCylinder reports whether s is any of the cylinder variants.
func (s Shape) IsCylinder() bool {
	return s == ShapeCylinderA || s == ShapeCylinderB || s == ShapeCylinderC
}

// ParseShape accepts either a numeric shape id ("1".."5") or a shape name.
func ParseShape(v string) (Shape, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if id, err := strconv.Atoi(v); err == nil {
		s := Shape(id)
		if !s.Valid() {
			return ShapeUnknown, fmt.Errorf("unknown shape id %d", id)
		}
		return s, nil
	}
	for s, name := range shapeNames {
		if name == v {
			return s, nil
		}
	}
	if v == "cylinder-a" {
		return ShapeCylinderA, nil
	}
	return ShapeUnknown, fmt.Errorf("unknown shape %q", v)
}

// UnmarshalText lets configuration files and environment variables name
// shapes either way.
func (s *Shape) UnmarshalText(text []byte) error {
	parsed, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText writes the shape by name.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SurfaceDistance returns the distance from point p to the surface of a body
// of this shape centred at c with the given radius (half-extent for cubes).
//
// Cylinders are infinite along x, so only the y and z components count.
// Cubes are approached face-on, so only the z component counts.
func (s Shape) SurfaceDistance(p, c r3.Vec, radius float64) float64 {
	dx := p.X - c.X
	dy := p.Y - c.Y
	dz := p.Z - c.Z
	switch {
	case s.IsCylinder():
		return math.Sqrt(dy*dy+dz*dz) - radius
	case s == ShapeCube:
		return math.Sqrt(dz*dz) - radius
	default:
		return math.Sqrt(dx*dx+dy*dy+dz*dz) - radius
	}
}

// MeasurePower is the exponent of the separation in the free-energy
// integration measure: 2 for spheres (shell area), 1 for cylinders, 0 for cubes.
func (s Shape) MeasurePower() int {
	switch {
	case s.IsCylinder():
		return 1
	case s == ShapeCube:
		return 0
	default:
		return 2
	}
}

// MFPTPower is the exponent of the separation ratio used by the MFPT
// double sum. Only shape id 1 uses 2; the cylinder ids use 1; anything else 0.
func (s Shape) MFPTPower() int {
	switch {
	case s == ShapeSphere:
		return 2
	case s.IsCylinder():
		return 1
	default:
		return 0
	}
}
