package orient

import (
	"errors"
	"fmt"
	"math"
)

// DefaultDelta is the default bin width in degrees.
const DefaultDelta = 5.0

// ErrInvalidDelta is returned when the bin width does not tile [0, 180].
var ErrInvalidDelta = errors.New("angle delta must be positive and divide 180 evenly")

// Bins is the regular (phi, theta) grid of orientation bins.
// Index i maps to phi = (i mod Cols)·Delta and theta = (i div Cols)·Delta.
type Bins struct {
	// Delta is the bin width in degrees.
	Delta float64
	Rows  int
	Cols  int
}

// NewBins returns the bin grid for the given width in degrees.
func NewBins(delta float64) (Bins, error) {
	if delta <= 0 || math.IsNaN(delta) {
		return Bins{}, ErrInvalidDelta
	}
	rows := 180 / delta
	if math.Abs(rows-math.Round(rows)) > 1e-9 {
		return Bins{}, fmt.Errorf("%w: got %g", ErrInvalidDelta, delta)
	}
	r := int(math.Round(rows))
	return Bins{Delta: delta, Rows: r, Cols: 2 * r}, nil
}

// Count is the total number of bins.
func (b Bins) Count() int {
	return b.Rows * b.Cols
}

// Col returns the phi column of bin i.
func (b Bins) Col(i int) int { return i % b.Cols }

// Row returns the theta row of bin i.
func (b Bins) Row(i int) int { return i / b.Cols }

// PhiDeg returns the left-hand phi edge of bin i in degrees.
func (b Bins) PhiDeg(i int) float64 {
	return float64(b.Col(i)) * b.Delta
}

// ThetaDeg returns the left-hand theta edge of bin i in degrees.
func (b Bins) ThetaDeg(i int) float64 {
	return float64(b.Row(i)) * b.Delta
}

// DeltaRad returns the bin width in radians.
func (b Bins) DeltaRad() float64 {
	return b.Delta * math.Pi / 180
}

// Angles returns the left-hand edges of bin i in radians.
func (b Bins) Angles(i int) (phi, theta float64) {
	d := b.DeltaRad()
	return float64(b.Col(i)) * d, float64(b.Row(i)) * d
}
