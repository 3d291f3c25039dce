// Package summary reduces an orientation grid to solid-angle weighted
// averages of the adsorption free energy.
package summary

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/model"
)

// fallbackCap bounds the minimum used when the Boltzmann average fails.
const fallbackCap = 50.0

// Stats summarises one grid.
type Stats struct {
	Molecule     string
	Nanoparticle string

	// Shape is ShapeUnknown for grids read back from disk.
	Shape  geometry.Shape
	Radius float64
	Zeta   float64
	Omega  float64

	// Simple is the sin(theta) weighted mean free energy.
	Simple float64

	// Boltzmann is the Boltzmann and sin(theta) weighted mean free energy.
	Boltzmann float64

	// Error is the sin(theta) weighted sum of standard deviations divided
	// by the number of bins.
	Error float64

	// Min is the lowest bin free energy, capped at 50.
	Min float64

	Bins int
}

// Compute summarises g. Theta is the left-hand edge of each bin, so the
// theta = 0 row has zero weight.
func Compute(g *model.Grid) Stats {
	n := len(g.Bins)
	dG := make([]float64, n)
	weights := make([]float64, n)

	var num, den, errSum float64
	minEnergy := fallbackCap
	for i, b := range g.Bins {
		w := math.Sin(b.ThetaRadians())
		dG[i] = b.FreeEnergy
		weights[i] = w

		boltz := math.Exp(-b.FreeEnergy)
		num += b.FreeEnergy * w * boltz
		den += w * boltz
		errSum += w * b.FreeEnergySD
		if b.FreeEnergy < minEnergy {
			minEnergy = b.FreeEnergy
		}
	}

	boltzmann := num / den
	if math.IsNaN(boltzmann) || math.IsInf(boltzmann, 0) {
		boltzmann = minEnergy
	}

	return Stats{
		Molecule:     g.Key.Molecule,
		Nanoparticle: g.Key.Nanoparticle,
		Shape:        g.Key.Shape,
		Radius:       g.Key.Radius,
		Zeta:         g.Key.Zeta,
		Omega:        g.Key.Omega,
		Simple:       stat.Mean(dG, weights),
		Boltzmann:    boltzmann,
		Error:        errSum / float64(n),
		Min:          minEnergy,
		Bins:         n,
	}
}

// Line formats s as a fixed-width summary line without a trailing newline.
func (s Stats) Line() string {
	return fmt.Sprintf("%-10s%-10.1f%-14.5f%-14.5f%-14.5f", s.Molecule, s.Radius, s.Simple, s.Boltzmann, s.Error)
}
