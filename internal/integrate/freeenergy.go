package integrate

import (
	"log/slog"
	"math"

	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/profile"
)

// ReferenceTemperature is the temperature, in K, at which energies are in kT.
const ReferenceTemperature = 300.0

// minEnergyStart is larger than any relative energy seen in practice.
const minEnergyStart = 500.0

// Result is a free energy together with whether it had to be recovered.
type Result struct {
	Value float64

	// Degenerate is true when the log-integral was not finite and Value is
	// the fallback instead.
	Degenerate bool
}

// SafeLog returns -(T/300)·ln(factor·area). When that is not a finite
// number it returns fallback and marks the result degenerate.
func SafeLog(factor, area, temperature, fallback float64) Result {
	v := -(temperature / ReferenceTemperature) * math.Log(factor*area)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Result{Value: fallback, Degenerate: true}
	}
	return Result{Value: v}
}

// Integrator turns radial profiles into adsorption free energies.
type Integrator struct {
	shape       geometry.Shape
	temperature float64
	logger      *slog.Logger
}

// New returns an integrator for the given nanoparticle shape.
func New(shape geometry.Shape, temperature float64, logger *slog.Logger) *Integrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Integrator{shape: shape, temperature: temperature, logger: logger}
}

// FreeEnergy integrates p with the variant selected by the shape: spheres use
// the d² shell measure, cylinders d, and cubes a flat measure.
func (in *Integrator) FreeEnergy(p profile.Profile) Result {
	sep := p.Separations
	n := len(sep)
	power := float64(in.shape.MeasurePower())

	area := 0.0
	minRel := minEnergyStart
	for i, e := range p.Energies {
		rel := e - p.Init
		if rel < minRel {
			minRel = rel
		}
		if in.shape.IsCylinder() && (math.IsNaN(e) || math.IsInf(e, 0)) {
			in.logger.Warn("cylinder integration: non-finite energy", "index", i, "energy", e)
		}
		area += math.Pow(sep[i], power) * p.Step * math.Exp(-rel)
	}

	span := math.Abs(math.Pow(sep[0], power+1) - math.Pow(sep[n-1], power+1))
	factor := (power + 1) / span

	if in.shape.IsCylinder() && factor*area < 0 {
		in.logger.Warn("cylinder integration: factor*area < 0, unphysical result",
			"factor", factor,
			"area", area,
		)
	}

	r := SafeLog(factor, area, in.temperature, minRel)
	if r.Degenerate {
		in.logger.Warn("degenerate free-energy integral, using minimum relative energy",
			"shape", in.shape.String(),
			"fallback", r.Value,
		)
	}
	return r
}
