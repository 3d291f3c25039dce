package integrate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/profile"
)

const (
	// mfptRange is the number of strides either side of the minimum that
	// contribute initial positions.
	mfptRange = 0

	// mfptStride is the index stride between initial positions.
	mfptStride = 5
)

// MFPT returns the mean first-passage time multiplied by the diffusion
// coefficient, in nm², for escaping from the deepest point of p to its far
// end. It returns model.DisabledMFPT when enabled is false.
//
// Raw energies are used, not energies relative to Init.
func (in *Integrator) MFPT(p profile.Profile, enabled bool) float64 {
	if !enabled {
		return model.DisabledMFPT
	}
	e := p.Energies
	sep := p.Separations
	n := len(e)
	dz := p.Step
	power := float64(in.shape.MFPTPower())

	minI := floats.MinIdx(e)
	lo := max(minI-mfptRange*mfptStride, 0)
	hi := min(n, minI+mfptRange*mfptStride+1)

	outer := 0.0
	for k := lo; k < hi; k += mfptStride {
		res := 0.0
		for i := range k {
			inner := 0.0
			for j := n - 1; j > i; j-- {
				inner += dz * math.Exp(e[i]-e[j]) * math.Pow(sep[j]/sep[i], power)
			}
			res += dz * inner
		}
		outer += dz * res * math.Pow(sep[k], power) * math.Exp(-e[k])
	}

	z := 0.0
	for i := lo; i < hi; i += mfptStride {
		z += dz * math.Pow(sep[i], power) * math.Exp(-e[i])
	}
	return outer / z
}
