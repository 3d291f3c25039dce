package orient

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nao1215/unitedatom/internal/geometry"
)

// NewSeed generates a master seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// NewTaskRNG returns the generator owned by one parallel task. Two tasks
// with the same master seed never share a stream.
func NewTaskRNG(master uint64, task int) *rand.Rand {
	return rand.New(rand.NewPCG(master, uint64(task)))
}

// Sampler produces rotated copies of a molecule for orientation bins.
// A Sampler is not safe for concurrent use; give each task its own.
type Sampler struct {
	bins  Bins
	omega float64
	src   []r3.Vec
	rng   *rand.Rand
}

// NewSampler creates a sampler for the given bead positions.
// omega is the rotation about the molecule axis in radians.
func NewSampler(bins Bins, positions []r3.Vec, omega float64, rng *rand.Rand) *Sampler {
	return &Sampler{
		bins:  bins,
		omega: omega,
		src:   positions,
		rng:   rng,
	}
}

// Len is the number of beads each sample produces.
func (s *Sampler) Len() int { return len(s.src) }

// Rotation returns the rotation for bin i. Canonical samples sit in the
// middle of the bin; stochastic samples draw a uniform offset in [0, Delta)
// for each angle.
func (s *Sampler) Rotation(i int, canonical bool) geometry.Rotation {
	phi, theta := s.bins.Angles(i)
	d := s.bins.DeltaRad()
	u1, u2 := d/2, d/2
	if !canonical {
		u1 = s.rng.Float64() * d
		u2 = s.rng.Float64() * d
	}
	return geometry.NewRotation3(-(phi + u1), math.Pi-(theta+u2), s.omega)
}

// Sample writes the rotated, contact-shifted bead positions for bin i into
// dst and returns it. dst must have room for Len positions.
func (s *Sampler) Sample(dst []r3.Vec, i int, canonical bool) []r3.Vec {
	dst = dst[:len(s.src)]
	s.Rotation(i, canonical).RotateInto(dst, s.src)
	geometry.ShiftToContact(dst)
	return dst
}
