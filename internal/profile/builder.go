package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/model"
)

// DefaultMargin is the distance added beyond the outer bound of the
// nanoparticle to place the profile's reference point.
const DefaultMargin = 2.0

// ErrTooFewSteps is returned when a profile would have fewer than two points.
var ErrTooFewSteps = errors.New("profile needs at least two steps")

// Potential returns the interaction energy, in kT, of a residue of the given
// type at surface distance d from an NP bead of the given type.
type Potential interface {
	Value(residueType, npBeadType int, d float64) float64
}

// PotentialFunc adapts an ordinary function to the Potential interface.
type PotentialFunc func(residueType, npBeadType int, d float64) float64

// Value calls f.
func (f PotentialFunc) Value(residueType, npBeadType int, d float64) float64 {
	return f(residueType, npBeadType, d)
}

// Options configures a Builder.
type Options struct {
	// Steps is the number of points in each profile.
	Steps int

	// Margin is added to the outer bound to get the starting separation.
	Margin float64

	// Radius and Shape describe the isotropic representative bead.
	Radius float64
	Shape  geometry.Shape

	// OverlapPenalty is added per residue, weighted by occupancy, when a
	// residue is closer than its closest allowed approach. Zero disables it.
	OverlapPenalty float64

	// RadiusFactor inflates residue and NP bead radii for the overlap test.
	RadiusFactor float64

	// ResidueRadii is indexed by residue type.
	ResidueRadii []float64

	// OnNonFinite, if set, is called whenever the potential yields NaN or Inf.
	OnNonFinite func()
}

// Profile is the radial energy profile of one pose. Its slices belong to
// the Builder that produced it and are overwritten by the next Build.
type Profile struct {
	// Separations runs from far to near, NP centre to the molecule's lowest point.
	Separations []float64
	Energies    []float64

	// Step is the uniform spacing of Separations.
	Step float64

	// Init is the energy at the far separation, without overlap penalty.
	Init float64

	MinEnergy   float64
	MinLocation float64
	Contacts    int
}

// Builder builds radial profiles for one molecule against one nanoparticle.
// It owns its scratch buffers, so each concurrent task needs its own Builder.
type Builder struct {
	mol    *model.Molecule
	np     *model.Nanoparticle
	pot    Potential
	opts   Options
	logger *slog.Logger

	far  float64
	near float64
	dz   float64

	sep     []float64
	energy  []float64
	closest []float64
	targets []target
}

// target is an NP bead as seen by the energy sum.
type target struct {
	centre   r3.Vec
	radius   float64
	shape    geometry.Shape
	beadType int
}

// NewBuilder validates the options and allocates the scratch buffers.
func NewBuilder(mol *model.Molecule, np *model.Nanoparticle, pot Potential, opts Options, logger *slog.Logger) (*Builder, error) {
	if opts.Steps < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSteps, opts.Steps)
	}
	if len(np.Beads) == 0 {
		return nil, errors.New("nanoparticle has no beads")
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Builder{
		mol:     mol,
		np:      np,
		pot:     pot,
		opts:    opts,
		logger:  logger,
		far:     np.OuterBound + opts.Margin,
		near:    np.InnerBound,
		sep:     make([]float64, opts.Steps),
		energy:  make([]float64, opts.Steps),
		closest: make([]float64, len(mol.Beads)),
	}
	b.dz = (b.far - b.near) / float64(opts.Steps-1)
	floats.Span(b.sep, b.far, b.near)

	if np.Isotropic {
		b.targets = []target{{
			radius:   opts.Radius,
			shape:    opts.Shape,
			beadType: np.Beads[0].Type,
		}}
	} else {
		b.targets = make([]target, len(np.Beads))
		for i, bead := range np.Beads {
			t := np.Types[bead.Type]
			b.targets[i] = target{
				centre:   bead.Position,
				radius:   t.Radius,
				shape:    t.Shape,
				beadType: bead.Type,
			}
		}
	}
	return b, nil
}

// Far returns the starting separation.
func (b *Builder) Far() float64 { return b.far }

// Near returns the final separation.
func (b *Builder) Near() float64 { return b.near }

// Build computes the profile for a pose. pos holds the rotated bead
// positions with the lowest bead at z = 0.
func (b *Builder) Build(pos []r3.Vec) Profile {
	penalise := b.np.Isotropic && b.opts.OverlapPenalty > 0
	if penalise {
		b.closestApproach(pos)
	}

	p := Profile{
		Separations: b.sep,
		Energies:    b.energy,
		Step:        b.dz,
		MinLocation: b.far,
	}

	for j, bead := range b.mol.Beads {
		at := pos[j]
		at.Z += b.far
		for _, t := range b.targets {
			d := t.shape.SurfaceDistance(at, t.centre, t.radius)
			p.Init += bead.Occupancy * b.pot.Value(bead.Type, t.beadType, d)
		}
	}

	for i, ssd := range b.sep {
		energy := 0.0
		contacts := 0
		for j, bead := range b.mol.Beads {
			at := pos[j]
			at.Z += ssd
			touching := false
			penalty := 0.0
			for _, t := range b.targets {
				d := t.shape.SurfaceDistance(at, t.centre, t.radius)
				if penalise && d < b.closest[j] {
					penalty = b.opts.OverlapPenalty
				}
				if d < model.ContactThreshold {
					touching = true
				}
				v := bead.Occupancy * b.pot.Value(bead.Type, t.beadType, d)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					b.nonFinite(j, bead.Type, t.beadType, d, v)
				}
				energy += bead.Occupancy*penalty + v
			}
			if touching {
				contacts++
			}
		}
		b.energy[i] = energy
		if energy < p.MinEnergy {
			p.MinEnergy = energy
			p.MinLocation = ssd
			p.Contacts = contacts
		}
	}
	return p
}

// closestApproach fills b.closest with the smallest allowed distance between
// each residue centre and the nominal NP surface, using inflated radii.
func (b *Builder) closestApproach(pos []r3.Vec) {
	factor := b.opts.RadiusFactor
	for i, bead := range b.mol.Beads {
		a := b.residueRadius(bead.Type) * factor
		allowed := 0.0
		for _, nb := range b.np.Beads {
			r := b.np.Types[nb.Type].Radius * factor
			dx := pos[i].X - nb.Position.X
			dy := pos[i].Y - nb.Position.Y
			t := (a+r)*(a+r) - dx*dx - dy*dy
			if t <= 0 {
				continue
			}
			s := nb.Position.Z - a - pos[i].Z - b.opts.Radius + math.Sqrt(t)
			if s > allowed {
				allowed = s
			}
		}
		b.closest[i] = allowed + a
	}
}

func (b *Builder) residueRadius(residueType int) float64 {
	if residueType < 0 || residueType >= len(b.opts.ResidueRadii) {
		return 0
	}
	return b.opts.ResidueRadii[residueType]
}

func (b *Builder) nonFinite(residue, residueType, npBeadType int, d, v float64) {
	if b.opts.OnNonFinite != nil {
		b.opts.OnNonFinite()
	}
	b.logger.Warn("non-finite potential value",
		"residue", residue,
		"residue_type", residueType,
		"np_bead_type", npBeadType,
		"distance", d,
		"value", v,
	)
}
