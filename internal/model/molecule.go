package model

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nao1215/unitedatom/internal/geometry"
)

// SuppressedOccupancy is the occupancy given to disordered residues that
// are kept in the molecule but should contribute almost nothing.
const SuppressedOccupancy = 0.01

// Bead is one coarse-grained residue of a molecule.
type Bead struct {
	// Position is the bead centre in nm, relative to the molecule centre.
	Position r3.Vec

	// Type is the residue-type id, an index into the residue table.
	Type int

	// Occupancy weights this bead's contribution to the energy.
	Occupancy float64

	// RMSD is the positional uncertainty derived from the B-factor, in nm.
	RMSD float64
}

// Molecule is a rigid collection of beads. It must not be modified while a
// scan is running.
type Molecule struct {
	Name  string
	Beads []Bead
}

// Positions returns a fresh slice containing every bead position.
func (m *Molecule) Positions() []r3.Vec {
	out := make([]r3.Vec, len(m.Beads))
	for i, b := range m.Beads {
		out[i] = b.Position
	}
	return out
}

// NPBeadType describes one kind of bead that makes up a nanoparticle.
type NPBeadType struct {
	Shape      geometry.Shape
	Radius     float64
	Zeta       float64
	CoreFactor float64
	SurfFactor float64

	// HamakerFile is carried through from NP files for the Hamaker
	// constant tables; it is not read by the PMF potential.
	HamakerFile string

	// PMFDir holds the {residue}.dat tables for this bead type.
	PMFDir    string
	PMFCutoff float64

	// Correction is the correction-type id of the source file.
	Correction int
}

// NPBead is a bead placed at an absolute position in the nanoparticle frame.
type NPBead struct {
	Position r3.Vec
	Type     int
}

// Nanoparticle is the rigid target the molecule is scanned against.
type Nanoparticle struct {
	Name  string
	Zeta  float64
	Beads []NPBead
	Types []NPBeadType

	// InnerBound is the radius at which profiles stop.
	InnerBound float64

	// OuterBound is the radius enclosing every bead.
	OuterBound float64

	// Isotropic makes the profile builder use a single representative bead
	// at the origin instead of summing over every NP bead.
	Isotropic bool
}

// BeadType returns the type of NP bead i.
func (np *Nanoparticle) BeadType(i int) NPBeadType {
	return np.Types[np.Beads[i].Type]
}

// Shape returns the shape of the first bead type, which is the shape used
// for isotropic scans and for selecting the integrator.
func (np *Nanoparticle) Shape() geometry.Shape {
	if len(np.Types) == 0 {
		return geometry.ShapeSphere
	}
	return np.Types[0].Shape
}
