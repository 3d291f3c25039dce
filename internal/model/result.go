package model

import (
	"math"

	"github.com/nao1215/unitedatom/internal/geometry"
)

// ContactThreshold is the surface distance, in nm, below which a residue
// counts as touching the nanoparticle.
const ContactThreshold = 0.5

// DisabledMFPT is reported in place of MFPT·D when MFPT is switched off.
const DisabledMFPT = -1.0

// ScanKey identifies one orientation grid.
type ScanKey struct {
	Molecule     string
	Nanoparticle string
	Shape        geometry.Shape
	Radius       float64
	Zeta         float64

	// Omega is the rotation about the molecule axis, in degrees.
	Omega float64

	MFPT bool
}

// AngleSuffix reports whether output names for this key carry the omega angle.
func (k ScanKey) AngleSuffix() bool {
	return k.Shape.IsCylinder() || (k.Shape == geometry.ShapeSphere && k.Omega > 0.1)
}

// OmegaRadians returns Omega converted to radians.
func (k ScanKey) OmegaRadians() float64 {
	return k.Omega * math.Pi / 180
}

// BinResult holds the sub-sample statistics of one orientation bin.
type BinResult struct {
	// Phi and Theta are the left-hand edges of the bin, in degrees.
	Phi   float64
	Theta float64

	FreeEnergy   float64
	FreeEnergySD float64
	MFPT         float64
	MFPTSD       float64

	// MinLocation is the surface-to-surface distance at the energy minimum.
	MinLocation   float64
	MinLocationSD float64

	Contacts   float64
	ContactsSD float64
}

// Grid is every bin of one scan.
type Grid struct {
	Key   ScanKey
	Delta float64
	Bins  []BinResult
}

// ThetaRadians returns the bin's theta edge in radians.
func (b BinResult) ThetaRadians() float64 {
	return b.Theta * math.Pi / 180
}
