// Package profile builds the radial interaction-energy profile of a posed
// molecule as it approaches a nanoparticle along z.
//
// A Builder walks the separation from the outer bound plus a margin down to
// the inner bound in uniform steps. At each step it sums the occupancy-weighted
// potential of every residue against either every NP bead or a single
// isotropic representative, tracks the energy minimum and counts the residues
// within contact range there.
package profile
