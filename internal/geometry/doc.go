// Package geometry holds the shape models and rigid-body rotations used to
// place a molecule relative to a nanoparticle.
//
// Each Shape exposes the three behaviours the scan needs:
//   - SurfaceDistance: bead-centre to nanoparticle-surface distance
//   - MeasurePower: exponent of the free-energy integration measure
//   - MFPTPower: exponent of the MFPT separation-ratio correction
package geometry
