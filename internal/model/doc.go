// Package model defines the data types shared across the unitedatom packages.
//
// The main types are:
//   - Molecule and Bead: the rigid coarse-grained molecule being scanned
//   - Nanoparticle, NPBead and NPBeadType: the rigid nanoparticle target
//   - ScanKey: the parameters identifying one orientation grid
//   - BinResult and Grid: the per-orientation results of a scan
//
// Types in this package carry no behaviour beyond simple accessors; the
// numerical work lives in the orient, profile, integrate and scan packages.
package model
