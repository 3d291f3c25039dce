// Package input reads the files a scan starts from: coarse-grained
// molecules from PDB CA records, nanoparticle descriptions, and the
// residue-surface PMF tables that make up the interaction potential.
//
// It also expands target lists into files and writes the single-bead NP
// files generated from configured radii and zeta potentials.
package input
