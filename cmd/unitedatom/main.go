// Package main provides the entry point for the unitedatom CLI.
//
// unitedatom estimates the adsorption free energy of coarse-grained
// proteins on nanoparticles as a function of orientation, writing one
// orientation grid per (protein, nanoparticle, rotation) and a summary of
// the binding energies.
//
// Usage:
//
//	unitedatom scan -c unitedatom.yaml
//	unitedatom scan -c unitedatom.yaml proteins/
//	unitedatom summarize results/
//
// See --help for all available options.
package main

// main is the entry point for unitedatom.
func main() {
	Execute()
}
