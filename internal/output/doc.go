// Package output reads and writes the on-disk scan results.
//
// Two file kinds are produced under {outdir}/{np}/:
//   - .uam grid files, one row per orientation bin
//   - .uap raw profile files, one per bin when profile saving is enabled
//
// A finished grid file doubles as the checkpoint for its scan key. All files
// are written to a temporary name and renamed into place, so an interrupted
// run never leaves a partial grid behind.
package output
