// Package pipeline runs the per-key scan jobs of a run.
//
// A Job is one (molecule, nanoparticle, omega) scan key. It passes through
// a sequence of Steps: the checkpoint, which skips keys whose grid file
// already exists, followed by the scan itself, the grid write, summary
// statistics, and optionally the scan ledger and metrics. Plan expands the
// run's targets into jobs and BatchProcessor executes them, one at a time
// by default, stopping at the first failure.
package pipeline
