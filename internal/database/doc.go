// Package database provides the SQLite-based scan ledger for unitedatom.
//
// The ledger stores one row per written orientation map with:
//   - The run id shared by every map of one invocation
//   - The scan key (molecule, nanoparticle, shape, radius, zeta, omega)
//   - The output path and a fingerprint of the scan parameters
//   - The summary statistics and elapsed time
//
// The database is a single file opened through the CGO-free
// modernc.org/sqlite driver.
package database
