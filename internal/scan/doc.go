// Package scan computes orientation grids.
//
// A Scanner evaluates a contiguous range of orientation bins: for each bin it
// draws the configured number of stochastic poses, builds and integrates
// their radial profiles, and stores the mean and standard deviation of the
// free energy, MFPT·D, minimum location and contact count. One extra
// canonical pose at the bin centre is evaluated for profile output only.
//
// A Dispatcher partitions the bins into one range per worker and runs the
// ranges concurrently with errgroup. Every task owns its own random
// generator derived from the master seed, so a scan is reproducible for a
// fixed seed and worker count.
package scan
