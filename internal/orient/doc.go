// Package orient maps orientation bins to angles and produces rotated
// molecule poses for each bin.
package orient
