package scan

import "math"

// MeanSD returns the population mean and standard deviation of xs.
// Values are accumulated relative to xs[0], so identical inputs give their
// common value and a standard deviation of exactly zero.
func MeanSD(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	n := float64(len(xs))
	ref := xs[0]
	shift := 0.0
	for _, x := range xs {
		shift += x - ref
	}
	mean = ref + shift/n

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}
