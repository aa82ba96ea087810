// Package estimator implements the two competing variance estimators the
// simulator compares: the maximum-likelihood form dividing by n and the
// Bessel-corrected form dividing by n-1.
//
// Both deliberately measure deviations from the sample mean, not the
// population mean. That substitution is what makes the divide-by-n form
// underestimate the true variance, and it is the effect the rest of the
// program exists to show.
package estimator

import "errors"

// ErrDivisionUndefined is returned by Unbiased when the sample has fewer
// than two values, where the n-1 divisor would be zero.
var ErrDivisionUndefined = errors.New("unbiased variance undefined for samples smaller than 2")

// Mean returns the arithmetic mean of the sample, or 0 for an empty sample.
func Mean(sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample))
}

// Biased returns the variance with divisor n: the mean squared deviation
// from the sample mean. A sample of one value yields 0.
func Biased(sample []float64) float64 {
	n := len(sample)
	if n == 0 {
		return 0
	}
	return sumSquaredDeviations(sample) / float64(n)
}

// Unbiased returns the variance with divisor n-1 (Bessel's correction).
// Samples smaller than 2 yield ErrDivisionUndefined; callers are expected
// to guarantee n >= 2.
func Unbiased(sample []float64) (float64, error) {
	n := len(sample)
	if n < 2 {
		return 0, ErrDivisionUndefined
	}
	return sumSquaredDeviations(sample) / float64(n-1), nil
}

func sumSquaredDeviations(sample []float64) float64 {
	mean := Mean(sample)
	var sumsq float64
	for _, v := range sample {
		d := v - mean
		sumsq += d * d
	}
	return sumsq
}
