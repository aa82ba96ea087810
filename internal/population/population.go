// Package population provides the fixed finite population that samples are
// drawn from, together with its true variance.
package population

import "fmt"

// Population is an immutable set of values with a precomputed true variance.
// The true variance uses the full-population divisor N and is computed once
// at construction; it is never re-derived from a sample.
type Population struct {
	values       []float64
	trueVariance float64
}

// New builds a population of the integers low..high inclusive.
// It returns an error if the range holds fewer than two values, since a
// single-value population has no variance worth demonstrating.
func New(low, high int) (*Population, error) {
	if high-low < 1 {
		return nil, fmt.Errorf("population range [%d, %d] must contain at least 2 values", low, high)
	}

	values := make([]float64, 0, high-low+1)
	for v := low; v <= high; v++ {
		values = append(values, float64(v))
	}

	return &Population{
		values:       values,
		trueVariance: varianceN(values),
	}, nil
}

// Size returns the number of values in the population.
func (p *Population) Size() int {
	return len(p.values)
}

// Values returns a copy of the population values. Callers may mutate the
// returned slice freely.
func (p *Population) Values() []float64 {
	out := make([]float64, len(p.values))
	copy(out, p.values)
	return out
}

// TrueVariance returns the population variance (divisor N) computed at
// construction time.
func (p *Population) TrueVariance() float64 {
	return p.trueVariance
}

// varianceN is the full-population variance: mean squared deviation from the
// population mean.
func varianceN(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sumsq float64
	for _, v := range values {
		d := v - mean
		sumsq += d * d
	}
	return sumsq / float64(len(values))
}
