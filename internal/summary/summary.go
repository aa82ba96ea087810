// Package summary computes descriptive statistics over estimate and bias
// series for the box-plot panels.
package summary

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one series.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Bias returns the signed bias series: each estimate minus the true
// variance. An unbiased estimator's series centers on zero.
func Bias(estimates []float64, trueVariance float64) []float64 {
	out := make([]float64, len(estimates))
	for i, v := range estimates {
		out[i] = v - trueVariance
	}
	return out
}

// Describe summarizes a series. An empty series yields the zero Summary so
// renderers can show an empty panel instead of failing.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}
