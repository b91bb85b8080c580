// Package stats provides the distribution helpers the presentation layer
// applies to event columns: the empirical CDF used for plotting and a
// describe-style summary of a column. All functions are pure and operate on
// plain float slices, so they work on any column, not just magnitudes.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CumulativeDistribution returns the empirical CDF of a column: x is the
// values sorted ascending, y[i] = (i+1)/N. Tied values are kept as separate
// steps, giving a strict empirical step function where y ends at exactly
// 1.0. The input is left unmodified. An empty column yields empty results.
func CumulativeDistribution(values []float64) (x, y []float64) {
	if len(values) == 0 {
		return nil, nil
	}

	x = make([]float64, len(values))
	copy(x, values)
	sort.Float64s(x)

	n := float64(len(x))
	y = make([]float64, len(x))
	for i := range y {
		y[i] = float64(i+1) / n
	}
	return x, y
}

// Summary holds descriptive statistics for one column.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe computes count, mean, sample standard deviation, min, quartiles,
// and max for a column. Quartiles are empirical step quantiles (the smallest
// observation whose cumulative fraction reaches p), always an observed
// value; interpolating estimators can differ on small columns. An empty
// column returns a zero Summary; a single value returns Std 0.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	return s
}
