// Package timeseries provides the return and descriptive-statistics
// primitives shared by the risk, correlation and strategy engines.
//
// All functions return 0 on empty or degenerate input instead of
// failing; callers are expected to check series length before trusting
// any ratio that divides by one of these statistics.
package timeseries

import "math"

// Returns computes simple daily returns r[i] = (p[i+1]-p[i])/p[i].
// A zero denominator yields a 0 return for that step.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			returns[i-1] = 0
			continue
		}
		returns[i-1] = (prices[i] - prev) / prev
	}
	return returns
}

// AlignTrailing truncates every series to the shortest length, keeping
// each series' most recent elements so the last index means "today"
// across all of them. The input slices are not modified.
func AlignTrailing(series ...[]float64) [][]float64 {
	if len(series) == 0 {
		return nil
	}
	minLen := len(series[0])
	for _, s := range series[1:] {
		if len(s) < minLen {
			minLen = len(s)
		}
	}
	aligned := make([][]float64, len(series))
	for i, s := range series {
		aligned[i] = s[len(s)-minLen:]
	}
	return aligned
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation (n-1 denominator),
// 0 when fewer than 2 points are given.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// DownsideDeviation returns the sample standard deviation of returns
// below target, counting only negative deviations. Fewer than 2
// below-target observations yield 0.
func DownsideDeviation(returns []float64, target float64) float64 {
	sumSq := 0.0
	count := 0
	for _, r := range returns {
		diff := r - target
		if diff < 0 {
			sumSq += diff * diff
			count++
		}
	}
	if count < 2 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count-1))
}

// Percentile returns the pct-th percentile (0-100) of an ascending
// sorted slice, linearly interpolating between the two bracketing
// order statistics. Empty input yields 0.
func Percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper > len(sorted)-1 {
		upper = len(sorted) - 1
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
