package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturns(t *testing.T) {
	t.Run("simple returns", func(t *testing.T) {
		rets := Returns([]float64{100, 110, 99})
		assert.Len(t, rets, 2)
		assert.InDelta(t, 0.10, rets[0], 1e-12)
		assert.InDelta(t, -0.10, rets[1], 1e-12)
	})

	t.Run("zero denominator guarded to 0", func(t *testing.T) {
		rets := Returns([]float64{0, 50, 100})
		assert.Equal(t, []float64{0, 1}, rets)
	})

	t.Run("too short", func(t *testing.T) {
		assert.Nil(t, Returns([]float64{100}))
		assert.Nil(t, Returns(nil))
	})
}

func TestAlignTrailing(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	c := []float64{7, 8, 9}

	aligned := AlignTrailing(a, b, c)

	assert.Len(t, aligned, 3)
	for _, s := range aligned {
		assert.Len(t, s, 3)
	}
	assert.Equal(t, []float64{3, 4, 5}, aligned[0])
	assert.Equal(t, []float64{60, 70, 80}, aligned[1])
	assert.Equal(t, []float64{7, 8, 9}, aligned[2])
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestStdDev(t *testing.T) {
	t.Run("sample denominator", func(t *testing.T) {
		// variance of {2,4,4,4,5,5,7,9} with n-1 is 32/7
		got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		assert.InDelta(t, 2.13808993, got, 1e-6)
	})

	t.Run("degenerate input", func(t *testing.T) {
		assert.Equal(t, 0.0, StdDev(nil))
		assert.Equal(t, 0.0, StdDev([]float64{5}))
	})
}

func TestDownsideDeviation(t *testing.T) {
	t.Run("only below-target deviations counted", func(t *testing.T) {
		rets := []float64{0.02, -0.01, 0.03, -0.03}
		// deviations below 0: -0.01, -0.03 → sample stdev over count-1
		got := DownsideDeviation(rets, 0)
		assert.InDelta(t, 0.0316227766, got, 1e-9)
	})

	t.Run("fewer than two below target", func(t *testing.T) {
		assert.Equal(t, 0.0, DownsideDeviation([]float64{0.01, 0.02, -0.01}, 0))
	})
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 4.0, Percentile(sorted, 100))
	// 50th percentile of 4 points interpolates between 2 and 3
	assert.InDelta(t, 2.5, Percentile(sorted, 50), 1e-12)
	assert.InDelta(t, 1.75, Percentile(sorted, 25), 1e-12)
	assert.Equal(t, 0.0, Percentile(nil, 50))
}
