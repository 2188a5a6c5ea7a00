package risk

import (
	"math/rand"
	"sort"

	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/timeseries"
)

// simulateHorizonReturns draws cumulative portfolio returns over
// horizonDays of i.i.d. normal daily steps. The generator is seeded
// explicitly so two reports over identical inputs are bit-identical.
func simulateHorizonReturns(mu, sigma float64, horizonDays, simulations int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	results := make([]float64, simulations)
	for i := range results {
		cumulative := 0.0
		for d := 0; d < horizonDays; d++ {
			cumulative += mu + sigma*rng.NormFloat64()
		}
		results[i] = cumulative
	}
	return results
}

// summarizeDistribution reduces simulated returns to the percentiles
// reported alongside the Monte Carlo VaR. The input slice is sorted in
// place.
func summarizeDistribution(simulated []float64) models.MonteCarloDistribution {
	sort.Float64s(simulated)
	return models.MonteCarloDistribution{
		Simulations:  len(simulated),
		MeanReturn:   timeseries.Mean(simulated),
		Percentile5:  timeseries.Percentile(simulated, 5),
		Percentile25: timeseries.Percentile(simulated, 25),
		Median:       timeseries.Percentile(simulated, 50),
		Percentile75: timeseries.Percentile(simulated, 75),
		Percentile95: timeseries.Percentile(simulated, 95),
	}
}
