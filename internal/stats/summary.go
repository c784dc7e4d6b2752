package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"tendency/internal/model"
	"tendency/internal/sampler"
)

// HistogramBins is the number of equal-width bins over [0,1].
const HistogramBins = 10

// Observation is one computed value and its interpreted outcome.
type Observation struct {
	Computed float64
	Value    any
}

// Summarize aggregates observations drawn with a fixed mean and deviation.
// Numeric outcome values feed ValueMean; any other value type is counted by
// its printed form in Outcomes.
func Summarize(observations []Observation, finalMean, deviation float64) model.Summary {
	lower, upper := ExpectedBoundRates(finalMean, deviation)
	summary := model.Summary{
		Samples:           len(observations),
		FinalMean:         finalMean,
		ExpectedLowerRate: lower,
		ExpectedUpperRate: upper,
		Histogram:         model.Histogram{Dividers: histogramDividers(), Counts: make([]float64, HistogramBins)},
	}
	if len(observations) == 0 {
		return summary
	}

	computed := make([]float64, len(observations))
	values := make([]float64, 0, len(observations))
	for i, obs := range observations {
		computed[i] = obs.Computed
		if sampler.IsBound(obs.Computed) {
			if obs.Computed == 0 {
				summary.LowerHits++
			} else {
				summary.UpperHits++
			}
		}
		if v, ok := asFloat(obs.Value); ok {
			values = append(values, v)
		}
	}

	sorted := append([]float64(nil), computed...)
	sort.Float64s(sorted)
	summary.ComputedMean, summary.ComputedStd = stat.MeanStdDev(computed, nil)
	if len(computed) < 2 {
		summary.ComputedStd = 0
	}
	summary.ComputedMin = floats.Min(computed)
	summary.ComputedMax = floats.Max(computed)
	summary.P05 = stat.Quantile(0.05, stat.Empirical, sorted, nil)
	summary.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	summary.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	summary.Histogram.Counts = stat.Histogram(nil, summary.Histogram.Dividers, sorted, nil)

	if len(values) == len(observations) {
		mean := stat.Mean(values, nil)
		summary.ValueMean = &mean
	} else {
		summary.Outcomes = make(map[string]int)
		for _, obs := range observations {
			summary.Outcomes[fmt.Sprint(obs.Value)]++
		}
	}
	return summary
}

// ExpectedBoundRates returns the probabilities that a sample lands on the
// lower and upper clamp bounds.
func ExpectedBoundRates(mean, deviation float64) (lower, upper float64) {
	deviation = math.Max(0, math.Min(1, deviation))
	if deviation == 0 {
		centre := 0.5 + mean/2
		if centre <= 0 {
			return 1, 0
		}
		if centre >= 1 {
			return 0, 1
		}
		return 0, 0
	}
	unit := distuv.UnitNormal
	lower = unit.CDF((-1 - mean) / deviation)
	upper = unit.Survival((1 - mean) / deviation)
	return lower, upper
}

// histogramDividers spans [0,1] with the last divider nudged past 1 so a
// sample of exactly 1 falls in the final bin.
func histogramDividers() []float64 {
	dividers := floats.Span(make([]float64, HistogramBins+1), 0, 1)
	dividers[HistogramBins] = math.Nextafter(1, 2)
	return dividers
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
