package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"payble/internal/core"
)

const (
	DefaultMethod         = MethodWeighted
	DefaultWeight         = 0.6
	DefaultClipMultiplier = 2.0
)

// ForecastConfig selects the forecast strategy and its safety bounds.
type ForecastConfig struct {
	Method         Method  `json:"method"`
	Weight         float64 `json:"weight"`
	ClipMultiplier float64 `json:"clip"`
}

// DefaultForecastConfig is weighted, 0.6 recency weight, 2x clip.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Method:         DefaultMethod,
		Weight:         DefaultWeight,
		ClipMultiplier: DefaultClipMultiplier,
	}
}

// ClampWeight forces w into [0,1]; a non-finite weight becomes the default.
func ClampWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return DefaultWeight
	}
	return math.Min(1, math.Max(0, w))
}

// PredictNext estimates the next month's total from the last two buckets.
//
// It reports false for empty input. A single bucket predicts its own
// (non-negative) total. Otherwise the configured strategy runs on prev and
// last, the result is floored at zero, capped at last*clip when clip is
// positive (boundary inclusive) and rounded to 2 decimal places. An unknown
// method falls back to weighted.
func PredictNext(buckets []MonthBucket, cfg ForecastConfig) (decimal.Decimal, bool) {
	switch len(buckets) {
	case 0:
		return decimal.Zero, false
	case 1:
		return core.NonNegative(buckets[0].Total).Round(2), true
	}
	prev := buckets[len(buckets)-2].Total
	last := buckets[len(buckets)-1].Total
	if prev.IsZero() && last.IsZero() {
		return decimal.Zero, true
	}

	strategy, err := StrategyFor(cfg.Method)
	if err != nil {
		strategy = WeightedStrategy{}
	}
	weight := decimal.NewFromFloat(ClampWeight(cfg.Weight))

	pred := core.NonNegative(strategy.Estimate(prev, last, weight))
	if clip, ok := clipMultiplier(cfg.ClipMultiplier); ok && !last.IsNegative() {
		if ceiling := last.Mul(clip); pred.GreaterThan(ceiling) {
			pred = ceiling
		}
	}
	return pred.Round(2), true
}

// clipMultiplier converts c when it enables the cap: finite and positive.
func clipMultiplier(c float64) (decimal.Decimal, bool) {
	if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(c), true
}

// ForecastInputs returns the prev and last totals the forecast reads.
// ok is false when fewer than two buckets exist.
func ForecastInputs(buckets []MonthBucket) (prev, last decimal.Decimal, ok bool) {
	if len(buckets) < 2 {
		return decimal.Zero, decimal.Zero, false
	}
	return buckets[len(buckets)-2].Total, buckets[len(buckets)-1].Total, true
}
