package analytics

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Method names a forecast strategy.
type Method string

const (
	MethodWeighted Method = "weighted"
	MethodLinear   Method = "linear"
	MethodAverage  Method = "average"
)

// Strategy maps the last two month totals to a next-period estimate.
// weight is already clamped to [0,1].
type Strategy interface {
	Estimate(prev, last, weight decimal.Decimal) decimal.Decimal
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(prev, last, weight decimal.Decimal) decimal.Decimal

func (f StrategyFunc) Estimate(prev, last, weight decimal.Decimal) decimal.Decimal {
	return f(prev, last, weight)
}

// WeightedStrategy blends the two points: weight*last + (1-weight)*prev.
type WeightedStrategy struct{}

func (WeightedStrategy) Estimate(prev, last, weight decimal.Decimal) decimal.Decimal {
	return weight.Mul(last).Add(decimal.NewFromInt(1).Sub(weight).Mul(prev))
}

// LinearStrategy extrapolates the single observed delta: last + (last-prev).
type LinearStrategy struct{}

func (LinearStrategy) Estimate(prev, last, _ decimal.Decimal) decimal.Decimal {
	return last.Add(last.Sub(prev))
}

// AverageStrategy is the mean of the two points.
type AverageStrategy struct{}

func (AverageStrategy) Estimate(prev, last, _ decimal.Decimal) decimal.Decimal {
	return prev.Add(last).Div(decimal.NewFromInt(2))
}

var (
	strategiesMu sync.RWMutex
	strategies   = map[Method]Strategy{
		MethodWeighted: WeightedStrategy{},
		MethodLinear:   LinearStrategy{},
		MethodAverage:  AverageStrategy{},
	}
)

// StrategyFor returns the strategy registered for m.
func StrategyFor(m Method) (Strategy, error) {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	s, ok := strategies[m]
	if !ok {
		return nil, fmt.Errorf("unknown forecast method: %s", m)
	}
	return s, nil
}

// RegisterStrategy adds or replaces the strategy for m.
func RegisterStrategy(m Method, s Strategy) {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	strategies[m] = s
}

// Methods lists the registered method names.
func Methods() []Method {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	out := make([]Method, 0, len(strategies))
	for m := range strategies {
		out = append(out, m)
	}
	return out
}

// IsKnownMethod reports whether m has a registered strategy.
func IsKnownMethod(m Method) bool {
	_, err := StrategyFor(m)
	return err == nil
}
