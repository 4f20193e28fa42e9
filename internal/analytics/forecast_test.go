package analytics

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPredictNext(t *testing.T) {
	tests := []struct {
		name    string
		buckets []MonthBucket
		cfg     ForecastConfig
		want    string
		ok      bool
	}{
		{"empty", nil, DefaultForecastConfig(), "", false},
		{"single bucket", monthBuckets("100"), DefaultForecastConfig(), "100", true},
		{"single negative bucket", monthBuckets("-5"), DefaultForecastConfig(), "0", true},
		{"single bucket rounds", monthBuckets("10.005"), DefaultForecastConfig(), "10.01", true},
		{"average", monthBuckets("100", "200"), ForecastConfig{Method: MethodAverage, ClipMultiplier: 2}, "150", true},
		{"linear", monthBuckets("100", "200"), ForecastConfig{Method: MethodLinear, ClipMultiplier: 2}, "300", true},
		{"linear capped at boundary", monthBuckets("100", "200"), ForecastConfig{Method: MethodLinear, ClipMultiplier: 1.5}, "300", true},
		{"linear capped below", monthBuckets("100", "200"), ForecastConfig{Method: MethodLinear, ClipMultiplier: 1.2}, "240", true},
		{"linear uncapped without clip", monthBuckets("10", "1000"), ForecastConfig{Method: MethodLinear}, "1990", true},
		{"linear floored", monthBuckets("300", "100"), ForecastConfig{Method: MethodLinear, ClipMultiplier: 2}, "0", true},
		{"weighted default", monthBuckets("100", "200"), DefaultForecastConfig(), "160", true},
		{"weighted all recent", monthBuckets("100", "200"), ForecastConfig{Method: MethodWeighted, Weight: 1, ClipMultiplier: 2}, "200", true},
		{"weight clamped high", monthBuckets("100", "200"), ForecastConfig{Method: MethodWeighted, Weight: 7, ClipMultiplier: 2}, "200", true},
		{"weight clamped low", monthBuckets("100", "200"), ForecastConfig{Method: MethodWeighted, Weight: -3, ClipMultiplier: 2}, "100", true},
		{"weight NaN uses default", monthBuckets("100", "200"), ForecastConfig{Method: MethodWeighted, Weight: math.NaN(), ClipMultiplier: 2}, "160", true},
		{"unknown method is weighted", monthBuckets("100", "200"), ForecastConfig{Method: "arima", Weight: 0.6, ClipMultiplier: 2}, "160", true},
		{"both zero", monthBuckets("0", "0"), ForecastConfig{Method: MethodLinear, ClipMultiplier: 2}, "0", true},
		{"only last two count", monthBuckets("9000", "100", "200"), ForecastConfig{Method: MethodAverage, ClipMultiplier: 2}, "150", true},
		{"cap uses last only", monthBuckets("1000", "10"), ForecastConfig{Method: MethodAverage, ClipMultiplier: 2}, "20", true},
		{"infinite clip disables cap", monthBuckets("100", "200"), ForecastConfig{Method: MethodLinear, ClipMultiplier: math.Inf(1)}, "300", true},
		{"rounded", monthBuckets("0.01", "0.02"), ForecastConfig{Method: MethodAverage, ClipMultiplier: 2}, "0.02", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PredictNext(tt.buckets, tt.cfg)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok {
				assertDec(t, tt.want, got)
			}
		})
	}
}

func TestPredictNextZeroHistoryAnyConfig(t *testing.T) {
	for _, m := range []Method{MethodWeighted, MethodLinear, MethodAverage, "nope"} {
		for _, clip := range []float64{0, 0.5, 2, -1} {
			got, ok := PredictNext(monthBuckets("0", "0"), ForecastConfig{Method: m, Weight: 0.3, ClipMultiplier: clip})
			if !ok || !got.IsZero() {
				t.Fatalf("method=%s clip=%v: expected 0, got %s (ok=%v)", m, clip, got, ok)
			}
		}
	}
}

func TestPredictNextNeverNegative(t *testing.T) {
	series := [][]string{{"500", "0"}, {"100", "1"}, {"0", "0.01"}, {"42", "7"}}
	for _, s := range series {
		for _, m := range []Method{MethodWeighted, MethodLinear, MethodAverage} {
			got, _ := PredictNext(monthBuckets(s...), ForecastConfig{Method: m, Weight: 0.6, ClipMultiplier: 2})
			if got.IsNegative() {
				t.Fatalf("%v %s: negative forecast %s", s, m, got)
			}
		}
	}
}

func TestStrategyRegistry(t *testing.T) {
	for _, m := range []Method{MethodWeighted, MethodLinear, MethodAverage} {
		if !IsKnownMethod(m) {
			t.Fatalf("%s not registered", m)
		}
	}
	if _, err := StrategyFor("median"); err == nil {
		t.Fatalf("expected error for unknown method")
	}

	RegisterStrategy("last", StrategyFunc(func(_, last, _ decimal.Decimal) decimal.Decimal { return last }))
	t.Cleanup(func() {
		strategiesMu.Lock()
		delete(strategies, "last")
		strategiesMu.Unlock()
	})
	got, _ := PredictNext(monthBuckets("100", "200"), ForecastConfig{Method: "last", ClipMultiplier: 2})
	assertDec(t, "200", got)
	if !IsKnownMethod("last") || len(Methods()) != 4 {
		t.Fatalf("expected registered method to be listed, got %v", Methods())
	}
}

func TestClampWeight(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0: 0, 0.25: 0.25, 1: 1, 3: 1}
	for in, want := range cases {
		if got := ClampWeight(in); got != want {
			t.Fatalf("ClampWeight(%v)=%v, want %v", in, got, want)
		}
	}
	if ClampWeight(math.Inf(-1)) != DefaultWeight {
		t.Fatalf("expected default for infinite weight")
	}
}

func TestForecastInputs(t *testing.T) {
	if _, _, ok := ForecastInputs(monthBuckets("1")); ok {
		t.Fatalf("expected no inputs for one bucket")
	}
	prev, last, ok := ForecastInputs(monthBuckets("1", "2", "3"))
	if !ok {
		t.Fatalf("expected inputs")
	}
	assertDec(t, "2", prev)
	assertDec(t, "3", last)
}
