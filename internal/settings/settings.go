// Package settings persists user preferences for the insights views through
// an injected key-value Repository.
package settings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payble/internal/analytics"
)

// Setting keys.
const (
	KeyMethod     = "insights.pred.method"
	KeyWeight     = "insights.pred.weight"
	KeyClip       = "insights.pred.clip"
	KeyHideCharts = "insights.hide.charts"
	KeyBudget     = "insights.budget"
)

// Keys lists every key Load reads.
var Keys = []string{KeyMethod, KeyWeight, KeyClip, KeyHideCharts, KeyBudget}

var ErrInvalidMethod = errors.New("invalid forecast method")

// Repository is a small string key-value store. Get reports false for
// missing keys.
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Preferences are the persisted insights settings.
type Preferences struct {
	Forecast   analytics.ForecastConfig `json:"forecast"`
	HideCharts bool                     `json:"hide_charts"`
	Budget     decimal.Decimal          `json:"budget"`
}

// Defaults returns the preferences used for keys that are unset.
func Defaults() Preferences {
	return Preferences{
		Forecast: analytics.DefaultForecastConfig(),
		Budget:   analytics.DefaultBudget,
	}
}

// Normalize clamps every field into its valid range. It never fails:
// unknown methods become weighted, weights are clamped to [0,1], a clip
// that is not a positive finite number becomes 2 and a non-positive budget
// becomes the default.
func (p Preferences) Normalize() Preferences {
	if !analytics.IsKnownMethod(p.Forecast.Method) {
		p.Forecast.Method = analytics.DefaultMethod
	}
	p.Forecast.Weight = analytics.ClampWeight(p.Forecast.Weight)
	if c := p.Forecast.ClipMultiplier; math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
		p.Forecast.ClipMultiplier = analytics.DefaultClipMultiplier
	}
	if !p.Budget.IsPositive() {
		p.Budget = analytics.DefaultBudget
	}
	return p
}

// ParseMethod validates a method name.
func ParseMethod(s string) (analytics.Method, error) {
	m := analytics.Method(strings.ToLower(strings.TrimSpace(s)))
	if !analytics.IsKnownMethod(m) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}

// Load reads preferences from repo. Missing or unparsable values fall back
// to defaults; only repository failures are returned as errors.
func Load(ctx context.Context, repo Repository) (Preferences, error) {
	p := Defaults()

	if v, ok, err := repo.Get(ctx, KeyMethod); err != nil {
		return p, fmt.Errorf("load %s: %w", KeyMethod, err)
	} else if ok {
		if m, err := ParseMethod(v); err == nil {
			p.Forecast.Method = m
		}
	}
	if v, ok, err := repo.Get(ctx, KeyWeight); err != nil {
		return p, fmt.Errorf("load %s: %w", KeyWeight, err)
	} else if ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			p.Forecast.Weight = f
		}
	}
	if v, ok, err := repo.Get(ctx, KeyClip); err != nil {
		return p, fmt.Errorf("load %s: %w", KeyClip, err)
	} else if ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			p.Forecast.ClipMultiplier = f
		}
	}
	if v, ok, err := repo.Get(ctx, KeyHideCharts); err != nil {
		return p, fmt.Errorf("load %s: %w", KeyHideCharts, err)
	} else if ok {
		p.HideCharts = strings.TrimSpace(v) == "1" || strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok, err := repo.Get(ctx, KeyBudget); err != nil {
		return p, fmt.Errorf("load %s: %w", KeyBudget, err)
	} else if ok {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			p.Budget = d
		}
	}
	return p.Normalize(), nil
}

// Save normalizes p and writes every key, returning what was stored.
func Save(ctx context.Context, repo Repository, p Preferences) (Preferences, error) {
	p = p.Normalize()
	hide := "0"
	if p.HideCharts {
		hide = "1"
	}
	values := [][2]string{
		{KeyMethod, string(p.Forecast.Method)},
		{KeyWeight, strconv.FormatFloat(p.Forecast.Weight, 'f', -1, 64)},
		{KeyClip, strconv.FormatFloat(p.Forecast.ClipMultiplier, 'f', -1, 64)},
		{KeyHideCharts, hide},
		{KeyBudget, p.Budget.String()},
	}
	for _, kv := range values {
		if err := repo.Set(ctx, kv[0], kv[1]); err != nil {
			return p, fmt.Errorf("save %s: %w", kv[0], err)
		}
	}
	return p, nil
}
