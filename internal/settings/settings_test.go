package settings

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payble/internal/analytics"
)

type failingRepo struct{ err error }

func (f failingRepo) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingRepo) Set(context.Context, string, string) error         { return f.err }

type countingRepo struct {
	*MemoryRepository
	gets int
}

func (c *countingRepo) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	return c.MemoryRepository.Get(ctx, key)
}

func TestLoadDefaults(t *testing.T) {
	p, err := Load(context.Background(), NewMemoryRepository())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Defaults()
	if p.Forecast != want.Forecast || p.HideCharts || !p.Budget.Equal(want.Budget) {
		t.Fatalf("expected defaults, got %+v", p)
	}
}

func TestLoadNormalizes(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		check  func(t *testing.T, p Preferences)
	}{
		{
			name:   "stored values",
			values: map[string]string{KeyMethod: "linear", KeyWeight: "0.25", KeyClip: "1.5", KeyHideCharts: "1", KeyBudget: "2500"},
			check: func(t *testing.T, p Preferences) {
				want := analytics.ForecastConfig{Method: analytics.MethodLinear, Weight: 0.25, ClipMultiplier: 1.5}
				if p.Forecast != want || !p.HideCharts || !p.Budget.Equal(decimal.NewFromInt(2500)) {
					t.Fatalf("unexpected %+v", p)
				}
			},
		},
		{
			name:   "unknown method",
			values: map[string]string{KeyMethod: "arima"},
			check: func(t *testing.T, p Preferences) {
				if p.Forecast.Method != analytics.MethodWeighted {
					t.Fatalf("expected weighted, got %s", p.Forecast.Method)
				}
			},
		},
		{
			name:   "weight clamped",
			values: map[string]string{KeyWeight: "4"},
			check: func(t *testing.T, p Preferences) {
				if p.Forecast.Weight != 1 {
					t.Fatalf("expected 1, got %v", p.Forecast.Weight)
				}
			},
		},
		{
			name:   "non-positive clip",
			values: map[string]string{KeyClip: "0"},
			check: func(t *testing.T, p Preferences) {
				if p.Forecast.ClipMultiplier != 2 {
					t.Fatalf("expected 2, got %v", p.Forecast.ClipMultiplier)
				}
			},
		},
		{
			name:   "garbage clip",
			values: map[string]string{KeyClip: "NaN"},
			check: func(t *testing.T, p Preferences) {
				if p.Forecast.ClipMultiplier != 2 {
					t.Fatalf("expected 2, got %v", p.Forecast.ClipMultiplier)
				}
			},
		},
		{
			name:   "negative budget",
			values: map[string]string{KeyBudget: "-10"},
			check: func(t *testing.T, p Preferences) {
				if !p.Budget.Equal(analytics.DefaultBudget) {
					t.Fatalf("expected default budget, got %s", p.Budget)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMemoryRepository()
			for k, v := range tt.values {
				_ = repo.Set(context.Background(), k, v)
			}
			p, err := Load(context.Background(), repo)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestLoadRepositoryError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Load(context.Background(), failingRepo{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, err := Save(context.Background(), failingRepo{err: boom}, Defaults()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	in := Preferences{
		Forecast:   analytics.ForecastConfig{Method: analytics.MethodAverage, Weight: math.Inf(1), ClipMultiplier: -2},
		HideCharts: true,
		Budget:     decimal.RequireFromString("1234.5"),
	}
	saved, err := Save(ctx, repo, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Forecast.Weight != analytics.DefaultWeight || saved.Forecast.ClipMultiplier != 2 {
		t.Fatalf("save did not normalize: %+v", saved.Forecast)
	}
	if v, _, _ := repo.Get(ctx, KeyHideCharts); v != "1" {
		t.Fatalf("expected hide flag stored as 1, got %q", v)
	}
	loaded, err := Load(ctx, repo)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Forecast != saved.Forecast || loaded.HideCharts != saved.HideCharts || !loaded.Budget.Equal(saved.Budget) {
		t.Fatalf("expected %+v, got %+v", saved, loaded)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod(" Linear "); err != nil || m != analytics.MethodLinear {
		t.Fatalf("unexpected %s %v", m, err)
	}
	if _, err := ParseMethod("median"); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestCachedRepository(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{MemoryRepository: NewMemoryRepository()}
	repo := NewCachedRepository(inner, time.Minute)

	for i := 0; i < 3; i++ {
		if _, ok, _ := repo.Get(ctx, KeyMethod); ok {
			t.Fatalf("expected missing key")
		}
	}
	if inner.gets != 1 {
		t.Fatalf("expected misses to be cached, got %d reads", inner.gets)
	}

	if err := repo.Set(ctx, KeyMethod, "linear"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, _ := repo.Get(ctx, KeyMethod)
	if !ok || v != "linear" || inner.gets != 1 {
		t.Fatalf("expected write-through value from cache, got %q %v (%d reads)", v, ok, inner.gets)
	}
	if stored, _, _ := inner.MemoryRepository.Get(ctx, KeyMethod); stored != "linear" {
		t.Fatalf("write did not reach the inner repository")
	}
}

func TestRedisRepositoryIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_URL")
	if addr == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	repo, err := NewRedisRepository(ctx, addr, "payble:test:"+time.Now().Format("150405.000"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer repo.Close()

	if _, ok, err := repo.Get(ctx, KeyBudget); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if _, err := Save(ctx, repo, Defaults()); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := Load(ctx, repo)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Forecast != analytics.DefaultForecastConfig() {
		t.Fatalf("unexpected %+v", p.Forecast)
	}
}
