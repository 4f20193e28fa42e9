// Package analytics turns obligation records into calendar-bucketed sums,
// trailing statistics and a bounded one-step-ahead spending forecast.
//
// Every function here is pure: inputs are never mutated, nothing reads the
// system clock, and the same input with the same "now" always yields the
// same output. Callers pass "now" explicitly.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MonthLabelLayout = "Jan 2006"
	DayLabelLayout   = "2006-01-02"
)

// MonthBucket is the total obligation value due within one calendar month.
type MonthBucket struct {
	Label string          `json:"month"`
	Start time.Time       `json:"start"`
	Total decimal.Decimal `json:"total"`
}

// DayBucket is the total obligation value due on one calendar day.
type DayBucket struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// RollingPoint is the trailing average of daily totals ending at Date.
type RollingPoint struct {
	Date    string          `json:"date"`
	Average decimal.Decimal `json:"avg"`
}

// CategoryTotal is one entry of the category breakdown.
type CategoryTotal struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// Totals extracts the bucket totals, oldest first.
func Totals(buckets []MonthBucket) []decimal.Decimal {
	out := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		out[i] = b.Total
	}
	return out
}
