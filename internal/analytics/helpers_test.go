package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payble/internal/core"
)

var now = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ob(id, amount string, due time.Time, paid bool) core.Obligation {
	o := core.Obligation{ID: id, BillName: "bill " + id, DueDate: core.NewTimestamp(due), IsPaid: paid}
	if amount != "" {
		o.Amount = decimal.NewNullDecimal(dec(amount))
	}
	return o
}

func malformed(id, amount string) core.Obligation {
	o := ob(id, amount, time.Time{}, false)
	o.DueDate = core.ParseTimestamp("next tuesday", time.UTC)
	return o
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func monthBuckets(totals ...string) []MonthBucket {
	out := make([]MonthBucket, len(totals))
	for i, s := range totals {
		out[i] = MonthBucket{Label: "m", Total: dec(s)}
	}
	return out
}

func ids(obs []core.Obligation) []string {
	out := make([]string, len(obs))
	for i, o := range obs {
		out[i] = o.ID
	}
	return out
}
