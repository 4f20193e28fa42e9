package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"payble/internal/core"
)

var hundred = decimal.NewFromInt(100)

func sumWhere(obs []core.Obligation, keep func(core.Obligation) bool) decimal.Decimal {
	total := decimal.Zero
	for _, o := range obs {
		if keep(o) {
			total = total.Add(o.Value())
		}
	}
	return total
}

// SumDue sums the amounts of unpaid obligations.
func SumDue(obs []core.Obligation) decimal.Decimal {
	return sumWhere(obs, func(o core.Obligation) bool { return !o.IsPaid })
}

// SumPaid sums the amounts of paid obligations.
func SumPaid(obs []core.Obligation) decimal.Decimal {
	return sumWhere(obs, func(o core.Obligation) bool { return o.IsPaid })
}

// Total sums every amount regardless of payment state.
func Total(obs []core.Obligation) decimal.Decimal {
	return sumWhere(obs, func(core.Obligation) bool { return true })
}

// Upcoming returns unpaid obligations due within [now, now+days] inclusive,
// ascending by due date.
func Upcoming(obs []core.Obligation, now time.Time, days int) []core.Obligation {
	end := now.Add(time.Duration(days) * 24 * time.Hour)
	out := make([]core.Obligation, 0)
	for _, o := range obs {
		if o.IsPaid || !o.HasValidDue() {
			continue
		}
		due := o.DueDate.Time
		if due.Before(now) || due.After(end) {
			continue
		}
		out = append(out, o)
	}
	sortByDue(out)
	return out
}

// GroupByMonth returns exactly monthsBack contiguous calendar-month buckets
// ending at now's month, oldest first. Membership is by due date regardless
// of payment state; months without obligations total zero.
func GroupByMonth(obs []core.Obligation, now time.Time, monthsBack int) []MonthBucket {
	if monthsBack <= 0 {
		return []MonthBucket{}
	}
	current := core.StartOfMonth(now)
	buckets := make([]MonthBucket, monthsBack)
	for i := range buckets {
		start := current.AddDate(0, i-monthsBack+1, 0)
		buckets[i] = MonthBucket{
			Label: start.Format(MonthLabelLayout),
			Start: start,
			Total: decimal.Zero,
		}
	}
	windowEnd := current.AddDate(0, 1, 0)
	for _, o := range obs {
		if !o.HasValidDue() {
			continue
		}
		due := o.DueDate.Time
		if due.Before(buckets[0].Start) || !due.Before(windowEnd) {
			continue
		}
		for i := len(buckets) - 1; i >= 0; i-- {
			if !due.Before(buckets[i].Start) {
				buckets[i].Total = buckets[i].Total.Add(o.Value())
				break
			}
		}
	}
	return buckets
}

// DailyTotals returns days calendar-day buckets ending today inclusive,
// oldest first. Day boundaries follow now's location.
func DailyTotals(obs []core.Obligation, now time.Time, days int) []DayBucket {
	if days <= 0 {
		return []DayBucket{}
	}
	today := core.StartOfDay(now)
	starts := make([]time.Time, days+1)
	for i := 0; i <= days; i++ {
		starts[i] = today.AddDate(0, 0, i-days+1)
	}
	totals := make([]decimal.Decimal, days)
	for i := range totals {
		totals[i] = decimal.Zero
	}
	for _, o := range obs {
		if !o.HasValidDue() {
			continue
		}
		due := o.DueDate.Time
		if due.Before(starts[0]) || !due.Before(starts[days]) {
			continue
		}
		// first start strictly after due, minus one
		idx := sort.Search(days+1, func(i int) bool { return starts[i].After(due) }) - 1
		totals[idx] = totals[idx].Add(o.Value())
	}
	out := make([]DayBucket, days)
	for i := range out {
		out[i] = DayBucket{Date: starts[i].Format(DayLabelLayout), Total: totals[i]}
	}
	return out
}

// RollingAverage averages each day with up to window-1 preceding days. The
// window shrinks at the start of the series; it is never padded with zeros.
func RollingAverage(daily []DayBucket, window int) []RollingPoint {
	if window < 1 {
		window = 1
	}
	out := make([]RollingPoint, len(daily))
	sum := decimal.Zero
	for i, d := range daily {
		sum = sum.Add(d.Total)
		if i >= window {
			sum = sum.Sub(daily[i-window].Total)
		}
		n := min(i+1, window)
		out[i] = RollingPoint{
			Date:    d.Date,
			Average: sum.Div(decimal.NewFromInt(int64(n))),
		}
	}
	return out
}

// GroupByCategory sums amounts per label (category, else priority, else
// "unknown") in order of first occurrence.
func GroupByCategory(obs []core.Obligation) []CategoryTotal {
	out := make([]CategoryTotal, 0)
	index := make(map[string]int)
	for _, o := range obs {
		label := o.Label()
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, CategoryTotal{Label: label, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(o.Value())
	}
	return out
}

// MonthOverMonth is the percentage change between the last two buckets.
// It reports false with fewer than two buckets. Growth from zero is defined
// as exactly 100; no change at zero is 0.
func MonthOverMonth(buckets []MonthBucket) (decimal.Decimal, bool) {
	if len(buckets) < 2 {
		return decimal.Zero, false
	}
	prev := buckets[len(buckets)-2].Total
	last := buckets[len(buckets)-1].Total
	switch {
	case prev.IsZero() && last.IsZero():
		return decimal.Zero, true
	case prev.IsZero():
		return hundred, true
	}
	return last.Sub(prev).Div(prev).Mul(hundred).Round(2), true
}

// InvalidDueDates returns the obligations excluded from date bucketing
// because their due date could not be parsed.
func InvalidDueDates(obs []core.Obligation) []core.Obligation {
	out := make([]core.Obligation, 0)
	for _, o := range obs {
		if !o.HasValidDue() {
			out = append(out, o)
		}
	}
	return out
}

// NearingAndOverdue lists unpaid obligations due from the start of today
// through days later, ascending, followed by overdue ones ascending.
func NearingAndOverdue(obs []core.Obligation, now time.Time, days int) []core.Obligation {
	today := core.StartOfDay(now)
	end := today.AddDate(0, 0, days)
	var nearing, overdue []core.Obligation
	for _, o := range obs {
		if o.IsPaid || !o.HasValidDue() {
			continue
		}
		due := o.DueDate.Time
		switch {
		case due.Before(today):
			overdue = append(overdue, o)
		case !due.After(end):
			nearing = append(nearing, o)
		}
	}
	sortByDue(nearing)
	sortByDue(overdue)
	return append(append(make([]core.Obligation, 0, len(nearing)+len(overdue)), nearing...), overdue...)
}

// OnDay returns the obligations due on the calendar day of day, in its location.
func OnDay(obs []core.Obligation, day time.Time) []core.Obligation {
	start := core.StartOfDay(day)
	end := start.AddDate(0, 0, 1)
	out := make([]core.Obligation, 0)
	for _, o := range obs {
		if !o.HasValidDue() {
			continue
		}
		if due := o.DueDate.Time; !due.Before(start) && due.Before(end) {
			out = append(out, o)
		}
	}
	return out
}

// RecentActivity orders obligations by creation time, newest first, and
// keeps at most limit of them. Records without a creation time go last.
func RecentActivity(obs []core.Obligation, limit int) []core.Obligation {
	out := append([]core.Obligation(nil), obs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []core.Obligation{}
	}
	return out
}

func sortByDue(obs []core.Obligation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].DueDate.Time.Before(obs[j].DueDate.Time)
	})
}
