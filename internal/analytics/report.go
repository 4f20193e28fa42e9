package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"payble/internal/core"
)

// Options parameterise Build. Zero values take the defaults below.
type Options struct {
	Now          time.Time
	MonthsBack   int
	Days         int
	Window       int
	UpcomingDays int
	NearingDays  int
	RecentLimit  int
	Forecast     ForecastConfig
	Budget       decimal.Decimal
}

const (
	DefaultMonthsBack   = 6
	DefaultDays         = 30
	DefaultWindow       = 7
	DefaultUpcomingDays = 7
	DefaultNearingDays  = 3
	DefaultRecentLimit  = 5
)

func (o Options) withDefaults() Options {
	if o.MonthsBack <= 0 {
		o.MonthsBack = DefaultMonthsBack
	}
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.UpcomingDays <= 0 {
		o.UpcomingDays = DefaultUpcomingDays
	}
	if o.NearingDays <= 0 {
		o.NearingDays = DefaultNearingDays
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = DefaultRecentLimit
	}
	switch {
	case o.Forecast == (ForecastConfig{}):
		o.Forecast = DefaultForecastConfig()
	case o.Forecast.Method == "":
		o.Forecast.Method = DefaultMethod
	}
	if o.Budget.IsZero() {
		o.Budget = DefaultBudget
	}
	return o
}

// Forecast is the prediction together with the points it was derived from.
// Value is nil when there is not enough history.
type Forecast struct {
	Method Method           `json:"method"`
	Value  *decimal.Decimal `json:"value"`
	Prev   *decimal.Decimal `json:"prev"`
	Last   *decimal.Decimal `json:"last"`
}

// Report is everything the dashboard and insights views render.
type Report struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	TotalDue        decimal.Decimal   `json:"total_due"`
	TotalPaid       decimal.Decimal   `json:"total_paid"`
	Upcoming        []core.Obligation `json:"upcoming"`
	UpcomingCount   int               `json:"upcoming_count"`
	Monthly         []MonthBucket     `json:"monthly"`
	Daily           []DayBucket       `json:"daily"`
	Rolling         []RollingPoint    `json:"rolling"`
	Categories      []CategoryTotal   `json:"categories"`
	MonthOverMonth  *decimal.Decimal  `json:"month_over_month"`
	Forecast        Forecast          `json:"forecast"`
	Budget          Budget            `json:"budget"`
	NearingDue      []core.Obligation `json:"nearing_due"`
	RecentActivity  []core.Obligation `json:"recent_activity"`
	ExcludedRecords int               `json:"excluded_records"`
}

// Build computes a full report from a snapshot of obligations.
func Build(obs []core.Obligation, opts Options) Report {
	opts = opts.withDefaults()
	now := opts.Now

	monthly := GroupByMonth(obs, now, opts.MonthsBack)
	daily := DailyTotals(obs, now, opts.Days)
	upcoming := Upcoming(obs, now, opts.UpcomingDays)
	due := SumDue(obs)

	r := Report{
		GeneratedAt:     now,
		TotalDue:        due,
		TotalPaid:       SumPaid(obs),
		Upcoming:        upcoming,
		UpcomingCount:   len(upcoming),
		Monthly:         monthly,
		Daily:           daily,
		Rolling:         RollingAverage(daily, opts.Window),
		Categories:      GroupByCategory(obs),
		Budget:          BudgetProgress(due, opts.Budget),
		NearingDue:      NearingAndOverdue(obs, now, opts.NearingDays),
		RecentActivity:  RecentActivity(obs, opts.RecentLimit),
		ExcludedRecords: len(InvalidDueDates(obs)),
		Forecast:        Forecast{Method: opts.Forecast.Method},
	}
	if mom, ok := MonthOverMonth(monthly); ok {
		r.MonthOverMonth = &mom
	}
	if v, ok := PredictNext(monthly, opts.Forecast); ok {
		r.Forecast.Value = &v
	}
	if prev, last, ok := ForecastInputs(monthly); ok {
		r.Forecast.Prev, r.Forecast.Last = &prev, &last
	}
	return r
}
