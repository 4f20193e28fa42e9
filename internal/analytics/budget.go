package analytics

import "github.com/shopspring/decimal"

// DefaultBudget is the monthly budget used when none is configured.
var DefaultBudget = decimal.NewFromInt(10000)

// Budget compares outstanding dues against a monthly budget.
type Budget struct {
	Budget    decimal.Decimal `json:"budget"`
	Committed decimal.Decimal `json:"committed"`
	Percent   decimal.Decimal `json:"percent"`
}

// BudgetProgress caps committed at the budget and the percentage at 100.
// A non-positive budget yields zero progress.
func BudgetProgress(due, budget decimal.Decimal) Budget {
	if !budget.IsPositive() {
		return Budget{Budget: budget, Committed: decimal.Zero, Percent: decimal.Zero}
	}
	due = decimal.Max(due, decimal.Zero)
	pct := decimal.Min(hundred, due.Div(budget).Mul(hundred))
	return Budget{
		Budget:    budget,
		Committed: decimal.Min(due, budget),
		Percent:   pct.Round(2),
	}
}
