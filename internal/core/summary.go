package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthKeyLayout formats the calendar bucket of a transaction.
const MonthKeyLayout = "2006-01"

// Window is an inclusive time range. A zero bound is open on that side.
type Window struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// IsZero reports whether the window filters nothing.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// MonthTrend is the income/expense flow of one calendar month.
type MonthTrend struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryBreakdown is the income/expense flow of one category.
type CategoryBreakdown struct {
	Category Category        `json:"category"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Net      decimal.Decimal `json:"net"`
}

// FinancialSummary is the aggregate view over a set of transactions.
type FinancialSummary struct {
	TotalIncome       decimal.Decimal     `json:"total_income"`
	TotalExpenses     decimal.Decimal     `json:"total_expenses"`
	NetIncome         decimal.Decimal     `json:"net_income"`
	SavingsRate       decimal.Decimal     `json:"savings_rate"`
	TransactionCount  int                 `json:"transaction_count"`
	MonthlyTrend      []MonthTrend        `json:"monthly_trend"`
	CategoryBreakdown []CategoryBreakdown `json:"category_breakdown"`
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthAmount represents an amount aggregated by calendar month.
type MonthAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}
