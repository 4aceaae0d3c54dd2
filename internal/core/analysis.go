package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultAnalysisMonths = 6
	MaxAnalysisMonths     = 24
	// TopSpendingCategories caps the category list of a spending analysis.
	TopSpendingCategories = 5
	daysPerAnalysisMonth  = 30
)

// SpendingAnalysis summarises expenses over the last N months.
type SpendingAnalysis struct {
	PeriodMonths   int              `json:"period_months"`
	TotalSpending  decimal.Decimal  `json:"total_spending"`
	AverageMonthly decimal.Decimal  `json:"average_monthly"`
	TopCategories  []CategoryAmount `json:"top_categories"`
	MonthlyTrend   []MonthAmount    `json:"monthly_trend"`
}

// IncomeAnalysis summarises income over the last N months.
type IncomeAnalysis struct {
	PeriodMonths   int              `json:"period_months"`
	TotalIncome    decimal.Decimal  `json:"total_income"`
	AverageMonthly decimal.Decimal  `json:"average_monthly"`
	Sources        []CategoryAmount `json:"income_sources"`
	MonthlyTrend   []MonthAmount    `json:"monthly_trend"`
}

// AnalysisWindow returns the window covering the last months*30 days up to now.
func AnalysisWindow(months int, now time.Time) (Window, error) {
	if months < 1 || months > MaxAnalysisMonths {
		return Window{}, ErrInvalidMonths
	}
	return Window{Start: now.AddDate(0, 0, -months*daysPerAnalysisMonth), End: now}, nil
}

// AnalyzeSpending ranks expense categories over the analysis window.
func AnalyzeSpending(transactions []Transaction, months int, now time.Time) (SpendingAnalysis, error) {
	total, byCategory, trend, err := flowByKind(transactions, Expense, months, now)
	if err != nil {
		return SpendingAnalysis{}, err
	}
	if len(byCategory) > TopSpendingCategories {
		byCategory = byCategory[:TopSpendingCategories]
	}
	return SpendingAnalysis{
		PeriodMonths:   months,
		TotalSpending:  total,
		AverageMonthly: total.Div(decimal.NewFromInt(int64(months))).Round(2),
		TopCategories:  byCategory,
		MonthlyTrend:   trend,
	}, nil
}

// AnalyzeIncome ranks income sources over the analysis window.
func AnalyzeIncome(transactions []Transaction, months int, now time.Time) (IncomeAnalysis, error) {
	total, byCategory, trend, err := flowByKind(transactions, Income, months, now)
	if err != nil {
		return IncomeAnalysis{}, err
	}
	return IncomeAnalysis{
		PeriodMonths:   months,
		TotalIncome:    total,
		AverageMonthly: total.Div(decimal.NewFromInt(int64(months))).Round(2),
		Sources:        byCategory,
		MonthlyTrend:   trend,
	}, nil
}

// flowByKind sums one kind of transaction by category (largest first, ties
// in declaration order) and by month (ascending).
func flowByKind(transactions []Transaction, kind Kind, months int, now time.Time) (decimal.Decimal, []CategoryAmount, []MonthAmount, error) {
	window, err := AnalysisWindow(months, now)
	if err != nil {
		return zero, nil, nil, err
	}

	total := zero
	categories := make(map[Category]decimal.Decimal)
	monthly := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if t.Kind != kind || !window.Contains(t.OccurredAt) {
			continue
		}
		total = total.Add(t.Amount)
		categories[t.Category] = categories[t.Category].Add(t.Amount)
		key := t.OccurredAt.Format(MonthKeyLayout)
		monthly[key] = monthly[key].Add(t.Amount)
	}

	byCategory := make([]CategoryAmount, 0, len(categories))
	for c, amt := range categories {
		byCategory = append(byCategory, CategoryAmount{Category: c, Amount: amt})
	}
	sort.Slice(byCategory, func(i, j int) bool {
		if !byCategory[i].Amount.Equal(byCategory[j].Amount) {
			return byCategory[i].Amount.GreaterThan(byCategory[j].Amount)
		}
		return byCategory[i].Category.Rank() < byCategory[j].Category.Rank()
	})

	trend := make([]MonthAmount, 0, len(monthly))
	for m, amt := range monthly {
		trend = append(trend, MonthAmount{Month: m, Amount: amt})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Month < trend[j].Month })

	return total, byCategory, trend, nil
}
