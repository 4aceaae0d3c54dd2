package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregate reduces transactions into a FinancialSummary. The window is
// applied before any arithmetic; a zero window keeps everything.
//
// Trend entries are sorted by month, breakdown entries by category
// declaration order.
func Aggregate(transactions []Transaction, window Window) FinancialSummary {
	summary := FinancialSummary{
		TotalIncome:       zero,
		TotalExpenses:     zero,
		NetIncome:         zero,
		SavingsRate:       zero,
		MonthlyTrend:      []MonthTrend{},
		CategoryBreakdown: []CategoryBreakdown{},
	}

	months := make(map[string]*MonthTrend)
	categories := make(map[Category]*CategoryBreakdown)

	for _, t := range transactions {
		if !window.Contains(t.OccurredAt) {
			continue
		}
		summary.TransactionCount++

		key := t.OccurredAt.Format(MonthKeyLayout)
		m, ok := months[key]
		if !ok {
			m = &MonthTrend{Month: key, Income: zero, Expense: zero}
			months[key] = m
		}
		c, ok := categories[t.Category]
		if !ok {
			c = &CategoryBreakdown{Category: t.Category, Income: zero, Expense: zero}
			categories[t.Category] = c
		}

		switch t.Kind {
		case Income:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
			m.Income = m.Income.Add(t.Amount)
			c.Income = c.Income.Add(t.Amount)
		case Expense:
			summary.TotalExpenses = summary.TotalExpenses.Add(t.Amount)
			m.Expense = m.Expense.Add(t.Amount)
			c.Expense = c.Expense.Add(t.Amount)
		}
	}

	summary.NetIncome = summary.TotalIncome.Sub(summary.TotalExpenses)
	summary.SavingsRate = SavingsRate(summary.TotalIncome, summary.NetIncome)

	for _, m := range months {
		m.Net = m.Income.Sub(m.Expense)
		summary.MonthlyTrend = append(summary.MonthlyTrend, *m)
	}
	sort.Slice(summary.MonthlyTrend, func(i, j int) bool {
		return summary.MonthlyTrend[i].Month < summary.MonthlyTrend[j].Month
	})

	for _, c := range categories {
		c.Net = c.Income.Sub(c.Expense)
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, *c)
	}
	sort.Slice(summary.CategoryBreakdown, func(i, j int) bool {
		return summary.CategoryBreakdown[i].Category.Rank() < summary.CategoryBreakdown[j].Category.Rank()
	})

	return summary
}

// SavingsRate returns net as a percentage of income, or zero when there is
// no income.
func SavingsRate(income, net decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return zero
	}
	return net.Mul(hundred).Div(income)
}
