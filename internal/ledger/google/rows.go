package google

import (
	"time"

	"finadvisor/internal/core"
)

const sheetDateLayout = "2006-01-02"

// transactionRow lays out a transaction as
// Date | Kind | Category | Description | Amount | Recurring.
func transactionRow(t core.Transaction) []any {
	recurring := ""
	if t.Recurring {
		recurring = string(t.Frequency)
	}
	return []any{
		t.OccurredAt.UTC().Format(sheetDateLayout),
		string(t.Kind),
		string(t.Category),
		t.Description,
		t.Amount.StringFixed(2),
		recurring,
	}
}

// reportRow lays out a report as
// Ref | Type | From | To | Income | Expenses | Net | Savings rate | Count.
func reportRow(r core.Report) []any {
	s := r.Summary
	return []any{
		r.Ref,
		string(r.Type),
		formatDay(r.PeriodStart),
		formatDay(r.PeriodEnd),
		s.TotalIncome.StringFixed(2),
		s.TotalExpenses.StringFixed(2),
		s.NetIncome.StringFixed(2),
		s.SavingsRate.StringFixed(2),
		s.TransactionCount,
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sheetDateLayout)
}
