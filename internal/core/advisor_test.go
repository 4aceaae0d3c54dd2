package core

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func kinds(recs []Recommendation) []RecommendationKind {
	out := make([]RecommendationKind, len(recs))
	for i, r := range recs {
		out[i] = r.Kind
	}
	return out
}

func TestAdviseColdStart(t *testing.T) {
	recs := Advise(Aggregate(nil, Window{}), AdviceContext{})
	if len(recs) != 1 {
		t.Fatalf("expected one recommendation, got %d", len(recs))
	}
	if recs[0].Kind != SavingsAdvice || recs[0].Priority != High {
		t.Fatalf("unexpected cold start recommendation %+v", recs[0])
	}
	if recs[0].Title != "Start Tracking Your Finances" {
		t.Fatalf("title=%q", recs[0].Title)
	}
}

func TestAdviseExample(t *testing.T) {
	s := Aggregate([]Transaction{
		tx("1000", Income, Salary, day(2025, 1, 5)),
		tx("900", Expense, Food, day(2025, 1, 20)),
	}, Window{})
	recs := Advise(s, AdviceContext{})

	want := []RecommendationKind{SavingsAdvice, BudgetAdvice, EmergencyFundAdvice}
	got := kinds(recs)
	if len(got) != len(want) {
		t.Fatalf("kinds=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds=%v want %v", got, want)
		}
	}
	if recs[0].Priority != High || !strings.Contains(recs[0].Description, "10.0%") {
		t.Fatalf("unexpected savings advice %+v", recs[0])
	}
	if !strings.Contains(recs[1].Description, "food") || !strings.Contains(recs[1].Description, "600.00") {
		t.Fatalf("budget alert must name category and overage: %q", recs[1].Description)
	}
	// Fewer than 12 transactions: the whole period counts as one month.
	if !strings.Contains(recs[2].Description, "$5400") {
		t.Fatalf("emergency fund description=%q", recs[2].Description)
	}
}

func TestAdviseSavingsTierIsExclusive(t *testing.T) {
	tests := []struct {
		rate     string
		priority Priority
	}{
		{"-150", High},
		{"0", High},
		{"19.99", High},
		{"20", Medium},
		{"29.99", Medium},
		{"30", Low},
		{"100", Low},
	}
	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			s := FinancialSummary{
				TransactionCount: 1,
				SavingsRate:      dec(tt.rate),
			}
			recs := Advise(s, AdviceContext{})
			tiers := 0
			for _, r := range recs {
				if r.Kind == SavingsAdvice {
					tiers++
					if r.Priority != tt.priority {
						t.Fatalf("priority=%s want %s", r.Priority, tt.priority)
					}
				}
			}
			if tiers != 1 {
				t.Fatalf("expected exactly one savings tier, got %d", tiers)
			}
		})
	}
}

func TestAdviseBudgetAlert(t *testing.T) {
	t.Run("skipped without income", func(t *testing.T) {
		s := Aggregate([]Transaction{tx("500", Expense, Rent, day(2025, 1, 1))}, Window{})
		for _, r := range Advise(s, AdviceContext{}) {
			if r.Kind == BudgetAdvice {
				t.Fatalf("budget alert must not fire without income")
			}
		}
	})

	t.Run("not above threshold", func(t *testing.T) {
		s := Aggregate([]Transaction{
			tx("1000", Income, Salary, day(2025, 1, 1)),
			tx("300", Expense, Rent, day(2025, 1, 2)),
		}, Window{})
		for _, r := range Advise(s, AdviceContext{}) {
			if r.Kind == BudgetAdvice {
				t.Fatalf("exactly 30%% must not trigger the alert")
			}
		}
	})

	t.Run("tie picks first declared category", func(t *testing.T) {
		s := Aggregate([]Transaction{
			tx("1000", Income, Salary, day(2025, 1, 1)),
			tx("400", Expense, Rent, day(2025, 1, 2)),
			tx("400", Expense, Food, day(2025, 1, 3)),
		}, Window{})
		var budget *Recommendation
		recs := Advise(s, AdviceContext{})
		for i := range recs {
			if recs[i].Kind == BudgetAdvice {
				budget = &recs[i]
			}
		}
		if budget == nil {
			t.Fatalf("expected budget alert, got %v", kinds(recs))
		}
		if !strings.Contains(budget.Description, "food") {
			t.Fatalf("tie-break should pick food, got %q", budget.Description)
		}
	})
}

func TestAdviseEmergencyFundBasis(t *testing.T) {
	var txs []Transaction
	for m := 1; m <= 12; m++ {
		txs = append(txs, tx("100", Expense, Utilities, day(2025, time.Month(m), 1)))
	}
	txs = append(txs, tx("10000", Income, Salary, day(2025, 1, 1)))
	s := Aggregate(txs, Window{})

	find := func(recs []Recommendation) Recommendation {
		for _, r := range recs {
			if r.Kind == EmergencyFundAdvice {
				return r
			}
		}
		t.Fatalf("no emergency fund advice in %v", kinds(recs))
		return Recommendation{}
	}

	// 13 transactions: total expenses 1200 spread over 12 months -> 100/month -> 600.
	if r := find(Advise(s, AdviceContext{})); !strings.Contains(r.Description, "$600 ") {
		t.Fatalf("yearly basis: %q", r.Description)
	}

	few := 3
	if r := find(Advise(s, AdviceContext{TransactionCount: &few})); !strings.Contains(r.Description, "$7200 ") {
		t.Fatalf("unscaled basis: %q", r.Description)
	}

	override := decimal.NewFromInt(250)
	if r := find(Advise(s, AdviceContext{MonthlyExpenses: &override})); !strings.Contains(r.Description, "$1500 ") {
		t.Fatalf("override basis: %q", r.Description)
	}
}

func TestAdviseFullSequence(t *testing.T) {
	// 40% savings rate and a dominant rent category triggers all four rules.
	s := Aggregate([]Transaction{
		tx("1000", Income, Salary, day(2025, 1, 1)),
		tx("350", Expense, Rent, day(2025, 1, 2)),
		tx("250", Expense, Food, day(2025, 1, 3)),
	}, Window{})
	got := kinds(Advise(s, AdviceContext{}))
	want := []RecommendationKind{SavingsAdvice, BudgetAdvice, EmergencyFundAdvice, InvestmentAdvice}
	if len(got) != len(want) {
		t.Fatalf("kinds=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds=%v want %v", got, want)
		}
	}
}

func TestAdviseNoEmergencyWhenNetNotPositive(t *testing.T) {
	s := Aggregate([]Transaction{
		tx("100", Income, Salary, day(2025, 1, 1)),
		tx("100", Expense, Food, day(2025, 1, 2)),
	}, Window{})
	for _, r := range Advise(s, AdviceContext{}) {
		if r.Kind == EmergencyFundAdvice || r.Kind == InvestmentAdvice {
			t.Fatalf("unexpected %s advice with zero net", r.Kind)
		}
	}
}
