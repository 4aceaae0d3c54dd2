package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	SavingsAdvice       RecommendationKind = "savings"
	BudgetAdvice        RecommendationKind = "budget"
	EmergencyFundAdvice RecommendationKind = "emergency_fund"
	InvestmentAdvice    RecommendationKind = "investment"
)

type RecommendationKind string

func (k RecommendationKind) Valid() bool {
	switch k {
	case SavingsAdvice, BudgetAdvice, EmergencyFundAdvice, InvestmentAdvice:
		return true
	}
	return false
}

// Recommendation is one piece of advice produced by Advise.
type Recommendation struct {
	Kind        RecommendationKind `json:"kind"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Priority    Priority           `json:"priority"`
}

// AdviceContext carries optional figures supplied by the caller.
type AdviceContext struct {
	// MonthlyExpenses overrides the emergency-fund basis derived from the summary.
	MonthlyExpenses *decimal.Decimal
	// TransactionCount overrides the count used to pick the emergency-fund basis.
	TransactionCount *int
}

// Thresholds of the advice decision table, as percentages or fractions.
var (
	lowSavingsRate        = decimal.NewFromInt(20)
	goodSavingsRate       = decimal.NewFromInt(30)
	investmentSavingsRate = decimal.NewFromInt(25)
	budgetShareOfIncome   = decimal.NewFromFloat(0.3)
	monthsPerYear         = decimal.NewFromInt(12)
)

// Advise applies the fixed decision table to a summary. The result is
// ordered: savings tier, budget alert, emergency fund, investment.
func Advise(summary FinancialSummary, ac AdviceContext) []Recommendation {
	if summary.TransactionCount == 0 {
		return []Recommendation{{
			Kind:        SavingsAdvice,
			Title:       "Start Tracking Your Finances",
			Description: "Begin by adding your first income and expense transactions to get personalized recommendations.",
			Priority:    High,
		}}
	}

	recs := []Recommendation{savingsTier(summary.SavingsRate)}

	if rec, ok := budgetAlert(summary); ok {
		recs = append(recs, rec)
	}
	if rec, ok := emergencyFund(summary, ac); ok {
		recs = append(recs, rec)
	}
	if summary.SavingsRate.GreaterThan(investmentSavingsRate) {
		recs = append(recs, Recommendation{
			Kind:        InvestmentAdvice,
			Title:       "Consider Investment Opportunities",
			Description: "With your strong savings rate, consider diversifying into investment vehicles for long-term wealth building.",
			Priority:    Medium,
		})
	}
	return recs
}

func savingsTier(rate decimal.Decimal) Recommendation {
	pct := rate.StringFixed(1)
	switch {
	case rate.LessThan(lowSavingsRate):
		return Recommendation{
			Kind:        SavingsAdvice,
			Title:       "Increase Your Savings Rate",
			Description: fmt.Sprintf("Your current savings rate is %s%%. Aim to save at least 20%% of your income for better financial security.", pct),
			Priority:    High,
		}
	case rate.LessThan(goodSavingsRate):
		return Recommendation{
			Kind:        SavingsAdvice,
			Title:       "Optimize Your Savings",
			Description: fmt.Sprintf("Great job! Your savings rate is %s%%. Consider increasing it to 30%% for accelerated wealth building.", pct),
			Priority:    Medium,
		}
	default:
		return Recommendation{
			Kind:        SavingsAdvice,
			Title:       "Excellent Savings Rate",
			Description: fmt.Sprintf("Outstanding! Your %s%% savings rate is excellent. Consider investing your surplus for long-term growth.", pct),
			Priority:    Low,
		}
	}
}

// budgetAlert flags the largest expense category when it exceeds 30% of
// income. Ties go to the first category in declaration order.
func budgetAlert(summary FinancialSummary) (Recommendation, bool) {
	if !summary.TotalIncome.IsPositive() {
		return Recommendation{}, false
	}

	var top *CategoryBreakdown
	for i := range summary.CategoryBreakdown {
		c := &summary.CategoryBreakdown[i]
		if !c.Expense.IsPositive() {
			continue
		}
		if top == nil || c.Expense.GreaterThan(top.Expense) ||
			(c.Expense.Equal(top.Expense) && c.Category.Rank() < top.Category.Rank()) {
			top = c
		}
	}
	if top == nil {
		return Recommendation{}, false
	}

	limit := summary.TotalIncome.Mul(budgetShareOfIncome)
	if !top.Expense.GreaterThan(limit) {
		return Recommendation{}, false
	}
	over := top.Expense.Sub(limit)
	return Recommendation{
		Kind:  BudgetAdvice,
		Title: "Review High Spending Category",
		Description: fmt.Sprintf("Your %s spending is %s, which is over 30%% of your income by %s. Consider reducing expenses in this category.",
			top.Category, top.Expense.StringFixed(0), over.StringFixed(2)),
		Priority: High,
	}, true
}

func emergencyFund(summary FinancialSummary, ac AdviceContext) (Recommendation, bool) {
	if !summary.NetIncome.IsPositive() {
		return Recommendation{}, false
	}

	basis := summary.TotalExpenses
	count := summary.TransactionCount
	if ac.TransactionCount != nil {
		count = *ac.TransactionCount
	}
	switch {
	case ac.MonthlyExpenses != nil:
		basis = *ac.MonthlyExpenses
	case count >= 12:
		basis = summary.TotalExpenses.Div(monthsPerYear)
	}

	fund := emergencyFundTarget(basis, DefaultEmergencyMonths)
	return Recommendation{
		Kind:        EmergencyFundAdvice,
		Title:       "Build Emergency Fund",
		Description: fmt.Sprintf("Consider building an emergency fund of $%s (6 months of expenses) for financial security.", fund.StringFixed(0)),
		Priority:    Medium,
	}, true
}
