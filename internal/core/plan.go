package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PlanInput describes a savings target and the monthly cash flow meant to
// reach it.
type PlanInput struct {
	TargetAmount    decimal.Decimal
	TargetDate      time.Time
	MonthlyIncome   decimal.Decimal
	MonthlyExpenses decimal.Decimal
}

// PlanResult is the outcome of a savings-plan feasibility check.
type PlanResult struct {
	TargetAmount         decimal.Decimal `json:"target_amount"`
	MonthsToTarget       int             `json:"months_to_target"`
	MonthlySavingsNeeded decimal.Decimal `json:"monthly_savings_needed"`
	AvailableForSavings  decimal.Decimal `json:"available_for_savings"`
	Feasible             bool            `json:"feasible"`
	AdditionalNeeded     decimal.Decimal `json:"additional_needed"`
	ExtensionMonths      int             `json:"extension_months"`
	Surplus              decimal.Decimal `json:"surplus"`
	Recommendations      []string        `json:"recommendations"`
}

// MonthsBetween counts calendar months from now to target, ignoring days.
func MonthsBetween(now, target time.Time) int {
	return (target.Year()-now.Year())*12 + int(target.Month()) - int(now.Month())
}

// Plan checks whether the target can be saved by its date with the given
// monthly income and expenses. It fails with ErrInvalidTargetDate unless the
// target falls in a later calendar month than now.
func Plan(in PlanInput, now time.Time) (PlanResult, error) {
	if !in.TargetAmount.IsPositive() {
		return PlanResult{}, fmt.Errorf("target amount: %w", ErrInvalidAmount)
	}
	if in.MonthlyIncome.IsNegative() || in.MonthlyExpenses.IsNegative() {
		return PlanResult{}, fmt.Errorf("monthly figures: %w", ErrInvalidAmount)
	}

	months := MonthsBetween(now, in.TargetDate)
	if months <= 0 {
		return PlanResult{}, ErrInvalidTargetDate
	}
	monthsDec := decimal.NewFromInt(int64(months))

	needed := in.TargetAmount.Div(monthsDec)
	available := in.MonthlyIncome.Sub(in.MonthlyExpenses)

	res := PlanResult{
		TargetAmount:         in.TargetAmount,
		MonthsToTarget:       months,
		MonthlySavingsNeeded: needed,
		AvailableForSavings:  available,
		AdditionalNeeded:     zero,
		Surplus:              zero,
	}

	if available.LessThan(needed) {
		res.AdditionalNeeded = needed.Sub(available)
		res.ExtensionMonths = int(res.AdditionalNeeded.Mul(monthsDec).Div(needed).Floor().IntPart())
		res.Recommendations = []string{
			fmt.Sprintf("Increase income by $%s per month, or", res.AdditionalNeeded.StringFixed(2)),
			fmt.Sprintf("Reduce expenses by $%s per month, or", res.AdditionalNeeded.StringFixed(2)),
			fmt.Sprintf("Extend your target date by %d months", res.ExtensionMonths),
		}
		return res, nil
	}

	res.Feasible = true
	res.Surplus = available.Sub(needed)
	res.Recommendations = []string{
		"Your goal is achievable with your current financial situation!",
		fmt.Sprintf("You can save $%s per month to reach your goal.", needed.StringFixed(2)),
		fmt.Sprintf("You'll have $%s surplus for other goals.", res.Surplus.StringFixed(2)),
	}
	return res, nil
}
