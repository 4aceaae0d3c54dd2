package core

import "github.com/shopspring/decimal"

// DefaultEmergencyMonths is the number of months of expenses an emergency
// fund should cover.
const DefaultEmergencyMonths = 6

// RecommendedEmergencyFund returns monthlyExpenses*months rounded to cents.
func RecommendedEmergencyFund(monthlyExpenses decimal.Decimal, months int) (decimal.Decimal, error) {
	if monthlyExpenses.IsNegative() {
		return zero, ErrInvalidAmount
	}
	if months <= 0 {
		return zero, ErrInvalidMonths
	}
	return emergencyFundTarget(monthlyExpenses, months), nil
}

func emergencyFundTarget(monthlyExpenses decimal.Decimal, months int) decimal.Decimal {
	return monthlyExpenses.Mul(decimal.NewFromInt(int64(months))).Round(2)
}
