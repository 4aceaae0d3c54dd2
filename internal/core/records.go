package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

const (
	FundActive    FundStatus = "active"
	FundCompleted FundStatus = "completed"
)

// MaxHealthScore bounds HealthReport.Score.
const MaxHealthScore = 100

const (
	MonthlyReport ReportType = "monthly"
	YearlyReport  ReportType = "yearly"
	CustomReport  ReportType = "custom"
)

type (
	GoalStatus string
	FundStatus string
	ReportType string

	// SavingsGoal tracks progress towards a target amount.
	SavingsGoal struct {
		ID            int64           `json:"id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		TargetDate    Date            `json:"target_date"`
		Description   string          `json:"description"`
		Status        GoalStatus      `json:"status"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	// Investment is a single position in the portfolio.
	Investment struct {
		ID        int64           `json:"id"`
		Type      string          `json:"type"`
		Amount    decimal.Decimal `json:"amount"`
		Date      Date            `json:"date"`
		Status    string          `json:"status"`
		CreatedAt time.Time       `json:"created_at"`
	}

	// EmergencyFundRecord tracks the balance set aside for emergencies.
	EmergencyFundRecord struct {
		ID            int64           `json:"id"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		Status        FundStatus      `json:"status"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	// HealthReport is a dated financial health score.
	HealthReport struct {
		ID         int64     `json:"id"`
		ReportDate Date      `json:"report_date"`
		Score      float64   `json:"score"`
		Summary    string    `json:"summary"`
		CreatedAt  time.Time `json:"created_at"`
	}

	// Report is a persisted FinancialSummary over a period.
	Report struct {
		ID          int64            `json:"id"`
		Ref         string           `json:"ref"`
		Type        ReportType       `json:"report_type"`
		PeriodStart time.Time        `json:"period_start"`
		PeriodEnd   time.Time        `json:"period_end"`
		Summary     FinancialSummary `json:"summary"`
		GeneratedAt time.Time        `json:"generated_at"`
	}

	// SavedRecommendation is a recommendation kept by the user.
	SavedRecommendation struct {
		ID int64 `json:"id"`
		Recommendation
		Implemented bool      `json:"is_implemented"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
)

func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalCompleted
}

func (s FundStatus) Valid() bool {
	return s == FundActive || s == FundCompleted
}

func (rt ReportType) Valid() bool {
	switch rt {
	case MonthlyReport, YearlyReport, CustomReport:
		return true
	}
	return false
}

func ParseReportType(s string) (ReportType, error) {
	rt := ReportType(strings.ToLower(strings.TrimSpace(s)))
	if !rt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReportType, s)
	}
	return rt, nil
}

// ReportPeriod resolves the window a report of the given type covers at now.
// Custom reports use the supplied window, which must have both bounds.
func ReportPeriod(rt ReportType, now time.Time, custom Window) (Window, error) {
	switch rt {
	case MonthlyReport:
		return Window{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), End: now}, nil
	case YearlyReport:
		return Window{Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), End: now}, nil
	case CustomReport:
		if custom.Start.IsZero() || custom.End.IsZero() {
			return Window{}, fmt.Errorf("custom report needs start and end: %w", ErrInvalidWindow)
		}
		if err := custom.Validate(); err != nil {
			return Window{}, err
		}
		return custom, nil
	default:
		return Window{}, ErrInvalidReportType
	}
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !g.TargetAmount.IsPositive() {
		return fmt.Errorf("target amount: %w", ErrInvalidAmount)
	}
	if g.CurrentAmount.IsNegative() {
		return fmt.Errorf("current amount: %w", ErrInvalidAmount)
	}
	if g.Status != "" && !g.Status.Valid() {
		return fmt.Errorf("%w: goal status %q", ErrInvalidStatus, g.Status)
	}
	return validateDescription(g.Description, false)
}

// Progress returns the saved share of the target as a percentage, capped at 100.
func (g SavingsGoal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return zero
	}
	p := g.CurrentAmount.Mul(hundred).Div(g.TargetAmount).Round(2)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// Remaining returns how much is still missing to reach the target.
func (g SavingsGoal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return zero
	}
	return r
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Type) == "" {
		return ErrEmptyName
	}
	if i.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if i.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (f EmergencyFundRecord) Validate() error {
	if !f.TargetAmount.IsPositive() {
		return fmt.Errorf("target amount: %w", ErrInvalidAmount)
	}
	if f.CurrentAmount.IsNegative() {
		return fmt.Errorf("current amount: %w", ErrInvalidAmount)
	}
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: fund status %q", ErrInvalidStatus, f.Status)
	}
	return nil
}

// Progress returns the funded share of the target as a percentage, capped at 100.
func (f EmergencyFundRecord) Progress() decimal.Decimal {
	return SavingsGoal{TargetAmount: f.TargetAmount, CurrentAmount: f.CurrentAmount}.Progress()
}

func (h HealthReport) Validate() error {
	if h.ReportDate.IsZero() {
		return ErrInvalidDate
	}
	if h.Score < 0 || h.Score > MaxHealthScore {
		return fmt.Errorf("%w: %v not in [0, %d]", ErrInvalidScore, h.Score, MaxHealthScore)
	}
	return validateDescription(h.Summary, false)
}

// PortfolioTotal sums investment amounts and rounds to cents.
func PortfolioTotal(investments []Investment) decimal.Decimal {
	total := zero
	for _, i := range investments {
		total = total.Add(i.Amount)
	}
	return total.Round(2)
}

func (r Recommendation) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecKind, r.Kind)
	}
	if !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyName
	}
	return validateDescription(r.Description, true)
}
