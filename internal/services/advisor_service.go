package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"

	"github.com/shopspring/decimal"
)

// EmergencyFund is the result of the emergency fund calculator.
type EmergencyFund struct {
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	Months          int             `json:"months"`
	Recommended     decimal.Decimal `json:"recommended_amount"`
}

// AdvisorService turns the stored history into advice and keeps the
// recommendations the user chose to save.
type AdvisorService struct {
	reports *ReportService
	saved   ledger.RecommendationStore
	now     func() time.Time
}

func NewAdvisorService(reports *ReportService, saved ledger.RecommendationStore) *AdvisorService {
	return &AdvisorService{reports: reports, saved: saved, now: time.Now}
}

func (s *AdvisorService) WithClock(now func() time.Time) *AdvisorService {
	s.now = now
	return s
}

// Recommendations runs the advisor over all stored transactions.
// monthlyExpenses, when set, replaces the emergency-fund basis.
func (s *AdvisorService) Recommendations(ctx context.Context, monthlyExpenses *decimal.Decimal) ([]core.Recommendation, error) {
	if monthlyExpenses != nil && monthlyExpenses.IsNegative() {
		return nil, fmt.Errorf("monthly expenses: %w", core.ErrInvalidAmount)
	}
	summary, err := s.reports.Summary(ctx, core.Window{})
	if err != nil {
		return nil, err
	}
	return core.Advise(summary, core.AdviceContext{MonthlyExpenses: monthlyExpenses}), nil
}

func (s *AdvisorService) SavingsPlan(in core.PlanInput) (core.PlanResult, error) {
	// target dates are UTC calendar days
	return core.Plan(in, s.now().UTC())
}

// EmergencyFund sizes a fund of months times monthlyExpenses. months <= 0
// is rejected; callers apply core.DefaultEmergencyMonths for a missing value.
func (s *AdvisorService) EmergencyFund(monthlyExpenses decimal.Decimal, months int) (EmergencyFund, error) {
	amount, err := core.RecommendedEmergencyFund(monthlyExpenses, months)
	if err != nil {
		return EmergencyFund{}, err
	}
	return EmergencyFund{
		MonthlyExpenses: monthlyExpenses,
		Months:          months,
		Recommended:     amount,
	}, nil
}

func (s *AdvisorService) Save(ctx context.Context, r core.SavedRecommendation) (core.SavedRecommendation, error) {
	saved, err := s.saved.SaveRecommendation(ctx, r)
	if err != nil {
		return core.SavedRecommendation{}, fmt.Errorf("save recommendation: %w", err)
	}
	slog.InfoContext(ctx, "Recommendation saved",
		"id", saved.ID,
		"kind", saved.Kind,
		"priority", saved.Priority)
	return saved, nil
}

func (s *AdvisorService) GetSaved(ctx context.Context, id int64) (core.SavedRecommendation, error) {
	r, err := s.saved.GetRecommendation(ctx, id)
	if err != nil {
		return core.SavedRecommendation{}, fmt.Errorf("get recommendation %d: %w", id, err)
	}
	return r, nil
}

func (s *AdvisorService) UpdateSaved(ctx context.Context, r core.SavedRecommendation) (core.SavedRecommendation, error) {
	updated, err := s.saved.UpdateRecommendation(ctx, r)
	if err != nil {
		return core.SavedRecommendation{}, fmt.Errorf("update recommendation %d: %w", r.ID, err)
	}
	return updated, nil
}

func (s *AdvisorService) DeleteSaved(ctx context.Context, id int64) error {
	if err := s.saved.DeleteRecommendation(ctx, id); err != nil {
		return fmt.Errorf("delete recommendation %d: %w", id, err)
	}
	return nil
}

func (s *AdvisorService) ListSaved(ctx context.Context) ([]core.SavedRecommendation, error) {
	list, err := s.saved.ListRecommendations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return list, nil
}
