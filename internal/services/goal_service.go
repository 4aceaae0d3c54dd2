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

// GoalService manages savings goals and plans the way to reach them.
type GoalService struct {
	store ledger.GoalStore
	now   func() time.Time
}

func NewGoalService(store ledger.GoalStore) *GoalService {
	return &GoalService{store: store, now: time.Now}
}

func (s *GoalService) WithClock(now func() time.Time) *GoalService {
	s.now = now
	return s
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Savings goal created",
		"id", created.ID,
		"name", created.Name,
		"target", created.TargetAmount.String())
	return created, nil
}

func (s *GoalService) Get(ctx context.Context, id int64) (core.SavingsGoal, error) {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal %d: %w", id, err)
	}
	return g, nil
}

func (s *GoalService) Update(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	updated, err := s.store.UpdateGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	return updated, nil
}

func (s *GoalService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

func (s *GoalService) List(ctx context.Context) ([]core.SavingsGoal, error) {
	list, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return list, nil
}

// Complete marks a goal as reached.
func (s *GoalService) Complete(ctx context.Context, id int64) (core.SavingsGoal, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.Status = core.GoalCompleted
	g, err = s.Update(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	slog.InfoContext(ctx, "Savings goal completed", "id", g.ID, "name", g.Name)
	return g, nil
}

// Plan checks whether the amount still missing can be saved by the goal's
// target date. A goal that is already funded yields a feasible plan with
// nothing left to save.
func (s *GoalService) Plan(ctx context.Context, id int64, monthlyIncome, monthlyExpenses decimal.Decimal) (core.PlanResult, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return core.PlanResult{}, err
	}
	if g.TargetDate.IsZero() {
		return core.PlanResult{}, fmt.Errorf("goal %d has no target date: %w", id, core.ErrInvalidTargetDate)
	}

	now := s.now().UTC()
	remaining := g.Remaining()
	if !remaining.IsPositive() {
		if monthlyIncome.IsNegative() || monthlyExpenses.IsNegative() {
			return core.PlanResult{}, fmt.Errorf("monthly figures: %w", core.ErrInvalidAmount)
		}
		available := monthlyIncome.Sub(monthlyExpenses)
		return core.PlanResult{
			TargetAmount:         remaining,
			MonthsToTarget:       max(core.MonthsBetween(now, g.TargetDate.Time), 0),
			MonthlySavingsNeeded: decimal.Zero,
			AvailableForSavings:  available,
			Feasible:             true,
			AdditionalNeeded:     decimal.Zero,
			Surplus:              available,
			Recommendations:      []string{"You have already reached this goal."},
		}, nil
	}

	return core.Plan(core.PlanInput{
		TargetAmount:    remaining,
		TargetDate:      g.TargetDate.Time,
		MonthlyIncome:   monthlyIncome,
		MonthlyExpenses: monthlyExpenses,
	}, now)
}
