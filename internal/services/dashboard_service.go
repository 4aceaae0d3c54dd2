package services

import (
	"context"
	"fmt"

	"finadvisor/internal/ledger"

	"golang.org/x/sync/errgroup"
)

// Dashboard holds record counts for the overview page.
type Dashboard struct {
	Goals        int `json:"total_goals"`
	Investments  int `json:"total_investments"`
	Transactions int `json:"total_transactions"`
	Reports      int `json:"total_reports"`
}

type DashboardService struct {
	store ledger.Store
}

func NewDashboardService(store ledger.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Counts runs the four lookups concurrently.
func (s *DashboardService) Counts(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		goals, err := s.store.ListGoals(gctx)
		if err != nil {
			return fmt.Errorf("count goals: %w", err)
		}
		d.Goals = len(goals)
		return nil
	})
	g.Go(func() error {
		inv, err := s.store.ListInvestments(gctx)
		if err != nil {
			return fmt.Errorf("count investments: %w", err)
		}
		d.Investments = len(inv)
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountTransactions(gctx)
		if err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		d.Transactions = n
		return nil
	})
	g.Go(func() error {
		reports, err := s.store.ListReports(gctx)
		if err != nil {
			return fmt.Errorf("count reports: %w", err)
		}
		d.Reports = len(reports)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
