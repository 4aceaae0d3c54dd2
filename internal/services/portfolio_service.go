package services

import (
	"context"
	"fmt"
	"log/slog"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"

	"github.com/shopspring/decimal"
)

type InvestmentService struct {
	store ledger.InvestmentStore
}

func NewInvestmentService(store ledger.InvestmentStore) *InvestmentService {
	return &InvestmentService{store: store}
}

func (s *InvestmentService) Create(ctx context.Context, i core.Investment) (core.Investment, error) {
	created, err := s.store.CreateInvestment(ctx, i)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	slog.InfoContext(ctx, "Investment recorded",
		"id", created.ID,
		"type", created.Type,
		"amount", created.Amount.String())
	return created, nil
}

func (s *InvestmentService) Get(ctx context.Context, id int64) (core.Investment, error) {
	i, err := s.store.GetInvestment(ctx, id)
	if err != nil {
		return core.Investment{}, fmt.Errorf("get investment %d: %w", id, err)
	}
	return i, nil
}

func (s *InvestmentService) Update(ctx context.Context, i core.Investment) (core.Investment, error) {
	updated, err := s.store.UpdateInvestment(ctx, i)
	if err != nil {
		return core.Investment{}, fmt.Errorf("update investment %d: %w", i.ID, err)
	}
	return updated, nil
}

func (s *InvestmentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteInvestment(ctx, id); err != nil {
		return fmt.Errorf("delete investment %d: %w", id, err)
	}
	return nil
}

func (s *InvestmentService) List(ctx context.Context) ([]core.Investment, error) {
	list, err := s.store.ListInvestments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return list, nil
}

// Total returns the portfolio value rounded to cents.
func (s *InvestmentService) Total(ctx context.Context) (decimal.Decimal, error) {
	list, err := s.List(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return core.PortfolioTotal(list), nil
}

// SplitService records shared expenses.
type SplitService struct {
	store ledger.SplitStore
}

func NewSplitService(store ledger.SplitStore) *SplitService {
	return &SplitService{store: store}
}

// Create computes each participant's share and stores the split.
func (s *SplitService) Create(ctx context.Context, groupID, payerID string, amount decimal.Decimal, participants []string, description string) (core.Split, error) {
	sp, err := core.NewSplit(groupID, payerID, amount, participants, description)
	if err != nil {
		return core.Split{}, err
	}
	created, err := s.store.CreateSplit(ctx, sp)
	if err != nil {
		return core.Split{}, fmt.Errorf("create split: %w", err)
	}
	slog.InfoContext(ctx, "Split created",
		"id", created.ID,
		"group_id", created.GroupID,
		"participants", len(created.Participants),
		"share", created.SharePerPerson.String())
	return created, nil
}

func (s *SplitService) Get(ctx context.Context, id int64) (core.Split, error) {
	sp, err := s.store.GetSplit(ctx, id)
	if err != nil {
		return core.Split{}, fmt.Errorf("get split %d: %w", id, err)
	}
	return sp, nil
}

// Update replaces a split and recomputes the per-person share.
func (s *SplitService) Update(ctx context.Context, id int64, groupID, payerID string, amount decimal.Decimal, participants []string, description string) (core.Split, error) {
	sp, err := core.NewSplit(groupID, payerID, amount, participants, description)
	if err != nil {
		return core.Split{}, err
	}
	sp.ID = id
	updated, err := s.store.UpdateSplit(ctx, sp)
	if err != nil {
		return core.Split{}, fmt.Errorf("update split %d: %w", id, err)
	}
	return updated, nil
}

func (s *SplitService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteSplit(ctx, id); err != nil {
		return fmt.Errorf("delete split %d: %w", id, err)
	}
	return nil
}

// List returns the splits of a group, or every split for an empty group id.
func (s *SplitService) List(ctx context.Context, groupID string) ([]core.Split, error) {
	list, err := s.store.ListSplits(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	return list, nil
}
