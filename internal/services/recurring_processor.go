package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"
)

// RecurringService manages recurring transaction templates.
type RecurringService struct {
	store ledger.RecurringStore
}

func NewRecurringService(store ledger.RecurringStore) *RecurringService {
	return &RecurringService{store: store}
}

func (s *RecurringService) Create(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	created, err := s.store.CreateRecurring(ctx, rt)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	slog.InfoContext(ctx, "Recurring transaction created",
		"id", created.ID,
		"every", created.Every,
		"amount", created.Amount.String())
	return created, nil
}

func (s *RecurringService) List(ctx context.Context) ([]core.RecurringTransaction, error) {
	list, err := s.store.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return list, nil
}

func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring transaction %d: %w", id, err)
	}
	return nil
}

// RecurringProcessor materialises due recurring templates into transactions.
type RecurringProcessor struct {
	store        ledger.RecurringStore
	transactions *TransactionService
}

func NewRecurringProcessor(store ledger.RecurringStore, transactions *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		store:        store,
		transactions: transactions,
	}
}

// ProcessDue creates one transaction for every active template that is due
// at now and returns how many were created. A failing template is logged
// and skipped.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, errors.New("processor not properly initialized")
	}

	templates, err := p.store.ListActiveRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("get active recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rt := range templates {
		checker, err := GetDuenessChecker(rt.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check if template is due",
				"id", rt.ID,
				"error", err)
			continue
		}
		if !checker.IsDue(rt.LastExecution, now, rt.StartDate) {
			continue
		}

		t, err := p.transactions.Create(ctx, rt.Instantiate(now))
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				"recurring_id", rt.ID,
				"description", rt.Description,
				"error", err)
			continue
		}

		// the transaction exists; a failed mark means a duplicate on the next run
		if err := p.store.MarkRecurringExecuted(ctx, rt.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update last execution date",
				"recurring_id", rt.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", rt.ID,
			"transaction_id", t.ID,
			"amount", rt.Amount.String(),
			"frequency", rt.Every)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(templates))
	return processed, nil
}
