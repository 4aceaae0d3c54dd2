// Package services orchestrates the finance backend: persistence through
// the ledger ports, sync jobs over AMQP and the shared summary cache.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"finadvisor/internal/amqp"
	"finadvisor/internal/cache"
	"finadvisor/internal/core"
	"finadvisor/internal/ledger"
)

// Publisher sends sync jobs to the worker. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.SyncMessage) error
}

var _ Publisher = (*amqp.Client)(nil)

// publish never fails the caller: the record is already stored and the
// sync worker picks up anything still pending.
func publish(ctx context.Context, p Publisher, msg *amqp.SyncMessage) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message",
			"type", msg.Type,
			"id", msg.ID)
		return
	}
	if err := p.Publish(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"type", msg.Type,
			"id", msg.ID,
			"error", err)
	}
}

// Page is one slice of a transaction listing.
type Page struct {
	Items []core.Transaction `json:"items"`
	Total int                `json:"total"`
	Skip  int                `json:"skip"`
	Limit int                `json:"limit"`
}

// TransactionService orchestrates transaction writes across the store,
// AMQP and the summary cache.
type TransactionService struct {
	store     ledger.TransactionStore
	publisher Publisher
	summaries cache.Cache[core.FinancialSummary]
}

// NewTransactionService wires the service. publisher and summaries may be nil.
func NewTransactionService(store ledger.TransactionStore, publisher Publisher, summaries cache.Cache[core.FinancialSummary]) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		summaries: summaries,
	}
}

// Create saves a transaction and publishes a sync job for it.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(ctx)
	publish(ctx, s.publisher, amqp.NewTransactionSyncMessage(created.ID))

	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"kind", created.Kind,
		"category", created.Category,
		"amount", created.Amount.String())
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// Update replaces a transaction and queues the new version for sync.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	s.invalidate(ctx)
	publish(ctx, s.publisher, amqp.NewTransactionSyncMessage(updated.ID))

	slog.InfoContext(ctx, "Transaction updated", "id", updated.ID)
	return updated, nil
}

// Delete removes a transaction. Rows already appended to the spreadsheet
// are left in place.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.invalidate(ctx)
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (s *TransactionService) List(ctx context.Context, f core.TransactionFilter) (Page, error) {
	if err := f.Window.Validate(); err != nil {
		return Page{}, err
	}
	f = f.Normalize()
	items, total, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list transactions: %w", err)
	}
	if items == nil {
		items = []core.Transaction{}
	}
	return Page{Items: items, Total: total, Skip: f.Skip, Limit: f.Limit}, nil
}

func (s *TransactionService) invalidate(ctx context.Context) {
	if s.summaries != nil {
		s.summaries.Purge(ctx)
	}
}
