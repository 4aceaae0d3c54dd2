// Package ledger declares the storage and export ports of the finance
// backend. Implementations live in the memory, google and storage packages.
package ledger

import (
	"context"
	"errors"
	"time"

	"finadvisor/internal/core"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
		// ListTransactions returns one page, newest first, and the total
		// number of matching records.
		ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, int, error)
		// AllTransactions returns every transaction inside the window.
		AllTransactions(ctx context.Context, w core.Window) ([]core.Transaction, error)
		CountTransactions(ctx context.Context) (int, error)
		// TransactionsRevision changes whenever any process writes a
		// transaction. Cached aggregates are keyed by it.
		TransactionsRevision(ctx context.Context) (int64, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error)
		UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		DeleteGoal(ctx context.Context, id int64) error
		ListGoals(ctx context.Context) ([]core.SavingsGoal, error)
	}

	InvestmentStore interface {
		CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error)
		GetInvestment(ctx context.Context, id int64) (core.Investment, error)
		UpdateInvestment(ctx context.Context, i core.Investment) (core.Investment, error)
		DeleteInvestment(ctx context.Context, id int64) error
		ListInvestments(ctx context.Context) ([]core.Investment, error)
	}

	ReportStore interface {
		CreateReport(ctx context.Context, r core.Report) (core.Report, error)
		GetReport(ctx context.Context, id int64) (core.Report, error)
		ListReports(ctx context.Context) ([]core.Report, error)
	}

	RecommendationStore interface {
		SaveRecommendation(ctx context.Context, r core.SavedRecommendation) (core.SavedRecommendation, error)
		GetRecommendation(ctx context.Context, id int64) (core.SavedRecommendation, error)
		UpdateRecommendation(ctx context.Context, r core.SavedRecommendation) (core.SavedRecommendation, error)
		DeleteRecommendation(ctx context.Context, id int64) error
		ListRecommendations(ctx context.Context) ([]core.SavedRecommendation, error)
	}

	SplitStore interface {
		CreateSplit(ctx context.Context, s core.Split) (core.Split, error)
		GetSplit(ctx context.Context, id int64) (core.Split, error)
		UpdateSplit(ctx context.Context, s core.Split) (core.Split, error)
		DeleteSplit(ctx context.Context, id int64) error
		// ListSplits returns splits of one group, or all splits when groupID is empty.
		ListSplits(ctx context.Context, groupID string) ([]core.Split, error)
	}

	EmergencyFundStore interface {
		CreateEmergencyFund(ctx context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error)
		GetEmergencyFund(ctx context.Context, id int64) (core.EmergencyFundRecord, error)
		UpdateEmergencyFund(ctx context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error)
		DeleteEmergencyFund(ctx context.Context, id int64) error
		ListEmergencyFunds(ctx context.Context) ([]core.EmergencyFundRecord, error)
	}

	HealthReportStore interface {
		CreateHealthReport(ctx context.Context, h core.HealthReport) (core.HealthReport, error)
		GetHealthReport(ctx context.Context, id int64) (core.HealthReport, error)
		UpdateHealthReport(ctx context.Context, h core.HealthReport) (core.HealthReport, error)
		DeleteHealthReport(ctx context.Context, id int64) error
		// ListHealthReports returns reports newest report date first.
		ListHealthReports(ctx context.Context) ([]core.HealthReport, error)
	}

	RecurringStore interface {
		CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error)
		ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
		DeleteRecurring(ctx context.Context, id int64) error
		// ListActiveRecurring returns templates whose date range covers now.
		ListActiveRecurring(ctx context.Context, now time.Time) ([]core.RecurringTransaction, error)
		MarkRecurringExecuted(ctx context.Context, id int64, at time.Time) error
	}

	// Exporter pushes records to an external spreadsheet.
	Exporter interface {
		ExportTransaction(ctx context.Context, t core.Transaction) (ref string, err error)
		ExportReport(ctx context.Context, r core.Report) (ref string, err error)
	}

	// Store is the full persistence surface used by the HTTP API.
	Store interface {
		TransactionStore
		GoalStore
		InvestmentStore
		ReportStore
		RecommendationStore
		SplitStore
		EmergencyFundStore
		HealthReportStore
		RecurringStore
	}
)
