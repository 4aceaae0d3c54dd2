package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finadvisor/internal/amqp"
	"finadvisor/internal/cache"
	"finadvisor/internal/core"
	"finadvisor/internal/ledger"

	"github.com/google/uuid"
)

// ReportService computes summaries and analyses and persists reports.
type ReportService struct {
	transactions ledger.TransactionStore
	reports      ledger.ReportStore
	publisher    Publisher
	summaries    cache.Cache[core.FinancialSummary]
	now          func() time.Time
}

func NewReportService(transactions ledger.TransactionStore, reports ledger.ReportStore, publisher Publisher, summaries cache.Cache[core.FinancialSummary]) *ReportService {
	return &ReportService{
		transactions: transactions,
		reports:      reports,
		publisher:    publisher,
		summaries:    summaries,
		now:          time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// summaryKey identifies a window at a ledger revision; open bounds are "-".
func summaryKey(rev int64, w core.Window) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("r%d:%s_%s", rev, bound(w.Start), bound(w.End))
}

// Summary aggregates every stored transaction inside the window. Cached
// results are keyed by the store revision, so a write made by another
// process misses the cache as well.
func (s *ReportService) Summary(ctx context.Context, w core.Window) (core.FinancialSummary, error) {
	if err := w.Validate(); err != nil {
		return core.FinancialSummary{}, err
	}

	useCache := s.summaries != nil
	var key string
	if useCache {
		rev, err := s.transactions.TransactionsRevision(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read ledger revision, bypassing summary cache", "error", err)
			useCache = false
		}
		key = summaryKey(rev, w)
	}
	if useCache {
		if sum, ok := s.summaries.Get(ctx, key); ok {
			slog.DebugContext(ctx, "Summary cache hit", "key", key)
			return sum, nil
		}
	}

	txs, err := s.transactions.AllTransactions(ctx, w)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("load transactions: %w", err)
	}
	sum := core.Aggregate(txs, w)

	if useCache {
		s.summaries.Set(ctx, key, sum)
	}
	return sum, nil
}

func (s *ReportService) Spending(ctx context.Context, months int) (core.SpendingAnalysis, error) {
	now := s.now()
	w, err := core.AnalysisWindow(months, now)
	if err != nil {
		return core.SpendingAnalysis{}, err
	}
	txs, err := s.transactions.AllTransactions(ctx, w)
	if err != nil {
		return core.SpendingAnalysis{}, fmt.Errorf("load transactions: %w", err)
	}
	return core.AnalyzeSpending(txs, months, now)
}

func (s *ReportService) Income(ctx context.Context, months int) (core.IncomeAnalysis, error) {
	now := s.now()
	w, err := core.AnalysisWindow(months, now)
	if err != nil {
		return core.IncomeAnalysis{}, err
	}
	txs, err := s.transactions.AllTransactions(ctx, w)
	if err != nil {
		return core.IncomeAnalysis{}, fmt.Errorf("load transactions: %w", err)
	}
	return core.AnalyzeIncome(txs, months, now)
}

// Generate summarises the report period, stores the result under a fresh
// reference and queues it for export.
func (s *ReportService) Generate(ctx context.Context, rt core.ReportType, custom core.Window) (core.Report, error) {
	now := s.now()
	period, err := core.ReportPeriod(rt, now, custom)
	if err != nil {
		return core.Report{}, err
	}

	txs, err := s.transactions.AllTransactions(ctx, period)
	if err != nil {
		return core.Report{}, fmt.Errorf("load transactions: %w", err)
	}

	report, err := s.reports.CreateReport(ctx, core.Report{
		Ref:         uuid.NewString(),
		Type:        rt,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Summary:     core.Aggregate(txs, period),
		GeneratedAt: now,
	})
	if err != nil {
		return core.Report{}, fmt.Errorf("save report: %w", err)
	}
	publish(ctx, s.publisher, amqp.NewReportExportMessage(report.ID))

	slog.InfoContext(ctx, "Report generated",
		"id", report.ID,
		"ref", report.Ref,
		"type", report.Type,
		"transactions", report.Summary.TransactionCount)
	return report, nil
}

func (s *ReportService) Get(ctx context.Context, id int64) (core.Report, error) {
	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return core.Report{}, fmt.Errorf("get report %d: %w", id, err)
	}
	return r, nil
}

func (s *ReportService) List(ctx context.Context) ([]core.Report, error) {
	list, err := s.reports.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return list, nil
}
