package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRepositoryTransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	at := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
	created, err := repo.CreateTransaction(ctx, core.Transaction{
		Amount: amount("19.99"), Kind: core.Expense, Category: core.Food, Description: "pizza", OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || !created.Amount.Equal(amount("19.99")) || !created.OccurredAt.Equal(at) {
		t.Fatalf("unexpected created row: %+v", created)
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != created.ID || pending[0].Version != 1 {
		t.Fatalf("unexpected pending rows: %+v err=%v", pending, err)
	}
	if err := repo.MarkSynced(ctx, created.ID, "2025 Transactions!A2:F2"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if pending, _ = repo.GetPendingSyncTransactions(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected no pending rows after sync, got %d", len(pending))
	}

	created.Recurring, created.Frequency = true, core.Monthly
	updated, err := repo.UpdateTransaction(ctx, created)
	if err != nil || !updated.Recurring || updated.Frequency != core.Monthly {
		t.Fatalf("unexpected update: %+v err=%v", updated, err)
	}
	pending, _ = repo.GetPendingSyncTransactions(ctx, 10)
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("update must queue a new sync version, got %+v", pending)
	}

	if err := repo.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRepositoryListTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		kind, cat := core.Expense, core.Transport
		if i%3 == 0 {
			kind, cat = core.Income, core.Salary
		}
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			Amount: amount("10"), Kind: kind, Category: cat, OccurredAt: base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	page, total, err := repo.ListTransactions(ctx, core.TransactionFilter{Limit: 4, Skip: 1})
	if err != nil || total != 6 || len(page) != 4 {
		t.Fatalf("page=%d total=%d err=%v", len(page), total, err)
	}
	if !page[0].OccurredAt.Equal(base.AddDate(0, 0, 4)) {
		t.Fatalf("expected newest-first order after skip, got %s", page[0].OccurredAt)
	}

	_, total, _ = repo.ListTransactions(ctx, core.TransactionFilter{Kind: core.Income})
	if total != 2 {
		t.Fatalf("income total=%d", total)
	}

	w := core.Window{Start: base.AddDate(0, 0, 2), End: base.AddDate(0, 0, 3)}
	all, err := repo.AllTransactions(ctx, w)
	if err != nil || len(all) != 2 {
		t.Fatalf("window rows=%d err=%v", len(all), err)
	}
	if n, _ := repo.CountTransactions(ctx); n != 6 {
		t.Fatalf("count=%d", n)
	}
}

func TestRepositoryTransactionsRevision(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	api, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open api repository: %v", err)
	}
	defer api.Close()
	worker, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open worker repository: %v", err)
	}
	defer worker.Close()

	rev := func() int64 {
		t.Helper()
		n, err := api.TransactionsRevision(ctx)
		if err != nil {
			t.Fatalf("revision: %v", err)
		}
		return n
	}

	start := rev()
	created, err := worker.CreateTransaction(ctx, core.Transaction{
		Amount: amount("1000"), Kind: core.Income, Category: core.Salary, OccurredAt: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	afterCreate := rev()
	if afterCreate <= start {
		t.Fatalf("insert from another connection must bump revision: %d -> %d", start, afterCreate)
	}

	if err := worker.MarkSynced(ctx, created.ID, "2025 Transactions!A2:F2"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if got := rev(); got != afterCreate {
		t.Fatalf("sync bookkeeping must not bump revision: %d -> %d", afterCreate, got)
	}

	created.Amount = amount("1100")
	if _, err := worker.UpdateTransaction(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	afterUpdate := rev()
	if afterUpdate <= afterCreate {
		t.Fatalf("update must bump revision: %d -> %d", afterCreate, afterUpdate)
	}

	if err := worker.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := rev(); got <= afterUpdate {
		t.Fatalf("delete must bump revision: %d -> %d", afterUpdate, got)
	}
}

func TestRepositoryRecurring(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	rt, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		StartDate:   core.NewDate(2025, 1, 1),
		Every:       core.Monthly,
		Kind:        core.Expense,
		Category:    core.Utilities,
		Description: "internet",
		Amount:      amount("29.90"),
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		StartDate:   core.NewDate(2024, 1, 1),
		EndDate:     core.NewDate(2024, 12, 31),
		Every:       core.Yearly,
		Kind:        core.Expense,
		Category:    core.Other,
		Description: "expired",
		Amount:      amount("1"),
	}); err != nil {
		t.Fatalf("create expired recurring: %v", err)
	}

	active, err := repo.ListActiveRecurring(ctx, time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	if err != nil || len(active) != 1 || active[0].ID != rt.ID {
		t.Fatalf("active=%+v err=%v", active, err)
	}

	at := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	if err := repo.MarkRecurringExecuted(ctx, rt.ID, at); err != nil {
		t.Fatalf("mark executed: %v", err)
	}
	all, _ := repo.ListRecurring(ctx)
	if len(all) != 2 || !all[0].LastExecution.Equal(at) || !all[1].LastExecution.IsZero() {
		t.Fatalf("unexpected templates: %+v", all)
	}
	if err := repo.MarkRecurringExecuted(ctx, 999, at); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryReportsAndExports(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	rep, err := repo.CreateReport(ctx, core.Report{
		Ref:         "ref-1",
		Type:        core.MonthlyReport,
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Summary: core.FinancialSummary{
			TotalIncome:       amount("100"),
			TotalExpenses:     amount("40"),
			NetIncome:         amount("60"),
			SavingsRate:       amount("60"),
			TransactionCount:  2,
			MonthlyTrend:      []core.MonthTrend{},
			CategoryBreakdown: []core.CategoryBreakdown{},
		},
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	got, err := repo.GetReport(ctx, rep.ID)
	if err != nil || got.Ref != "ref-1" || !got.Summary.NetIncome.Equal(amount("60")) || got.Summary.TransactionCount != 2 {
		t.Fatalf("unexpected report: %+v err=%v", got, err)
	}

	pending, _ := repo.GetPendingReportExports(ctx, 5)
	if len(pending) != 1 {
		t.Fatalf("expected one pending export, got %d", len(pending))
	}
	if err := repo.MarkReportExported(ctx, rep.ID, "2025 Reports!A2:I2"); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	if pending, _ = repo.GetPendingReportExports(ctx, 5); len(pending) != 0 {
		t.Fatalf("expected no pending exports, got %d", len(pending))
	}
}

func TestRepositoryGoalsRecommendationsSplits(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	g, err := repo.CreateGoal(ctx, core.SavingsGoal{Name: "house", TargetAmount: amount("50000"), TargetDate: core.NewDate(2030, 1, 1)})
	if err != nil || g.Status != core.GoalActive || g.TargetDate.String() != "2030-01-01" {
		t.Fatalf("unexpected goal: %+v err=%v", g, err)
	}
	g.CurrentAmount = amount("1000")
	g.Status = ""
	if g, err = repo.UpdateGoal(ctx, g); err != nil || g.Status != core.GoalActive || !g.CurrentAmount.Equal(amount("1000")) {
		t.Fatalf("unexpected update: %+v err=%v", g, err)
	}
	if _, err := repo.GetGoal(ctx, 42); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec, err := repo.SaveRecommendation(ctx, core.SavedRecommendation{Recommendation: core.Recommendation{
		Kind: core.SavingsAdvice, Title: "Save more", Description: "put aside 10%", Priority: core.High,
	}})
	if err != nil {
		t.Fatalf("save recommendation: %v", err)
	}
	rec.Implemented = true
	if rec, err = repo.UpdateRecommendation(ctx, rec); err != nil || !rec.Implemented {
		t.Fatalf("unexpected recommendation: %+v err=%v", rec, err)
	}

	sp, _ := core.NewSplit("trip", "ann", amount("90"), []string{"ann", "ben", "cid"}, "hotel")
	if _, err := repo.CreateSplit(ctx, sp); err != nil {
		t.Fatalf("create split: %v", err)
	}
	splits, err := repo.ListSplits(ctx, "trip")
	if err != nil || len(splits) != 1 || len(splits[0].Participants) != 3 || !splits[0].SharePerPerson.Equal(amount("30")) {
		t.Fatalf("unexpected splits: %+v err=%v", splits, err)
	}
	if other, _ := repo.ListSplits(ctx, "flat"); len(other) != 0 {
		t.Fatalf("expected no splits for other group")
	}
	edited, _ := core.NewSplit("trip", "ben", amount("100"), []string{"ann", "ben"}, "hotel and taxi")
	edited.ID = splits[0].ID
	got, err := repo.UpdateSplit(ctx, edited)
	if err != nil || got.PayerID != "ben" || len(got.Participants) != 2 || !got.SharePerPerson.Equal(amount("50")) {
		t.Fatalf("unexpected split update: %+v err=%v", got, err)
	}
	if !got.CreatedAt.Equal(splits[0].CreatedAt) {
		t.Fatalf("update must keep created_at: %v vs %v", got.CreatedAt, splits[0].CreatedAt)
	}
	if got, err = repo.GetSplit(ctx, edited.ID); err != nil || got.Description != "hotel and taxi" {
		t.Fatalf("unexpected split: %+v err=%v", got, err)
	}
	if err := repo.DeleteSplit(ctx, edited.ID); err != nil {
		t.Fatalf("delete split: %v", err)
	}
	if _, err := repo.GetSplit(ctx, edited.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.UpdateSplit(ctx, edited); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update of deleted split, got %v", err)
	}

	inv, err := repo.CreateInvestment(ctx, core.Investment{Type: "etf", Amount: amount("250"), Date: core.NewDate(2025, 5, 1)})
	if err != nil {
		t.Fatalf("create investment: %v", err)
	}
	inv.Amount, inv.Status = amount("300.50"), "open"
	if inv, err = repo.UpdateInvestment(ctx, inv); err != nil || !inv.Amount.Equal(amount("300.50")) || inv.Status != "open" {
		t.Fatalf("unexpected investment update: %+v err=%v", inv, err)
	}
	if _, err := repo.UpdateInvestment(ctx, core.Investment{ID: 999, Type: "bond", Date: core.NewDate(2025, 1, 1)}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteInvestment(ctx, inv.ID); err != nil {
		t.Fatalf("delete investment: %v", err)
	}
	if list, _ := repo.ListInvestments(ctx); len(list) != 0 {
		t.Fatalf("expected empty portfolio")
	}
}

func TestRepositoryEmergencyFundsAndHealthReports(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	f, err := repo.CreateEmergencyFund(ctx, core.EmergencyFundRecord{TargetAmount: amount("6000")})
	if err != nil || f.Status != core.FundActive || !f.CurrentAmount.IsZero() {
		t.Fatalf("unexpected fund: %+v err=%v", f, err)
	}
	f.CurrentAmount, f.Status = amount("6000"), core.FundCompleted
	if f, err = repo.UpdateEmergencyFund(ctx, f); err != nil || f.Status != core.FundCompleted || !f.CurrentAmount.Equal(amount("6000")) {
		t.Fatalf("unexpected fund update: %+v err=%v", f, err)
	}
	f.Status = ""
	if f, err = repo.UpdateEmergencyFund(ctx, f); err != nil || f.Status != core.FundCompleted {
		t.Fatalf("empty status must keep the stored one: %+v err=%v", f, err)
	}
	if funds, _ := repo.ListEmergencyFunds(ctx); len(funds) != 1 || funds[0].ID != f.ID {
		t.Fatalf("unexpected funds: %+v", funds)
	}
	if err := repo.DeleteEmergencyFund(ctx, f.ID); err != nil {
		t.Fatalf("delete fund: %v", err)
	}
	if _, err := repo.GetEmergencyFund(ctx, f.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	older, err := repo.CreateHealthReport(ctx, core.HealthReport{ReportDate: core.NewDate(2025, 3, 31), Score: 61})
	if err != nil {
		t.Fatalf("create health report: %v", err)
	}
	newer, err := repo.CreateHealthReport(ctx, core.HealthReport{ReportDate: core.NewDate(2025, 6, 30), Score: 74.5, Summary: "better"})
	if err != nil {
		t.Fatalf("create health report: %v", err)
	}
	reports, err := repo.ListHealthReports(ctx)
	if err != nil || len(reports) != 2 || reports[0].ID != newer.ID || reports[0].Score != 74.5 {
		t.Fatalf("expected newest report first: %+v err=%v", reports, err)
	}
	older.Score, older.Summary = 65, "revised"
	if older, err = repo.UpdateHealthReport(ctx, older); err != nil || older.Score != 65 || older.ReportDate.String() != "2025-03-31" {
		t.Fatalf("unexpected health report update: %+v err=%v", older, err)
	}
	if _, err := repo.CreateHealthReport(ctx, core.HealthReport{ReportDate: core.NewDate(2025, 1, 1), Score: 101}); !errors.Is(err, core.ErrInvalidScore) {
		t.Fatalf("expected ErrInvalidScore, got %v", err)
	}
	if err := repo.DeleteHealthReport(ctx, 999); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
