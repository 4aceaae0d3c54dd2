package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ledger.Store = (*SQLiteRepository)(nil)

// PendingSyncTransaction represents minimal data needed for sync queue messages
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) timestamp() string {
	return formatTime(r.now())
}

// notFound maps sql.ErrNoRows to ledger.ErrNotFound.
func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ledger.ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", what, id, err)
}

func (r *SQLiteRepository) execByID(ctx context.Context, query, what string, id int64) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s %d: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ledger.ErrNotFound)
	}
	return nil
}

// Transactions

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	now := r.timestamp()
	row := r.db.QueryRowContext(ctx, createTransaction,
		t.Amount, string(t.Kind), string(t.Category), t.Description, formatTime(t.OccurredAt),
		t.Recurring, string(t.Frequency), now, now)
	created, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", created.ID,
		"kind", created.Kind,
		"category", created.Category,
		"amount", created.Amount.String())
	return created, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, getTransaction, id))
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction", id)
	}
	return t, nil
}

// UpdateTransaction rewrites the record and queues it for sync again.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	row := r.db.QueryRowContext(ctx, updateTransaction,
		t.Amount, string(t.Kind), string(t.Category), t.Description, formatTime(t.OccurredAt),
		t.Recurring, string(t.Frequency), r.timestamp(), t.ID)
	updated, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "update transaction", t.ID)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteTransaction, "delete transaction", id)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, int, error) {
	f = f.Normalize()
	where, args := transactionWhere(f.Kind, f.Category, f.Window)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY occurred_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Limit, f.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	txs, err := collect(rows, scanTransaction)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}

func (r *SQLiteRepository) AllTransactions(ctx context.Context, w core.Window) ([]core.Transaction, error) {
	where, args := transactionWhere("", "", w)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY occurred_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("all transactions: %w", err)
	}
	txs, err := collect(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("all transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countTransactions).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// TransactionsRevision reads the counter bumped by the transactions
// triggers, so writes from other processes are visible too.
func (r *SQLiteRepository) TransactionsRevision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.db.QueryRowContext(ctx, transactionsRevision).Scan(&rev); err != nil {
		return 0, fmt.Errorf("transactions revision: %w", err)
	}
	return rev, nil
}

// GetPendingSyncTransactions returns transactions that still need to reach the spreadsheet.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var (
			p       PendingSyncTransaction
			created string
		)
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, ref string) error {
	if _, err := r.db.ExecContext(ctx, markTransactionSync, syncDone, ref, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id, "ref", ref)
	return nil
}

// MarkSyncError marks a transaction as having sync errors.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, markTransactionSync, syncError, "", id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// Recurring templates

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	row := r.db.QueryRowContext(ctx, createRecurring,
		rt.StartDate.Format(dateLayout), formatDate(rt.EndDate), string(rt.Every),
		string(rt.Kind), string(rt.Category), rt.Description, rt.Amount)
	created, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, listRecurring)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return collect(rows, scanRecurring)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteRecurring, "delete recurring transaction", id)
}

func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context, now time.Time) ([]core.RecurringTransaction, error) {
	today := now.UTC().Format(dateLayout)
	rows, err := r.db.QueryContext(ctx, listActiveRecurring, today, today)
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	return collect(rows, scanRecurring)
}

func (r *SQLiteRepository) MarkRecurringExecuted(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, markRecurringExecuted, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark recurring %d executed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark recurring %d executed: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// Goals

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	now := r.timestamp()
	row := r.db.QueryRowContext(ctx, createGoal,
		g.Name, g.TargetAmount, g.CurrentAmount, formatDate(g.TargetDate), g.Description, string(g.Status), now, now)
	created, err := scanGoal(row)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, getGoal, id))
	if err != nil {
		return core.SavingsGoal{}, notFound(err, "get goal", id)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	row := r.db.QueryRowContext(ctx, updateGoal,
		g.Name, g.TargetAmount, g.CurrentAmount, formatDate(g.TargetDate), g.Description, string(g.Status), r.timestamp(), g.ID)
	updated, err := scanGoal(row)
	if err != nil {
		return core.SavingsGoal{}, notFound(err, "update goal", g.ID)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteGoal, "delete goal", id)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, listGoals)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return collect(rows, scanGoal)
}

// Investments

func (r *SQLiteRepository) CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	if err := i.Validate(); err != nil {
		return core.Investment{}, err
	}
	row := r.db.QueryRowContext(ctx, createInvestment,
		i.Type, i.Amount, i.Date.Format(dateLayout), i.Status, r.timestamp())
	created, err := scanInvestment(row)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) GetInvestment(ctx context.Context, id int64) (core.Investment, error) {
	i, err := scanInvestment(r.db.QueryRowContext(ctx, getInvestment, id))
	if err != nil {
		return core.Investment{}, notFound(err, "get investment", id)
	}
	return i, nil
}

func (r *SQLiteRepository) UpdateInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	if err := i.Validate(); err != nil {
		return core.Investment{}, err
	}
	row := r.db.QueryRowContext(ctx, updateInvestment,
		i.Type, i.Amount, i.Date.Format(dateLayout), i.Status, i.ID)
	updated, err := scanInvestment(row)
	if err != nil {
		return core.Investment{}, notFound(err, "update investment", i.ID)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteInvestment, "delete investment", id)
}

func (r *SQLiteRepository) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	rows, err := r.db.QueryContext(ctx, listInvestments)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return collect(rows, scanInvestment)
}

// Reports

func (r *SQLiteRepository) CreateReport(ctx context.Context, rep core.Report) (core.Report, error) {
	if !rep.Type.Valid() {
		return core.Report{}, core.ErrInvalidReportType
	}
	summary, err := json.Marshal(rep.Summary)
	if err != nil {
		return core.Report{}, fmt.Errorf("encode report summary: %w", err)
	}
	generated := rep.GeneratedAt
	if generated.IsZero() {
		generated = r.now()
	}
	row := r.db.QueryRowContext(ctx, createReport,
		rep.Ref, string(rep.Type), formatTime(rep.PeriodStart), formatTime(rep.PeriodEnd), string(summary), formatTime(generated))
	created, err := scanReport(row)
	if err != nil {
		return core.Report{}, fmt.Errorf("create report: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) GetReport(ctx context.Context, id int64) (core.Report, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, getReport, id))
	if err != nil {
		return core.Report{}, notFound(err, "get report", id)
	}
	return rep, nil
}

func (r *SQLiteRepository) ListReports(ctx context.Context) ([]core.Report, error) {
	rows, err := r.db.QueryContext(ctx, listReports)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return collect(rows, scanReport)
}

// GetPendingReportExports returns reports not yet written to the spreadsheet.
func (r *SQLiteRepository) GetPendingReportExports(ctx context.Context, limit int) ([]core.Report, error) {
	rows, err := r.db.QueryContext(ctx, getPendingReportExports, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending report exports: %w", err)
	}
	return collect(rows, scanReport)
}

func (r *SQLiteRepository) MarkReportExported(ctx context.Context, id int64, ref string) error {
	if _, err := r.db.ExecContext(ctx, markReportSync, syncDone, ref, id); err != nil {
		return fmt.Errorf("mark report exported: %w", err)
	}
	slog.InfoContext(ctx, "Report marked as exported", "id", id, "ref", ref)
	return nil
}

func (r *SQLiteRepository) MarkReportExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, markReportSync, syncError, "", id); err != nil {
		return fmt.Errorf("mark report export error: %w", err)
	}
	slog.WarnContext(ctx, "Report marked with export error", "id", id)
	return nil
}

// Saved recommendations

func (r *SQLiteRepository) SaveRecommendation(ctx context.Context, rec core.SavedRecommendation) (core.SavedRecommendation, error) {
	if err := rec.Validate(); err != nil {
		return core.SavedRecommendation{}, err
	}
	now := r.timestamp()
	row := r.db.QueryRowContext(ctx, createRecommendation,
		string(rec.Kind), rec.Title, rec.Description, string(rec.Priority), rec.Implemented, now, now)
	created, err := scanRecommendation(row)
	if err != nil {
		return core.SavedRecommendation{}, fmt.Errorf("save recommendation: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) GetRecommendation(ctx context.Context, id int64) (core.SavedRecommendation, error) {
	rec, err := scanRecommendation(r.db.QueryRowContext(ctx, getRecommendation, id))
	if err != nil {
		return core.SavedRecommendation{}, notFound(err, "get recommendation", id)
	}
	return rec, nil
}

func (r *SQLiteRepository) UpdateRecommendation(ctx context.Context, rec core.SavedRecommendation) (core.SavedRecommendation, error) {
	if err := rec.Validate(); err != nil {
		return core.SavedRecommendation{}, err
	}
	row := r.db.QueryRowContext(ctx, updateRecommendation,
		string(rec.Kind), rec.Title, rec.Description, string(rec.Priority), rec.Implemented, r.timestamp(), rec.ID)
	updated, err := scanRecommendation(row)
	if err != nil {
		return core.SavedRecommendation{}, notFound(err, "update recommendation", rec.ID)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteRecommendation(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteRecommendation, "delete recommendation", id)
}

func (r *SQLiteRepository) ListRecommendations(ctx context.Context) ([]core.SavedRecommendation, error) {
	rows, err := r.db.QueryContext(ctx, listRecommendations)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return collect(rows, scanRecommendation)
}

// Splits

func (r *SQLiteRepository) CreateSplit(ctx context.Context, s core.Split) (core.Split, error) {
	participants, err := json.Marshal(s.Participants)
	if err != nil {
		return core.Split{}, fmt.Errorf("encode participants: %w", err)
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	row := r.db.QueryRowContext(ctx, createSplit,
		s.GroupID, s.PayerID, s.Amount, string(participants), s.Description, s.SharePerPerson, formatTime(created))
	out, err := scanSplit(row)
	if err != nil {
		return core.Split{}, fmt.Errorf("create split: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetSplit(ctx context.Context, id int64) (core.Split, error) {
	s, err := scanSplit(r.db.QueryRowContext(ctx, getSplit, id))
	if err != nil {
		return core.Split{}, notFound(err, "get split", id)
	}
	return s, nil
}

func (r *SQLiteRepository) UpdateSplit(ctx context.Context, s core.Split) (core.Split, error) {
	participants, err := json.Marshal(s.Participants)
	if err != nil {
		return core.Split{}, fmt.Errorf("encode participants: %w", err)
	}
	row := r.db.QueryRowContext(ctx, updateSplit,
		s.GroupID, s.PayerID, s.Amount, string(participants), s.Description, s.SharePerPerson, s.ID)
	updated, err := scanSplit(row)
	if err != nil {
		return core.Split{}, notFound(err, "update split", s.ID)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteSplit(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteSplit, "delete split", id)
}

func (r *SQLiteRepository) ListSplits(ctx context.Context, groupID string) ([]core.Split, error) {
	rows, err := r.db.QueryContext(ctx, listSplits, groupID, groupID)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	return collect(rows, scanSplit)
}

// Emergency funds

func (r *SQLiteRepository) CreateEmergencyFund(ctx context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error) {
	if err := f.Validate(); err != nil {
		return core.EmergencyFundRecord{}, err
	}
	ts := r.timestamp()
	row := r.db.QueryRowContext(ctx, createFund,
		f.TargetAmount, f.CurrentAmount, string(f.Status), ts, ts)
	created, err := scanFund(row)
	if err != nil {
		return core.EmergencyFundRecord{}, fmt.Errorf("create emergency fund: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) GetEmergencyFund(ctx context.Context, id int64) (core.EmergencyFundRecord, error) {
	f, err := scanFund(r.db.QueryRowContext(ctx, getFund, id))
	if err != nil {
		return core.EmergencyFundRecord{}, notFound(err, "get emergency fund", id)
	}
	return f, nil
}

func (r *SQLiteRepository) UpdateEmergencyFund(ctx context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error) {
	if err := f.Validate(); err != nil {
		return core.EmergencyFundRecord{}, err
	}
	row := r.db.QueryRowContext(ctx, updateFund,
		f.TargetAmount, f.CurrentAmount, string(f.Status), r.timestamp(), f.ID)
	updated, err := scanFund(row)
	if err != nil {
		return core.EmergencyFundRecord{}, notFound(err, "update emergency fund", f.ID)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteEmergencyFund(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteFund, "delete emergency fund", id)
}

func (r *SQLiteRepository) ListEmergencyFunds(ctx context.Context) ([]core.EmergencyFundRecord, error) {
	rows, err := r.db.QueryContext(ctx, listFunds)
	if err != nil {
		return nil, fmt.Errorf("list emergency funds: %w", err)
	}
	return collect(rows, scanFund)
}

// Health reports

func (r *SQLiteRepository) CreateHealthReport(ctx context.Context, h core.HealthReport) (core.HealthReport, error) {
	if err := h.Validate(); err != nil {
		return core.HealthReport{}, err
	}
	row := r.db.QueryRowContext(ctx, createHealthReport,
		h.ReportDate.Format(dateLayout), h.Score, h.Summary, r.timestamp())
	created, err := scanHealthReport(row)
	if err != nil {
		return core.HealthReport{}, fmt.Errorf("create health report: %w", err)
	}
	return created, nil
}

func (r *SQLiteRepository) GetHealthReport(ctx context.Context, id int64) (core.HealthReport, error) {
	h, err := scanHealthReport(r.db.QueryRowContext(ctx, getHealthReport, id))
	if err != nil {
		return core.HealthReport{}, notFound(err, "get health report", id)
	}
	return h, nil
}

func (r *SQLiteRepository) UpdateHealthReport(ctx context.Context, h core.HealthReport) (core.HealthReport, error) {
	if err := h.Validate(); err != nil {
		return core.HealthReport{}, err
	}
	row := r.db.QueryRowContext(ctx, updateHealthReport,
		h.ReportDate.Format(dateLayout), h.Score, h.Summary, h.ID)
	updated, err := scanHealthReport(row)
	if err != nil {
		return core.HealthReport{}, notFound(err, "update health report", h.ID)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteHealthReport(ctx context.Context, id int64) error {
	return r.execByID(ctx, deleteHealthReport, "delete health report", id)
}

func (r *SQLiteRepository) ListHealthReports(ctx context.Context) ([]core.HealthReport, error) {
	rows, err := r.db.QueryContext(ctx, listHealthReports)
	if err != nil {
		return nil, fmt.Errorf("list health reports: %w", err)
	}
	return collect(rows, scanHealthReport)
}
