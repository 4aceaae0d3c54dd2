package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finadvisor/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Times are stored as fixed-width UTC text so that lexical order matches
// chronological order.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout = "2006-01-02"
)

// Values of the sync_status columns. New rows start as pending.
const (
	syncDone  = "synced"
	syncError = "error"
)

const transactionColumns = `id, amount, kind, category, description, occurred_at, is_recurring, recurring_frequency, created_at, updated_at`

const (
	createTransaction = `INSERT INTO transactions (amount, kind, category, description, occurred_at, is_recurring, recurring_frequency, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

	getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	updateTransaction = `UPDATE transactions
SET amount = ?, kind = ?, category = ?, description = ?, occurred_at = ?, is_recurring = ?, recurring_frequency = ?,
    updated_at = ?, version = version + 1, sync_status = 'pending'
WHERE id = ?
RETURNING ` + transactionColumns

	deleteTransaction = `DELETE FROM transactions WHERE id = ?`

	countTransactions = `SELECT COUNT(*) FROM transactions`

	transactionsRevision = `SELECT revision FROM ledger_revision WHERE id = 1`

	getPendingSyncTransactions = `SELECT id, version, created_at FROM transactions
WHERE sync_status = 'pending'
ORDER BY created_at ASC
LIMIT ?`

	markTransactionSync = `UPDATE transactions SET sync_status = ?, sync_ref = ? WHERE id = ?`
)

const recurringColumns = `id, start_date, end_date, every, kind, category, description, amount, last_execution`

const (
	createRecurring = `INSERT INTO recurring_transactions (start_date, end_date, every, kind, category, description, amount)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + recurringColumns

	listRecurring = `SELECT ` + recurringColumns + ` FROM recurring_transactions ORDER BY id`

	listActiveRecurring = `SELECT ` + recurringColumns + ` FROM recurring_transactions
WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
ORDER BY id`

	deleteRecurring = `DELETE FROM recurring_transactions WHERE id = ?`

	markRecurringExecuted = `UPDATE recurring_transactions SET last_execution = ? WHERE id = ?`
)

const goalColumns = `id, name, target_amount, current_amount, target_date, description, status, created_at, updated_at`

const (
	createGoal = `INSERT INTO savings_goals (name, target_amount, current_amount, target_date, description, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + goalColumns

	getGoal = `SELECT ` + goalColumns + ` FROM savings_goals WHERE id = ?`

	updateGoal = `UPDATE savings_goals
SET name = ?, target_amount = ?, current_amount = ?, target_date = ?, description = ?, status = COALESCE(NULLIF(?, ''), status), updated_at = ?
WHERE id = ?
RETURNING ` + goalColumns

	deleteGoal = `DELETE FROM savings_goals WHERE id = ?`

	listGoals = `SELECT ` + goalColumns + ` FROM savings_goals ORDER BY id`
)

const investmentColumns = `id, type, amount, date, status, created_at`

const (
	createInvestment = `INSERT INTO investments (type, amount, date, status, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + investmentColumns

	getInvestment = `SELECT ` + investmentColumns + ` FROM investments WHERE id = ?`

	updateInvestment = `UPDATE investments
SET type = ?, amount = ?, date = ?, status = ?
WHERE id = ?
RETURNING ` + investmentColumns

	deleteInvestment = `DELETE FROM investments WHERE id = ?`

	listInvestments = `SELECT ` + investmentColumns + ` FROM investments ORDER BY id`
)

const reportColumns = `id, ref, report_type, period_start, period_end, summary, generated_at`

const (
	createReport = `INSERT INTO reports (ref, report_type, period_start, period_end, summary, generated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + reportColumns

	getReport = `SELECT ` + reportColumns + ` FROM reports WHERE id = ?`

	listReports = `SELECT ` + reportColumns + ` FROM reports ORDER BY generated_at DESC, id DESC`

	getPendingReportExports = `SELECT ` + reportColumns + ` FROM reports
WHERE sync_status = 'pending'
ORDER BY generated_at ASC
LIMIT ?`

	markReportSync = `UPDATE reports SET sync_status = ?, sync_ref = ? WHERE id = ?`
)

const recommendationColumns = `id, kind, title, description, priority, is_implemented, created_at, updated_at`

const (
	createRecommendation = `INSERT INTO saved_recommendations (kind, title, description, priority, is_implemented, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + recommendationColumns

	getRecommendation = `SELECT ` + recommendationColumns + ` FROM saved_recommendations WHERE id = ?`

	updateRecommendation = `UPDATE saved_recommendations
SET kind = ?, title = ?, description = ?, priority = ?, is_implemented = ?, updated_at = ?
WHERE id = ?
RETURNING ` + recommendationColumns

	deleteRecommendation = `DELETE FROM saved_recommendations WHERE id = ?`

	listRecommendations = `SELECT ` + recommendationColumns + ` FROM saved_recommendations ORDER BY id`
)

const splitColumns = `id, group_id, payer_id, amount, participants, description, share_per_person, created_at`

const (
	createSplit = `INSERT INTO splits (group_id, payer_id, amount, participants, description, share_per_person, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + splitColumns

	getSplit = `SELECT ` + splitColumns + ` FROM splits WHERE id = ?`

	updateSplit = `UPDATE splits
SET group_id = ?, payer_id = ?, amount = ?, participants = ?, description = ?, share_per_person = ?
WHERE id = ?
RETURNING ` + splitColumns

	deleteSplit = `DELETE FROM splits WHERE id = ?`

	listSplits = `SELECT ` + splitColumns + ` FROM splits WHERE (? = '' OR group_id = ?) ORDER BY id`
)

const fundColumns = `id, target_amount, current_amount, status, created_at, updated_at`

const (
	createFund = `INSERT INTO emergency_funds (target_amount, current_amount, status, created_at, updated_at)
VALUES (?, ?, COALESCE(NULLIF(?, ''), 'active'), ?, ?)
RETURNING ` + fundColumns

	getFund = `SELECT ` + fundColumns + ` FROM emergency_funds WHERE id = ?`

	updateFund = `UPDATE emergency_funds
SET target_amount = ?, current_amount = ?, status = COALESCE(NULLIF(?, ''), status), updated_at = ?
WHERE id = ?
RETURNING ` + fundColumns

	deleteFund = `DELETE FROM emergency_funds WHERE id = ?`

	listFunds = `SELECT ` + fundColumns + ` FROM emergency_funds ORDER BY id`
)

const healthReportColumns = `id, report_date, score, summary, created_at`

const (
	createHealthReport = `INSERT INTO health_reports (report_date, score, summary, created_at)
VALUES (?, ?, ?, ?)
RETURNING ` + healthReportColumns

	getHealthReport = `SELECT ` + healthReportColumns + ` FROM health_reports WHERE id = ?`

	updateHealthReport = `UPDATE health_reports
SET report_date = ?, score = ?, summary = ?
WHERE id = ?
RETURNING ` + healthReportColumns

	deleteHealthReport = `DELETE FROM health_reports WHERE id = ?`

	listHealthReports = `SELECT ` + healthReportColumns + ` FROM health_reports ORDER BY report_date DESC, id DESC`
)

// transactionWhere builds the WHERE clause shared by list and count queries.
func transactionWhere(kind core.Kind, cat core.Category, w core.Window) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(kind))
	}
	if cat != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(cat))
	}
	if !w.Start.IsZero() {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, formatTime(w.Start))
	}
	if !w.End.IsZero() {
		clauses = append(clauses, "occurred_at <= ?")
		args = append(args, formatTime(w.End))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return parseTime(s.String)
}

func formatDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(dateLayout), Valid: true}
}

func nullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                          core.Transaction
		kind, cat, freq            string
		occurred, created, updated string
		recurring                  bool
	)
	if err := row.Scan(&t.ID, &t.Amount, &kind, &cat, &t.Description, &occurred, &recurring, &freq, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	t.Kind, t.Category, t.Frequency, t.Recurring = core.Kind(kind), core.Category(cat), core.Frequency(freq), recurring
	var err error
	if t.OccurredAt, err = parseTime(occurred); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func scanRecurring(row scanner) (core.RecurringTransaction, error) {
	var (
		rt               core.RecurringTransaction
		start            string
		end, last        sql.NullString
		every, kind, cat string
	)
	if err := row.Scan(&rt.ID, &start, &end, &every, &kind, &cat, &rt.Description, &rt.Amount, &last); err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.Every, rt.Kind, rt.Category = core.Frequency(every), core.Kind(kind), core.Category(cat)
	var err error
	if rt.StartDate, err = core.ParseDate(start); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.EndDate, err = nullDate(end); err != nil {
		return core.RecurringTransaction{}, err
	}
	if rt.LastExecution, err = nullTime(last); err != nil {
		return core.RecurringTransaction{}, err
	}
	return rt, nil
}

func scanGoal(row scanner) (core.SavingsGoal, error) {
	var (
		g                core.SavingsGoal
		target           sql.NullString
		status           string
		created, updated string
	)
	if err := row.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &target, &g.Description, &status, &created, &updated); err != nil {
		return core.SavingsGoal{}, err
	}
	g.Status = core.GoalStatus(status)
	var err error
	if g.TargetDate, err = nullDate(target); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.UpdatedAt, err = parseTime(updated); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

func scanInvestment(row scanner) (core.Investment, error) {
	var (
		i             core.Investment
		date, created string
	)
	if err := row.Scan(&i.ID, &i.Type, &i.Amount, &date, &i.Status, &created); err != nil {
		return core.Investment{}, err
	}
	var err error
	if i.Date, err = core.ParseDate(date); err != nil {
		return core.Investment{}, err
	}
	if i.CreatedAt, err = parseTime(created); err != nil {
		return core.Investment{}, err
	}
	return i, nil
}

func scanReport(row scanner) (core.Report, error) {
	var (
		r                                 core.Report
		rtype, start, end, sum, generated string
	)
	if err := row.Scan(&r.ID, &r.Ref, &rtype, &start, &end, &sum, &generated); err != nil {
		return core.Report{}, err
	}
	r.Type = core.ReportType(rtype)
	if err := json.Unmarshal([]byte(sum), &r.Summary); err != nil {
		return core.Report{}, fmt.Errorf("decode report summary: %w", err)
	}
	var err error
	if r.PeriodStart, err = parseTime(start); err != nil {
		return core.Report{}, err
	}
	if r.PeriodEnd, err = parseTime(end); err != nil {
		return core.Report{}, err
	}
	if r.GeneratedAt, err = parseTime(generated); err != nil {
		return core.Report{}, err
	}
	return r, nil
}

func scanRecommendation(row scanner) (core.SavedRecommendation, error) {
	var (
		r                core.SavedRecommendation
		kind, priority   string
		created, updated string
	)
	if err := row.Scan(&r.ID, &kind, &r.Title, &r.Description, &priority, &r.Implemented, &created, &updated); err != nil {
		return core.SavedRecommendation{}, err
	}
	r.Kind, r.Priority = core.RecommendationKind(kind), core.Priority(priority)
	var err error
	if r.CreatedAt, err = parseTime(created); err != nil {
		return core.SavedRecommendation{}, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return core.SavedRecommendation{}, err
	}
	return r, nil
}

func scanSplit(row scanner) (core.Split, error) {
	var (
		s                     core.Split
		participants, created string
	)
	if err := row.Scan(&s.ID, &s.GroupID, &s.PayerID, &s.Amount, &participants, &s.Description, &s.SharePerPerson, &created); err != nil {
		return core.Split{}, err
	}
	if err := json.Unmarshal([]byte(participants), &s.Participants); err != nil {
		return core.Split{}, fmt.Errorf("decode split participants: %w", err)
	}
	var err error
	if s.CreatedAt, err = parseTime(created); err != nil {
		return core.Split{}, err
	}
	return s, nil
}

func scanFund(row scanner) (core.EmergencyFundRecord, error) {
	var (
		f                core.EmergencyFundRecord
		status           string
		created, updated string
	)
	if err := row.Scan(&f.ID, &f.TargetAmount, &f.CurrentAmount, &status, &created, &updated); err != nil {
		return core.EmergencyFundRecord{}, err
	}
	f.Status = core.FundStatus(status)
	var err error
	if f.CreatedAt, err = parseTime(created); err != nil {
		return core.EmergencyFundRecord{}, err
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return core.EmergencyFundRecord{}, err
	}
	return f, nil
}

func scanHealthReport(row scanner) (core.HealthReport, error) {
	var (
		h             core.HealthReport
		date, created string
	)
	if err := row.Scan(&h.ID, &date, &h.Score, &h.Summary, &created); err != nil {
		return core.HealthReport{}, err
	}
	var err error
	if h.ReportDate, err = core.ParseDate(date); err != nil {
		return core.HealthReport{}, err
	}
	if h.CreatedAt, err = parseTime(created); err != nil {
		return core.HealthReport{}, err
	}
	return h, nil
}

// collect drains rows with the given scan function.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
