// Package memory is an in-process implementation of the ledger ports, used
// for local development and as the test double of the HTTP layer.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/ledger"
)

// SeedFile is read by NewFromFiles. Each line is
// "YYYY-MM-DD;kind;category;amount;description". Blank lines and lines
// starting with # are ignored.
const SeedFile = "seed_transactions.txt"

type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	lastID  int64
	txRev   int64
	txs     map[int64]core.Transaction
	goals   map[int64]core.SavingsGoal
	invs    map[int64]core.Investment
	reports map[int64]core.Report
	recs    map[int64]core.SavedRecommendation
	splits  map[int64]core.Split
	funds   map[int64]core.EmergencyFundRecord
	health  map[int64]core.HealthReport
	recur   map[int64]core.RecurringTransaction
	// exported counts rows written through the Exporter port.
	exported int
}

var (
	_ ledger.Store    = (*Store)(nil)
	_ ledger.Exporter = (*Store)(nil)
)

func New() *Store {
	return &Store{
		now:     time.Now,
		txs:     map[int64]core.Transaction{},
		goals:   map[int64]core.SavingsGoal{},
		invs:    map[int64]core.Investment{},
		reports: map[int64]core.Report{},
		recs:    map[int64]core.SavedRecommendation{},
		splits:  map[int64]core.Split{},
		funds:   map[int64]core.EmergencyFundRecord{},
		health:  map[int64]core.HealthReport{},
		recur:   map[int64]core.RecurringTransaction{},
	}
}

// NewFromFiles creates a store seeded with the transactions listed in
// base/seed_transactions.txt. Malformed lines are logged and skipped.
func NewFromFiles(base string) *Store {
	s := New()
	path := filepath.Join(base, SeedFile)
	seeded := 0
	for _, line := range readLines(path) {
		t, err := parseSeedLine(line.text)
		if err == nil {
			_, err = s.CreateTransaction(context.Background(), t)
		}
		if err != nil {
			slog.Warn("Skipping seed line", "file", path, "line", line.n, "error", err)
			continue
		}
		seeded++
	}
	if seeded > 0 {
		slog.Info("Successfully seeded memory store", "file", path, "transactions", seeded)
	}
	return s
}

// WithClock overrides the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t.ID = s.nextID()
	t.CreatedAt, t.UpdatedAt = now, now
	s.txs[t.ID] = t
	s.txRev++
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.txs[t.ID]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = s.now().UTC()
	s.txs[t.ID] = t
	s.txRev++
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.txs, id)
	s.txRev++
	return nil
}

func (s *Store) ListTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, int, error) {
	f = f.Normalize()
	s.mu.Lock()
	matched := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if f.Match(t) {
			matched = append(matched, t)
		}
	}
	s.mu.Unlock()

	sortNewestFirst(matched)
	total := len(matched)
	if f.Skip >= total {
		return []core.Transaction{}, total, nil
	}
	end := f.Skip + f.Limit
	if end > total {
		end = total
	}
	return matched[f.Skip:end], total, nil
}

func (s *Store) AllTransactions(_ context.Context, w core.Window) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if w.Contains(t.OccurredAt) {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) CountTransactions(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs), nil
}

func (s *Store) TransactionsRevision(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txRev, nil
}

func sortNewestFirst(txs []core.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].OccurredAt.Equal(txs[j].OccurredAt) {
			return txs[i].OccurredAt.After(txs[j].OccurredAt)
		}
		return txs[i].ID > txs[j].ID
	})
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	g.ID = s.nextID()
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	g.CreatedAt, g.UpdatedAt = now, now
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, id int64) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return core.SavingsGoal{}, ledger.ErrNotFound
	}
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.goals[g.ID]
	if !ok {
		return core.SavingsGoal{}, ledger.ErrNotFound
	}
	if g.Status == "" {
		g.Status = old.Status
	}
	g.CreatedAt = old.CreatedAt
	g.UpdatedAt = s.now().UTC()
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) ListGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.goals, func(g core.SavingsGoal) int64 { return g.ID }), nil
}

// Investments

func (s *Store) CreateInvestment(_ context.Context, i core.Investment) (core.Investment, error) {
	if err := i.Validate(); err != nil {
		return core.Investment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = s.nextID()
	i.CreatedAt = s.now().UTC()
	s.invs[i.ID] = i
	return i, nil
}

func (s *Store) GetInvestment(_ context.Context, id int64) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.invs[id]
	if !ok {
		return core.Investment{}, ledger.ErrNotFound
	}
	return i, nil
}

func (s *Store) UpdateInvestment(_ context.Context, i core.Investment) (core.Investment, error) {
	if err := i.Validate(); err != nil {
		return core.Investment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.invs[i.ID]
	if !ok {
		return core.Investment{}, ledger.ErrNotFound
	}
	i.CreatedAt = old.CreatedAt
	s.invs[i.ID] = i
	return i, nil
}

func (s *Store) DeleteInvestment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invs[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.invs, id)
	return nil
}

func (s *Store) ListInvestments(_ context.Context) ([]core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.invs, func(i core.Investment) int64 { return i.ID }), nil
}

// Reports

func (s *Store) CreateReport(_ context.Context, r core.Report) (core.Report, error) {
	if !r.Type.Valid() {
		return core.Report{}, core.ErrInvalidReportType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID()
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = s.now().UTC()
	}
	s.reports[r.ID] = r
	return r, nil
}

func (s *Store) GetReport(_ context.Context, id int64) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return core.Report{}, ledger.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListReports(_ context.Context) ([]core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.reports, func(r core.Report) int64 { return r.ID }), nil
}

// Saved recommendations

func (s *Store) SaveRecommendation(_ context.Context, r core.SavedRecommendation) (core.SavedRecommendation, error) {
	if err := r.Validate(); err != nil {
		return core.SavedRecommendation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	r.ID = s.nextID()
	r.CreatedAt, r.UpdatedAt = now, now
	s.recs[r.ID] = r
	return r, nil
}

func (s *Store) GetRecommendation(_ context.Context, id int64) (core.SavedRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok {
		return core.SavedRecommendation{}, ledger.ErrNotFound
	}
	return r, nil
}

func (s *Store) UpdateRecommendation(_ context.Context, r core.SavedRecommendation) (core.SavedRecommendation, error) {
	if err := r.Validate(); err != nil {
		return core.SavedRecommendation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.recs[r.ID]
	if !ok {
		return core.SavedRecommendation{}, ledger.ErrNotFound
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = s.now().UTC()
	s.recs[r.ID] = r
	return r, nil
}

func (s *Store) DeleteRecommendation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.recs, id)
	return nil
}

func (s *Store) ListRecommendations(_ context.Context) ([]core.SavedRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.recs, func(r core.SavedRecommendation) int64 { return r.ID }), nil
}

// Splits

func (s *Store) CreateSplit(_ context.Context, sp core.Split) (core.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp.ID = s.nextID()
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = s.now().UTC()
	}
	sp.Participants = append([]string(nil), sp.Participants...)
	s.splits[sp.ID] = sp
	return sp, nil
}

func (s *Store) GetSplit(_ context.Context, id int64) (core.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.splits[id]
	if !ok {
		return core.Split{}, ledger.ErrNotFound
	}
	return sp, nil
}

func (s *Store) UpdateSplit(_ context.Context, sp core.Split) (core.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.splits[sp.ID]
	if !ok {
		return core.Split{}, ledger.ErrNotFound
	}
	sp.CreatedAt = old.CreatedAt
	sp.Participants = append([]string(nil), sp.Participants...)
	s.splits[sp.ID] = sp
	return sp, nil
}

func (s *Store) DeleteSplit(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.splits[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.splits, id)
	return nil
}

func (s *Store) ListSplits(_ context.Context, groupID string) ([]core.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := sortedByID(s.splits, func(sp core.Split) int64 { return sp.ID })
	out := all[:0]
	for _, sp := range all {
		if groupID == "" || sp.GroupID == groupID {
			out = append(out, sp)
		}
	}
	return out, nil
}

// Emergency funds

func (s *Store) CreateEmergencyFund(_ context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error) {
	if err := f.Validate(); err != nil {
		return core.EmergencyFundRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.nextID()
	if f.Status == "" {
		f.Status = core.FundActive
	}
	f.CreatedAt = s.now().UTC()
	f.UpdatedAt = f.CreatedAt
	s.funds[f.ID] = f
	return f, nil
}

func (s *Store) GetEmergencyFund(_ context.Context, id int64) (core.EmergencyFundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.funds[id]
	if !ok {
		return core.EmergencyFundRecord{}, ledger.ErrNotFound
	}
	return f, nil
}

func (s *Store) UpdateEmergencyFund(_ context.Context, f core.EmergencyFundRecord) (core.EmergencyFundRecord, error) {
	if err := f.Validate(); err != nil {
		return core.EmergencyFundRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.funds[f.ID]
	if !ok {
		return core.EmergencyFundRecord{}, ledger.ErrNotFound
	}
	if f.Status == "" {
		f.Status = old.Status
	}
	f.CreatedAt = old.CreatedAt
	f.UpdatedAt = s.now().UTC()
	s.funds[f.ID] = f
	return f, nil
}

func (s *Store) DeleteEmergencyFund(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.funds[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.funds, id)
	return nil
}

func (s *Store) ListEmergencyFunds(_ context.Context) ([]core.EmergencyFundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.funds, func(f core.EmergencyFundRecord) int64 { return f.ID }), nil
}

// Health reports

func (s *Store) CreateHealthReport(_ context.Context, h core.HealthReport) (core.HealthReport, error) {
	if err := h.Validate(); err != nil {
		return core.HealthReport{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.nextID()
	h.CreatedAt = s.now().UTC()
	s.health[h.ID] = h
	return h, nil
}

func (s *Store) GetHealthReport(_ context.Context, id int64) (core.HealthReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.health[id]
	if !ok {
		return core.HealthReport{}, ledger.ErrNotFound
	}
	return h, nil
}

func (s *Store) UpdateHealthReport(_ context.Context, h core.HealthReport) (core.HealthReport, error) {
	if err := h.Validate(); err != nil {
		return core.HealthReport{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.health[h.ID]
	if !ok {
		return core.HealthReport{}, ledger.ErrNotFound
	}
	h.CreatedAt = old.CreatedAt
	s.health[h.ID] = h
	return h, nil
}

func (s *Store) DeleteHealthReport(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.health[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.health, id)
	return nil
}

func (s *Store) ListHealthReports(_ context.Context) ([]core.HealthReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := sortedByID(s.health, func(h core.HealthReport) int64 { return h.ID })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ReportDate.Equal(out[j].ReportDate.Time) {
			return out[i].ReportDate.After(out[j].ReportDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Recurring templates

func (s *Store) CreateRecurring(_ context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rt.ID = s.nextID()
	s.recur[rt.ID] = rt
	return rt, nil
}

func (s *Store) ListRecurring(_ context.Context) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.recur, func(rt core.RecurringTransaction) int64 { return rt.ID }), nil
}

func (s *Store) DeleteRecurring(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recur[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.recur, id)
	return nil
}

func (s *Store) ListActiveRecurring(_ context.Context, now time.Time) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := sortedByID(s.recur, func(rt core.RecurringTransaction) int64 { return rt.ID })
	out := all[:0]
	for _, rt := range all {
		if rt.ActiveOn(now) {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (s *Store) MarkRecurringExecuted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.recur[id]
	if !ok {
		return ledger.ErrNotFound
	}
	rt.LastExecution = at.UTC()
	s.recur[id] = rt
	return nil
}

// Exporter

// ExportTransaction records the export and returns a synthetic row reference.
func (s *Store) ExportTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exported++
	return fmt.Sprintf("mem:%d", s.exported), nil
}

func (s *Store) ExportReport(_ context.Context, r core.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exported++
	return fmt.Sprintf("mem:%d", s.exported), nil
}

func sortedByID[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

func parseSeedLine(line string) (core.Transaction, error) {
	parts := strings.Split(line, ";")
	if len(parts) < 4 {
		return core.Transaction{}, fmt.Errorf("seed line %q: expected at least 4 fields", line)
	}
	date, err := core.ParseDate(parts[0])
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(parts[1])
	if err != nil {
		return core.Transaction{}, err
	}
	cat, err := core.ParseCategory(parts[2])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(parts[3])
	if err != nil {
		return core.Transaction{}, err
	}
	desc := ""
	if len(parts) > 4 {
		desc = strings.TrimSpace(strings.Join(parts[4:], ";"))
	}
	return core.Transaction{
		Amount:      amount,
		Kind:        kind,
		Category:    cat,
		Description: desc,
		OccurredAt:  date.Time,
	}, nil
}

type seedLine struct {
	n    int
	text string
}

// readLines returns the non-blank, non-comment lines of path with their
// 1-based line numbers. A missing file yields nothing.
func readLines(path string) []seedLine {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to open seed file", "file", path, "error", err)
		}
		return nil
	}
	defer f.Close()
	var out []seedLine
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, seedLine{n: n, text: line})
	}
	if err := sc.Err(); err != nil {
		slog.Warn("Failed to read seed file", "file", path, "error", err)
	}
	return out
}
