package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/cache"
	"finadvisor/internal/core"
	"finadvisor/internal/ledger/memory"
	applog "finadvisor/internal/log"
	"finadvisor/internal/middleware/trace"
	"finadvisor/internal/services"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	store := memory.New()
	svc := services.NewRegistry(store, nil, cache.NewLRUCache[core.FinancialSummary](10, time.Minute))
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	srv := NewServer(opts, svc)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

// monthsAhead returns the first day of the month n calendar months from now.
func monthsAhead(n int) string {
	now := time.Now()
	return time.Date(now.Year(), now.Month()+time.Month(n), 1, 12, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func equalAmount(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("amount = %s, want %s", got, want)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		expectStatus(t, rr, http.StatusOK)
	}

	down := newTestServer(t, Options{Ping: func(context.Context) error { return errors.New("database is locked") }})
	rr := do(t, down, http.MethodGet, "/readyz", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
	body := decodeBody[map[string]any](t, rr)
	if body["status"] != "not_ready" {
		t.Errorf("status = %v, want not_ready", body["status"])
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/transactions", `{"amount":"10","kind":"expense","category":"food"}`)
	do(t, srv, http.MethodGet, "/.env", "")

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	expectStatus(t, rr, http.StatusOK)
	out := rr.Body.String()
	for _, want := range []string{
		"# TYPE http_requests_total counter",
		"transactions_created_total 1",
		"suspicious_requests_total 1",
		"uptime_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q:\n%s", want, out)
		}
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/api/dashboard", "")
	expectStatus(t, rr, http.StatusOK)

	if rr.Header().Get(trace.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})
	for i := 0; i < 2; i++ {
		expectStatus(t, do(t, srv, http.MethodGet, "/healthz", ""), http.StatusOK)
	}
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if body := decodeBody[ErrorBody](t, rr); body.Error == "" {
		t.Error("missing error message")
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"amount":"42.10","kind":"Expense","category":"food","description":"Groceries","occurred_at":"2025-03-01T10:00:00Z"}`)
	expectStatus(t, rr, http.StatusCreated)
	created := decodeBody[core.Transaction](t, rr)
	if created.ID == 0 || created.Kind != core.Expense {
		t.Fatalf("unexpected transaction %+v", created)
	}
	path := "/api/transactions/" + strconv.FormatInt(created.ID, 10)

	rr = do(t, srv, http.MethodGet, path, "")
	expectStatus(t, rr, http.StatusOK)
	equalAmount(t, decodeBody[core.Transaction](t, rr).Amount, "42.10")

	rr = do(t, srv, http.MethodPut, path,
		`{"amount":"50","kind":"expense","category":"food","description":"Groceries","occurred_at":"2025-03-01T10:00:00Z"}`)
	expectStatus(t, rr, http.StatusOK)
	equalAmount(t, decodeBody[core.Transaction](t, rr).Amount, "50")

	do(t, srv, http.MethodPost, "/api/transactions", `{"amount":"1000","kind":"income","category":"salary","occurred_at":"2025-03-02T10:00:00Z"}`)

	rr = do(t, srv, http.MethodGet, "/api/transactions?kind=expense&start=2025-03-01&end=2025-03-01", "")
	expectStatus(t, rr, http.StatusOK)
	page := decodeBody[services.Page](t, rr)
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != created.ID {
		t.Fatalf("filtered page = %+v", page)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusNotFound)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/transactions", `{"amount":`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/transactions", "", http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/transactions", `{"amount":"1","kind":"expense","category":"food","tags":[]}`, http.StatusBadRequest},
		{"invalid kind", http.MethodPost, "/api/transactions", `{"amount":"1","kind":"gift","category":"food"}`, http.StatusUnprocessableEntity},
		{"negative amount", http.MethodPost, "/api/transactions", `{"amount":"-1","kind":"expense","category":"food"}`, http.StatusUnprocessableEntity},
		{"frequency without recurring", http.MethodPost, "/api/transactions", `{"amount":"1","kind":"expense","category":"food","recurring_frequency":"monthly"}`, http.StatusUnprocessableEntity},
		{"non numeric id", http.MethodGet, "/api/transactions/abc", "", http.StatusBadRequest},
		{"missing transaction", http.MethodGet, "/api/transactions/999", "", http.StatusNotFound},
		{"inverted window", http.MethodGet, "/api/transactions?start=2025-03-02&end=2025-03-01", "", http.StatusUnprocessableEntity},
		{"bad skip", http.MethodGet, "/api/transactions?skip=x", "", http.StatusBadRequest},
		{"months not a number", http.MethodGet, "/api/reports/spending?months=abc", "", http.StatusBadRequest},
		{"months out of range", http.MethodGet, "/api/reports/income?months=0", "", http.StatusUnprocessableEntity},
		{"unknown report type", http.MethodPost, "/api/reports/generate", `{"report_type":"weekly"}`, http.StatusUnprocessableEntity},
		{"custom report without dates", http.MethodPost, "/api/reports/generate", `{"report_type":"custom"}`, http.StatusUnprocessableEntity},
		{"emergency fund without expenses", http.MethodGet, "/api/advisor/emergency-fund", "", http.StatusBadRequest},
		{"emergency fund zero months", http.MethodGet, "/api/advisor/emergency-fund?monthly_expenses=100&months=0", "", http.StatusUnprocessableEntity},
		{"plan with past date", http.MethodGet, "/api/advisor/savings-plan?target_amount=100&target_date=2000-01-01&monthly_income=10&monthly_expenses=5", "", http.StatusUnprocessableEntity},
		{"split without participants", http.MethodPost, "/api/splits", `{"group_id":"g","payer_id":"p","amount":"10","participants":[]}`, http.StatusUnprocessableEntity},
		{"goal with bad status", http.MethodPost, "/api/goals", `{"name":"Car","target_amount":"100","status":"paused"}`, http.StatusUnprocessableEntity},
		{"recommendation with bad kind", http.MethodPost, "/api/advisor/saved", `{"kind":"luck","title":"t","description":"d","priority":"low"}`, http.StatusUnprocessableEntity},
		{"missing goal", http.MethodPost, "/api/goals/77/complete", "", http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/api/goals", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			expectStatus(t, rr, tt.want)
			if tt.want != http.StatusMethodNotAllowed {
				if body := decodeBody[ErrorBody](t, rr); body.Error == "" || body.RequestID == "" {
					t.Errorf("error body = %+v", body)
				}
			}
		})
	}
}

func TestReportsAndAdvisor(t *testing.T) {
	srv := newTestServer(t, Options{})
	now := time.Now().UTC().Format(time.RFC3339)
	for _, body := range []string{
		`{"amount":"3000","kind":"income","category":"salary","occurred_at":"` + now + `"}`,
		`{"amount":"1200","kind":"expense","category":"rent","occurred_at":"` + now + `"}`,
	} {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions", body), http.StatusCreated)
	}

	rr := do(t, srv, http.MethodGet, "/api/reports/summary", "")
	expectStatus(t, rr, http.StatusOK)
	summary := decodeBody[core.FinancialSummary](t, rr)
	equalAmount(t, summary.TotalIncome, "3000")
	equalAmount(t, summary.NetIncome, "1800")
	if summary.TransactionCount != 2 {
		t.Errorf("transaction_count = %d", summary.TransactionCount)
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/api/reports/spending?months=3", ""), http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/reports/income", ""), http.StatusOK)

	rr = do(t, srv, http.MethodPost, "/api/reports/generate", `{"report_type":"monthly"}`)
	expectStatus(t, rr, http.StatusCreated)
	report := decodeBody[core.Report](t, rr)
	if report.Ref == "" || report.Summary.TransactionCount != 2 {
		t.Fatalf("report = %+v", report)
	}
	expectStatus(t, do(t, srv, http.MethodGet, "/api/reports/"+strconv.FormatInt(report.ID, 10), ""), http.StatusOK)
	if list := decodeBody[[]core.Report](t, do(t, srv, http.MethodGet, "/api/reports", "")); len(list) != 1 {
		t.Errorf("reports = %d, want 1", len(list))
	}

	rr = do(t, srv, http.MethodGet, "/api/advisor/recommendations", "")
	expectStatus(t, rr, http.StatusOK)
	recs := decodeBody[map[string][]core.Recommendation](t, rr)["recommendations"]
	if len(recs) == 0 || recs[0].Kind != core.SavingsAdvice {
		t.Fatalf("recommendations = %+v", recs)
	}

	rr = do(t, srv, http.MethodGet, "/api/advisor/emergency-fund?monthly_expenses=1200", "")
	expectStatus(t, rr, http.StatusOK)
	fund := decodeBody[services.EmergencyFund](t, rr)
	if fund.Months != core.DefaultEmergencyMonths {
		t.Errorf("months = %d", fund.Months)
	}
	equalAmount(t, fund.Recommended, "7200")

	target := monthsAhead(12)
	rr = do(t, srv, http.MethodGet, "/api/advisor/savings-plan?target_amount=1200&target_date="+target+"&monthly_income=3000&monthly_expenses=1200", "")
	expectStatus(t, rr, http.StatusOK)
	if plan := decodeBody[core.PlanResult](t, rr); !plan.Feasible || plan.MonthsToTarget != 12 {
		t.Errorf("plan = %+v", plan)
	}
}

func TestSavedRecommendations(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/advisor/saved",
		`{"kind":"budget","title":"Cut dining out","description":"Cook at home twice a week","priority":"medium"}`)
	expectStatus(t, rr, http.StatusCreated)
	saved := decodeBody[core.SavedRecommendation](t, rr)
	path := "/api/advisor/saved/" + strconv.FormatInt(saved.ID, 10)

	rr = do(t, srv, http.MethodPut, path, `{"is_implemented":true}`)
	expectStatus(t, rr, http.StatusOK)
	updated := decodeBody[core.SavedRecommendation](t, rr)
	if !updated.Implemented || updated.Title != "Cut dining out" {
		t.Errorf("updated = %+v", updated)
	}

	if list := decodeBody[[]core.SavedRecommendation](t, do(t, srv, http.MethodGet, "/api/advisor/saved", "")); len(list) != 1 {
		t.Errorf("saved = %d, want 1", len(list))
	}
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusNotFound)
}

func TestGoals(t *testing.T) {
	srv := newTestServer(t, Options{})
	target := monthsAhead(10)

	rr := do(t, srv, http.MethodPost, "/api/goals",
		`{"name":"Holiday","target_amount":"2000","current_amount":"500","target_date":"`+target+`"}`)
	expectStatus(t, rr, http.StatusCreated)
	goal := decodeBody[GoalResponse](t, rr)
	if goal.Status != core.GoalActive {
		t.Errorf("status = %q, want active", goal.Status)
	}
	equalAmount(t, goal.Progress, "25")
	equalAmount(t, goal.Remaining, "1500")
	path := "/api/goals/" + strconv.FormatInt(goal.ID, 10)

	rr = do(t, srv, http.MethodPut, path, `{"current_amount":"1000"}`)
	expectStatus(t, rr, http.StatusOK)
	equalAmount(t, decodeBody[GoalResponse](t, rr).Progress, "50")

	rr = do(t, srv, http.MethodGet, path+"/plan?monthly_income=2500&monthly_expenses=2000", "")
	expectStatus(t, rr, http.StatusOK)
	plan := decodeBody[core.PlanResult](t, rr)
	equalAmount(t, plan.TargetAmount, "1000")
	if plan.MonthsToTarget != 10 || !plan.Feasible {
		t.Errorf("plan = %+v", plan)
	}

	rr = do(t, srv, http.MethodPost, path+"/complete", "")
	expectStatus(t, rr, http.StatusOK)
	if g := decodeBody[GoalResponse](t, rr); g.Status != core.GoalCompleted {
		t.Errorf("status = %q, want completed", g.Status)
	}

	if list := decodeBody[[]GoalResponse](t, do(t, srv, http.MethodGet, "/api/goals", "")); len(list) != 1 {
		t.Errorf("goals = %d, want 1", len(list))
	}
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusNotFound)
}

func TestInvestmentsSplitsRecurringDashboard(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, body := range []string{
		`{"type":"etf","amount":"1000.50","date":"2025-01-10"}`,
		`{"type":"bond","amount":"499.50"}`,
	} {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/investments", body), http.StatusCreated)
	}
	rr := do(t, srv, http.MethodGet, "/api/investments/total", "")
	expectStatus(t, rr, http.StatusOK)
	equalAmount(t, decodeBody[map[string]decimal.Decimal](t, rr)["total_investments"], "1500")

	investments := decodeBody[[]core.Investment](t, do(t, srv, http.MethodGet, "/api/investments", ""))
	if len(investments) != 2 {
		t.Fatalf("investments = %d, want 2", len(investments))
	}
	invPath := "/api/investments/" + strconv.FormatInt(investments[0].ID, 10)
	expectStatus(t, do(t, srv, http.MethodGet, invPath, ""), http.StatusOK)

	rr = do(t, srv, http.MethodPut, invPath, `{"type":"etf","amount":"1200"}`)
	expectStatus(t, rr, http.StatusOK)
	inv := decodeBody[core.Investment](t, rr)
	equalAmount(t, inv.Amount, "1200")
	if inv.Date.String() != "2025-01-10" || inv.Status != "active" {
		t.Errorf("update must keep date and status: %+v", inv)
	}
	expectStatus(t, do(t, srv, http.MethodPut, invPath, `{"type":"","amount":"1"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodPut, "/api/investments/999", `{"type":"etf","amount":"1"}`), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodDelete, invPath, ""), http.StatusNoContent)

	rr = do(t, srv, http.MethodPost, "/api/splits",
		`{"group_id":"flat","payer_id":"ann","amount":"100","participants":["ann","bob","cy"],"description":"Internet"}`)
	expectStatus(t, rr, http.StatusCreated)
	split := decodeBody[core.Split](t, rr)
	equalAmount(t, split.SharePerPerson, "33.33")
	splitPath := "/api/splits/" + strconv.FormatInt(split.ID, 10)

	rr = do(t, srv, http.MethodPut, splitPath,
		`{"group_id":"flat","payer_id":"bob","amount":"100","participants":["ann","bob"],"description":"Internet"}`)
	expectStatus(t, rr, http.StatusOK)
	equalAmount(t, decodeBody[core.Split](t, rr).SharePerPerson, "50")
	if got := decodeBody[core.Split](t, do(t, srv, http.MethodGet, splitPath, "")); got.PayerID != "bob" || len(got.Participants) != 2 {
		t.Errorf("split after update = %+v", got)
	}
	expectStatus(t, do(t, srv, http.MethodPut, splitPath,
		`{"group_id":"flat","payer_id":"bob","amount":"100","participants":[]}`), http.StatusUnprocessableEntity)
	if splits := decodeBody[[]core.Split](t, do(t, srv, http.MethodGet, "/api/splits?group_id=flat", "")); len(splits) != 1 {
		t.Errorf("splits = %d, want 1", len(splits))
	}
	if splits := decodeBody[[]core.Split](t, do(t, srv, http.MethodGet, "/api/splits?group_id=other", "")); len(splits) != 0 {
		t.Errorf("other group splits = %d, want 0", len(splits))
	}
	expectStatus(t, do(t, srv, http.MethodDelete, splitPath, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, splitPath, ""), http.StatusNotFound)

	rr = do(t, srv, http.MethodPost, "/api/recurring",
		`{"start_date":"2025-01-01","every":"monthly","kind":"expense","category":"rent","description":"Rent","amount":"800"}`)
	expectStatus(t, rr, http.StatusCreated)
	rt := decodeBody[core.RecurringTransaction](t, rr)
	if list := decodeBody[[]core.RecurringTransaction](t, do(t, srv, http.MethodGet, "/api/recurring", "")); len(list) != 1 {
		t.Errorf("recurring = %d, want 1", len(list))
	}
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/recurring/"+strconv.FormatInt(rt.ID, 10), ""), http.StatusNoContent)

	rr = do(t, srv, http.MethodGet, "/api/dashboard", "")
	expectStatus(t, rr, http.StatusOK)
	if d := decodeBody[services.Dashboard](t, rr); d.Investments != 1 || d.Goals != 0 {
		t.Errorf("dashboard = %+v", d)
	}
}

func TestEmergencyFundsAndHealthReports(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/emergency-funds", `{"target_amount":"6000","current_amount":"1500"}`)
	expectStatus(t, rr, http.StatusCreated)
	fund := decodeBody[FundResponse](t, rr)
	if fund.Status != core.FundActive {
		t.Errorf("status = %q, want active", fund.Status)
	}
	equalAmount(t, fund.Progress, "25")
	fundPath := "/api/emergency-funds/" + strconv.FormatInt(fund.ID, 10)

	rr = do(t, srv, http.MethodPut, fundPath, `{"current_amount":"6000"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeBody[FundResponse](t, rr); got.Status != core.FundCompleted || !got.TargetAmount.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("funded fund = %+v", got)
	}
	expectStatus(t, do(t, srv, http.MethodPut, fundPath, `{"status":"paused"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/emergency-funds", `{"target_amount":"0"}`), http.StatusUnprocessableEntity)
	if funds := decodeBody[[]FundResponse](t, do(t, srv, http.MethodGet, "/api/emergency-funds", "")); len(funds) != 1 {
		t.Errorf("funds = %d, want 1", len(funds))
	}
	expectStatus(t, do(t, srv, http.MethodDelete, fundPath, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, fundPath, ""), http.StatusNotFound)

	expectStatus(t, do(t, srv, http.MethodPost, "/api/health-reports", `{"report_date":"2025-03-31","score":58}`), http.StatusCreated)
	rr = do(t, srv, http.MethodPost, "/api/health-reports", `{"report_date":"2025-06-30","score":71.5,"summary":"Savings rate up"}`)
	expectStatus(t, rr, http.StatusCreated)
	report := decodeBody[core.HealthReport](t, rr)
	reportPath := "/api/health-reports/" + strconv.FormatInt(report.ID, 10)

	reports := decodeBody[[]core.HealthReport](t, do(t, srv, http.MethodGet, "/api/health-reports", ""))
	if len(reports) != 2 || reports[0].ID != report.ID {
		t.Fatalf("expected newest report first, got %+v", reports)
	}
	expectStatus(t, do(t, srv, http.MethodPut, reportPath, `{"score":120}`), http.StatusUnprocessableEntity)
	rr = do(t, srv, http.MethodPut, reportPath, `{"score":80}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeBody[core.HealthReport](t, rr); got.Score != 80 || got.Summary != "Savings rate up" {
		t.Errorf("updated report = %+v", got)
	}
	expectStatus(t, do(t, srv, http.MethodDelete, reportPath, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodDelete, reportPath, ""), http.StatusNotFound)
}
