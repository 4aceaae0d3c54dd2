package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "finadvisor/internal/log"
	"finadvisor/internal/middleware/ratelimit"
	"finadvisor/internal/middleware/security"
	"finadvisor/internal/middleware/trace"
	"finadvisor/internal/services"
)

// Options configures NewServer.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	// Logger defaults to the process logger with the http component.
	Logger *applog.Logger
	// Ping reports whether the store is reachable; nil means always ready.
	Ping func(ctx context.Context) error
}

// appMetrics holds the application counters exposed on /metrics.
type appMetrics struct {
	uptime              time.Time
	transactionsCreated atomic.Int64
	reportsGenerated    atomic.Int64
	serverErrors        atomic.Int64
}

type Server struct {
	http.Server
	svc     *services.Registry
	ping    func(ctx context.Context) error
	logger  *applog.Logger
	metrics *appMetrics

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
	now          func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, svc *services.Registry) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		svc:      svc,
		ping:     opts.Ping,
		logger:   logger,
		metrics:  &appMetrics{uptime: time.Now()},
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		now:      time.Now,
	}

	s.routes(mux)

	var h http.Handler = mux
	h = detector.Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = applog.Middleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/reports/summary", s.handleSummary)
	mux.HandleFunc("GET /api/reports/spending", s.handleSpending)
	mux.HandleFunc("GET /api/reports/income", s.handleIncome)
	mux.HandleFunc("POST /api/reports/generate", s.handleGenerateReport)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)

	mux.HandleFunc("GET /api/advisor/recommendations", s.handleRecommendations)
	mux.HandleFunc("GET /api/advisor/savings-plan", s.handleSavingsPlan)
	mux.HandleFunc("GET /api/advisor/emergency-fund", s.handleEmergencyFund)
	mux.HandleFunc("GET /api/advisor/saved", s.handleListSaved)
	mux.HandleFunc("POST /api/advisor/saved", s.handleCreateSaved)
	mux.HandleFunc("GET /api/advisor/saved/{id}", s.handleGetSaved)
	mux.HandleFunc("PUT /api/advisor/saved/{id}", s.handleUpdateSaved)
	mux.HandleFunc("DELETE /api/advisor/saved/{id}", s.handleDeleteSaved)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/complete", s.handleCompleteGoal)
	mux.HandleFunc("GET /api/goals/{id}/plan", s.handleGoalPlan)

	mux.HandleFunc("GET /api/investments", s.handleListInvestments)
	mux.HandleFunc("POST /api/investments", s.handleCreateInvestment)
	mux.HandleFunc("GET /api/investments/total", s.handleInvestmentTotal)
	mux.HandleFunc("GET /api/investments/{id}", s.handleGetInvestment)
	mux.HandleFunc("PUT /api/investments/{id}", s.handleUpdateInvestment)
	mux.HandleFunc("DELETE /api/investments/{id}", s.handleDeleteInvestment)

	mux.HandleFunc("GET /api/splits", s.handleListSplits)
	mux.HandleFunc("POST /api/splits", s.handleCreateSplit)
	mux.HandleFunc("GET /api/splits/{id}", s.handleGetSplit)
	mux.HandleFunc("PUT /api/splits/{id}", s.handleUpdateSplit)
	mux.HandleFunc("DELETE /api/splits/{id}", s.handleDeleteSplit)

	mux.HandleFunc("GET /api/emergency-funds", s.handleListFunds)
	mux.HandleFunc("POST /api/emergency-funds", s.handleCreateFund)
	mux.HandleFunc("GET /api/emergency-funds/{id}", s.handleGetFund)
	mux.HandleFunc("PUT /api/emergency-funds/{id}", s.handleUpdateFund)
	mux.HandleFunc("DELETE /api/emergency-funds/{id}", s.handleDeleteFund)

	mux.HandleFunc("GET /api/health-reports", s.handleListHealthReports)
	mux.HandleFunc("POST /api/health-reports", s.handleCreateHealthReport)
	mux.HandleFunc("GET /api/health-reports/{id}", s.handleGetHealthReport)
	mux.HandleFunc("PUT /api/health-reports/{id}", s.handleUpdateHealthReport)
	mux.HandleFunc("DELETE /api/health-reports/{id}", s.handleDeleteHealthReport)

	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring", s.handleCreateRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded", requestID(r)).Write(w)
}

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}

// writeError maps err onto a response. Server errors are logged with the
// operation that failed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	resp := errorResponse(err, requestID(r))
	if resp.statusCode >= http.StatusInternalServerError {
		s.metrics.serverErrors.Add(1)
		fields := applog.NewFields().
			WithClientIP(s.detector.ExtractClientIP(r)).
			WithErrorType(applog.ErrorTypeInternal)
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, operation, fields)
	} else {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, operation,
			applog.FieldStatusCode, resp.statusCode,
			"error", err)
	}
	resp.Write(w)
}
