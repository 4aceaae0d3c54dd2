package http

import (
	"net/http"

	"finadvisor/internal/core"
	applog "finadvisor/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r.URL.Query())
	if err != nil {
		s.writeError(w, r, applog.OpAnalyze, err)
		return
	}
	summary, err := s.svc.Reports.Summary(r.Context(), window)
	if err != nil {
		s.writeError(w, r, applog.OpAnalyze, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r.URL.Query(), "months", core.DefaultAnalysisMonths)
	if err != nil {
		s.writeError(w, r, applog.OpAnalyze, err)
		return
	}
	analysis, err := s.svc.Reports.Spending(r.Context(), months)
	if err != nil {
		s.writeError(w, r, applog.OpAnalyze, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r.URL.Query(), "months", core.DefaultAnalysisMonths)
	if err != nil {
		s.writeError(w, r, applog.OpAnalyze, err)
		return
	}
	analysis, err := s.svc.Reports.Income(r.Context(), months)
	if err != nil {
		s.writeError(w, r, applog.OpAnalyze, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpGenerate, err)
		return
	}
	rt, custom, err := req.Parse()
	if err != nil {
		s.writeError(w, r, applog.OpGenerate, err)
		return
	}
	report, err := s.svc.Reports.Generate(r.Context(), rt, custom)
	if err != nil {
		s.writeError(w, r, applog.OpGenerate, err)
		return
	}
	s.metrics.reportsGenerated.Add(1)
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.Reports.List(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if reports == nil {
		reports = []core.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	report, err := s.svc.Reports.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
