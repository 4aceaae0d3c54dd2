package http

import (
	"net/http"

	"finadvisor/internal/core"
	applog "finadvisor/internal/log"

	"github.com/shopspring/decimal"
)

// FundResponse adds the funded percentage to an emergency fund.
type FundResponse struct {
	core.EmergencyFundRecord
	Progress decimal.Decimal `json:"progress_percentage"`
}

func fundResponse(f core.EmergencyFundRecord) FundResponse {
	return FundResponse{EmergencyFundRecord: f, Progress: f.Progress()}
}

func (s *Server) handleListFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := s.svc.Funds.List(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]FundResponse, 0, len(funds))
	for _, f := range funds {
		out = append(out, fundResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFund(w http.ResponseWriter, r *http.Request) {
	var req EmergencyFundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	f, err := req.Apply(core.EmergencyFundRecord{})
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.svc.Funds.Create(r.Context(), f)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, fundResponse(created))
}

func (s *Server) handleGetFund(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	f, err := s.svc.Funds.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, fundResponse(f))
}

func (s *Server) handleUpdateFund(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req EmergencyFundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	current, err := s.svc.Funds.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	if req.Status == nil {
		// let the service decide whether the new balance completes the fund
		current.Status = ""
	}
	f, err := req.Apply(current)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	updated, err := s.svc.Funds.Update(r.Context(), f)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, fundResponse(updated))
}

func (s *Server) handleDeleteFund(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Funds.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListHealthReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.Health.List(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if reports == nil {
		reports = []core.HealthReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleCreateHealthReport(w http.ResponseWriter, r *http.Request) {
	var req HealthReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	base := core.HealthReport{}
	if req.ReportDate == nil {
		now := s.now().UTC()
		base.ReportDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	h, err := req.Apply(base)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.svc.Health.Create(r.Context(), h)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetHealthReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	h, err := s.svc.Health.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleUpdateHealthReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req HealthReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	current, err := s.svc.Health.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	h, err := req.Apply(current)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	updated, err := s.svc.Health.Update(r.Context(), h)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteHealthReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Health.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
