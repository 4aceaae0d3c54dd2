package http

import (
	"net/http"
	"strings"

	"finadvisor/internal/core"
	applog "finadvisor/internal/log"
)

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	expenses, ok, err := queryAmount(r.URL.Query(), "monthly_expenses")
	if err != nil {
		s.writeError(w, r, applog.OpAdvise, err)
		return
	}
	recs, err := s.svc.Advisor.Recommendations(r.Context(), optional(expenses, ok))
	if err != nil {
		s.writeError(w, r, applog.OpAdvise, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) handleSavingsPlan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var in core.PlanInput
	var err error

	if in.TargetAmount, err = requireAmount(q, "target_amount"); err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	rawDate := strings.TrimSpace(q.Get("target_date"))
	if rawDate == "" {
		s.writeError(w, r, applog.OpPlan, malformed("missing target_date"))
		return
	}
	target, err := core.ParseDate(rawDate)
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	in.TargetDate = target.Time
	if in.MonthlyIncome, err = requireAmount(q, "monthly_income"); err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	if in.MonthlyExpenses, err = requireAmount(q, "monthly_expenses"); err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}

	plan, err := s.svc.Advisor.SavingsPlan(in)
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleEmergencyFund(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expenses, err := requireAmount(q, "monthly_expenses")
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	months, err := queryInt(q, "months", core.DefaultEmergencyMonths)
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	fund, err := s.svc.Advisor.EmergencyFund(expenses, months)
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	writeJSON(w, http.StatusOK, fund)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Advisor.ListSaved(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if list == nil {
		list = []core.SavedRecommendation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSaved(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	rec, err := req.Apply(core.SavedRecommendation{})
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	saved, err := s.svc.Advisor.Save(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetSaved(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	rec, err := s.svc.Advisor.GetSaved(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateSaved(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req RecommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	current, err := s.svc.Advisor.GetSaved(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	rec, err := req.Apply(current)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	updated, err := s.svc.Advisor.UpdateSaved(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Advisor.DeleteSaved(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
