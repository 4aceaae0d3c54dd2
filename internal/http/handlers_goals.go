package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
	applog "finadvisor/internal/log"
)

// GoalResponse adds the derived progress figures to a goal.
type GoalResponse struct {
	core.SavingsGoal
	Progress  decimal.Decimal `json:"progress_percentage"`
	Remaining decimal.Decimal `json:"remaining_amount"`
}

func goalResponse(g core.SavingsGoal) GoalResponse {
	return GoalResponse{SavingsGoal: g, Progress: g.Progress(), Remaining: g.Remaining()}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]GoalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	g, err := req.Apply(core.SavingsGoal{})
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.svc.Goals.Create(r.Context(), g)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, goalResponse(created))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	g, err := s.svc.Goals.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, goalResponse(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req GoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	current, err := s.svc.Goals.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	g, err := req.Apply(current)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	updated, err := s.svc.Goals.Update(r.Context(), g)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, goalResponse(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Goals.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	g, err := s.svc.Goals.Complete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, goalResponse(g))
}

func (s *Server) handleGoalPlan(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	q := r.URL.Query()
	income, err := requireAmount(q, "monthly_income")
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	expenses, err := requireAmount(q, "monthly_expenses")
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	plan, err := s.svc.Goals.Plan(r.Context(), id, income, expenses)
	if err != nil {
		s.writeError(w, r, applog.OpPlan, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
