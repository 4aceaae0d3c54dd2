package http

import (
	"net/http"
	"strings"

	"finadvisor/internal/core"
	applog "finadvisor/internal/log"
)

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Investments.List(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if list == nil {
		list = []core.Investment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req InvestmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	inv, err := req.ToInvestment(s.now())
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.svc.Investments.Create(r.Context(), inv)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	inv, err := s.svc.Investments.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req InvestmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	current, err := s.svc.Investments.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	inv, err := req.Apply(current)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	updated, err := s.svc.Investments.Update(r.Context(), inv)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Investments.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvestmentTotal(w http.ResponseWriter, r *http.Request) {
	total, err := s.svc.Investments.Total(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_investments": total})
}

// handleListSplits lists one group, or every split when group_id is absent.
func (s *Server) handleListSplits(w http.ResponseWriter, r *http.Request) {
	splits, err := s.svc.Splits.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("group_id")))
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if splits == nil {
		splits = []core.Split{}
	}
	writeJSON(w, http.StatusOK, splits)
}

func (s *Server) handleCreateSplit(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	split, err := s.svc.Splits.Create(r.Context(),
		sanitizeInput(req.GroupID),
		sanitizeInput(req.PayerID),
		req.Amount.Round(2),
		req.CleanParticipants(),
		sanitizeInput(req.Description))
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, split)
}

func (s *Server) handleGetSplit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	split, err := s.svc.Splits.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}

// handleUpdateSplit replaces the split and recomputes the share.
func (s *Server) handleUpdateSplit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req SplitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	split, err := s.svc.Splits.Update(r.Context(), id,
		sanitizeInput(req.GroupID),
		sanitizeInput(req.PayerID),
		req.Amount.Round(2),
		req.CleanParticipants(),
		sanitizeInput(req.Description))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}

func (s *Server) handleDeleteSplit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Splits.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
