package http

import (
	"net/http"
	"strings"

	"finadvisor/internal/core"
	applog "finadvisor/internal/log"
)

// parseTransactionFilter reads kind, category, start, end, skip and limit.
func parseTransactionFilter(r *http.Request) (core.TransactionFilter, error) {
	q := r.URL.Query()
	var f core.TransactionFilter
	var err error

	if v := strings.TrimSpace(q.Get("kind")); v != "" {
		if f.Kind, err = core.ParseKind(v); err != nil {
			return f, err
		}
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		if f.Category, err = core.ParseCategory(v); err != nil {
			return f, err
		}
	}
	if f.Window, err = queryWindow(q); err != nil {
		return f, err
	}
	if f.Skip, err = queryInt(q, "skip", 0); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(q, "limit", core.DefaultPageLimit); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransactionFilter(r)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	page, err := s.svc.Transactions.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	t, err := req.ToTransaction(s.now())
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.svc.Transactions.Create(r.Context(), t)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	s.metrics.transactionsCreated.Add(1)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	t, err := s.svc.Transactions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUpdateTransaction replaces every field of the transaction.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	t, err := req.ToTransaction(s.now())
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	t.ID = id
	updated, err := s.svc.Transactions.Update(r.Context(), t)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
