package http

import (
	"net/http"

	applog "finadvisor/internal/log"
)

// handleDashboard returns the record counts shown on the overview page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := s.svc.Dashboard.Counts(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
