package api

import (
	"net/http"
)

func (s *Server) handleSaveStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "save stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.Len(),
		"stats":    s.stats.Snapshot(),
	})
}
