package api

import (
	"net/http"

	"github.com/dgallion1/ragdesk/internal/httpmw"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil || s.llm.Stats == nil {
		httpmw.JSONError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	httpmw.WriteJSON(w, http.StatusOK, map[string]any{
		"model": s.llm.Model(),
		"stats": s.llm.Stats.Snapshot(),
	})
}
