package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgallion1/ragdesk/internal/httpmw"
	"github.com/dgallion1/ragdesk/internal/rag"
	"github.com/dgallion1/ragdesk/internal/wire"
)

const maxQueryBody = 1 << 20

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBody)

	req := wire.QueryRequest{TopK: rag.DefaultTopK}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpmw.JSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		httpmw.JSONError(w, "query is required", http.StatusBadRequest)
		return
	}

	resp, err := s.querier.Query(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.log.Error("query failed", "query", req.Query, "error", err)
		httpmw.JSONError(w, "error while generating answer", http.StatusInternalServerError)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, resp)
}
