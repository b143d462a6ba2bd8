package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleFreshness serves freshness: a per-symbol record set when symbol is
// given (by URL param or query string), otherwise the per-aspect rollup
// across the whole universe.
func (s *Server) handleFreshness(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		symbol = r.URL.Query().Get("symbol")
	}
	now := time.Now().UTC()

	if symbol != "" {
		records, err := s.freshness.ForSymbol(r.Context(), symbol, now)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, records)
		return
	}

	rollups, err := s.freshness.Rollup(r.Context(), now)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rollups)
}
