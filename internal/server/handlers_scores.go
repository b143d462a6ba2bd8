package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/idxscope/core/internal/domain"
)

// handleGetScore serves get_score: the latest CompositeScore for symbol,
// or null if none has been computed yet.
func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	score, err := s.scores.Latest(r.Context(), symbol)
	if err != nil {
		if domain.KindOf(err) == domain.ErrKindNotFound {
			s.writeJSON(w, http.StatusOK, nil)
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, score)
}

// handleTopScores serves top_scores: the n highest composite scores.
func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	scores, err := s.scores.Top(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scores)
}

// handleRecomputeScores serves recompute_scores: re-runs the scoring engine
// for one symbol, or every listed symbol when none is given, returning the
// count of rows written.
func (s *Server) handleRecomputeScores(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	asOf := time.Now().UTC()

	symbols := []string{symbol}
	if symbol == "" {
		stocks, err := s.stocks.List(r.Context())
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		symbols = symbols[:0]
		for _, st := range stocks {
			symbols = append(symbols, st.Symbol)
		}
	}

	written := 0
	for _, sym := range symbols {
		if _, err := s.engine.Run(r.Context(), sym, asOf); err != nil {
			if domain.KindOf(err) == domain.ErrKindInsufficientData {
				continue
			}
			s.writeDomainError(w, err)
			return
		}
		written++
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"rows_written": written})
}
