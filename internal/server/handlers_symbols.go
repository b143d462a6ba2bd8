package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/idxscope/core/internal/domain"
)

// handleListSymbols serves list_symbols: optional sector filter and limit.
func (s *Server) handleListSymbols(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.stocks.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if sector := r.URL.Query().Get("sector"); sector != "" {
		filtered := stocks[:0]
		for _, st := range stocks {
			if st.Sector == sector {
				filtered = append(filtered, st)
			}
		}
		stocks = filtered
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n >= 0 && n < len(stocks) {
			stocks = stocks[:n]
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stocks": stocks,
		"count":  len(stocks),
	})
}

// handleGetSymbol serves get_symbol.
func (s *Server) handleGetSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	stock, err := s.stocks.Get(r.Context(), symbol)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stock)
}

// handleGetPrices serves get_prices: symbol, days -> oldest-first bars.
func (s *Server) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}

	if _, err := s.stocks.Get(r.Context(), symbol); err != nil {
		s.writeDomainError(w, err)
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	bars, err := s.prices.Range(r.Context(), symbol, from, to, domain.OrderAscending)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bars)
}
