package server

import (
	"encoding/json"
	"net/http"

	"github.com/idxscope/core/internal/domain"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps a domain.CoreError's kind to the matching HTTP
// status instead of collapsing everything to 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.ErrKindNotFound:
		s.writeError(w, http.StatusNotFound, err.Error())
	case domain.ErrKindConflict:
		s.writeError(w, http.StatusConflict, err.Error())
	case domain.ErrKindNotConfigured:
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case domain.ErrKindInsufficientData:
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case domain.ErrKindTimeout:
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	case domain.ErrKindTransient:
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error().Err(err).Msg("unhandled request error")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
