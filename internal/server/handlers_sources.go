package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/idxscope/core/internal/domain"
)

type sourceView struct {
	SourceID     string                `json:"source_id"`
	Category     domain.SourceCategory `json:"category"`
	IsConfigured bool                  `json:"is_configured"`
	MissingFields []string             `json:"missing_fields,omitempty"`
}

// handleListSources serves list_sources: every registered adapter, grouped
// by category, with a configured/unconfigured summary.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	all := s.adapters.All()

	sources := make([]sourceView, 0, len(all))
	byCategory := make(map[domain.SourceCategory][]string)
	configuredCount := 0
	for sourceID, adapter := range all {
		status := adapter.ConfigStatus()
		if status.IsConfigured {
			configuredCount++
		}
		sources = append(sources, sourceView{
			SourceID:      sourceID,
			Category:      adapter.Category(),
			IsConfigured:  status.IsConfigured,
			MissingFields: status.MissingFields,
		})
		byCategory[adapter.Category()] = append(byCategory[adapter.Category()], sourceID)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources":     sources,
		"by_category": byCategory,
		"summary": map[string]int{
			"total":      len(sources),
			"configured": configuredCount,
		},
	})
}

// handleGetSource serves get_source: one adapter's identity and config
// status.
func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "source_id")
	adapter, ok := s.adapters.Get(sourceID)
	if !ok {
		s.writeDomainError(w, domain.NewError(domain.ErrKindNotFound, "unknown source "+sourceID, nil))
		return
	}
	status := adapter.ConfigStatus()
	s.writeJSON(w, http.StatusOK, sourceView{
		SourceID:      sourceID,
		Category:      adapter.Category(),
		IsConfigured:  status.IsConfigured,
		MissingFields: status.MissingFields,
	})
}

// handleTriggerSource serves trigger_source: start a job for one source.
func (s *Server) handleTriggerSource(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "source_id")
	job, err := s.orchestrator.Trigger(sourceID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, job)
}

// handleTriggerCategory serves trigger_category: start a job for every
// configured, idle source in category.
func (s *Server) handleTriggerCategory(w http.ResponseWriter, r *http.Request) {
	category := domain.SourceCategory(chi.URLParam(r, "category"))
	triggered, skipped := s.orchestrator.TriggerCategory(category)
	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"triggered": triggered,
		"skipped":   skipped,
	})
}
