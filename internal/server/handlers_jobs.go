package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGetJob serves get_job.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.orchestrator.GetJob(jobID)
	if err != nil {
		if s.jobRepo != nil {
			if persisted, perr := s.jobRepo.Get(r.Context(), jobID); perr == nil {
				s.writeJSON(w, http.StatusOK, persisted)
				return
			}
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// handleListJobs serves list_jobs: every job within the in-memory
// retention window, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orchestrator.GetJobs())
}
