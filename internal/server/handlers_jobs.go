package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CreateJobRequest is the payload for POST /api/jobs.
type CreateJobRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1"`
	Company     string `json:"company" validate:"required,min=1,max=200"`
}

var jobValidator = validator.New()

// handleListJobs returns all job openings.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.logger.Error("listing jobs", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// handleCreateJob creates a job opening that future candidates will be
// evaluated against.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := jobValidator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	job, err := s.store.CreateJob(r.Context(), req.Title, req.Description, req.Company)
	if err != nil {
		s.logger.Error("creating job", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}
