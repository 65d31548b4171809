package server

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/db"
)

// handleListApplications returns all applications, optionally filtered by
// status with ?status=reviewing|resolved|expired.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.ListApplications(r.Context())
	if err != nil {
		s.logger.Error("listing applications", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list applications")
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		if !db.ValidStatus(status) {
			s.errorResponse(w, http.StatusBadRequest, "unknown status: "+status)
			return
		}
		filtered := make([]db.Application, 0, len(apps))
		for _, a := range apps {
			if a.Status == status {
				filtered = append(filtered, a)
			}
		}
		apps = filtered
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"applications": apps})
}

// handleGetApplication returns a single application by id.
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	app, err := s.store.GetApplication(r.Context(), id)
	if err != nil {
		s.logger.Error("getting application", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to get application")
		return
	}
	if app == nil {
		s.errorResponse(w, http.StatusNotFound, "application not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}
