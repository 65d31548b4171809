package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/notify"
	"github.com/nyzss/matchmaker-ai/internal/pipeline"
)

// FeedbackRequest is the payload for POST /api/applications/{id}/feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// handleFeedback resolves an application with reviewer feedback submitted
// through the API rather than Slack.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.feedback.IngestFeedback(r.Context(), r.PathValue("id"), req.Feedback)
	if err != nil {
		s.feedbackErrorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// handleSlackInteraction receives Slack interactivity payloads. Slack sends
// the interaction JSON form-encoded under the "payload" key and expects a
// 200 within 3 seconds.
func (s *Server) handleSlackInteraction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &callback); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid interaction payload")
		return
	}
	if callback.Type != slack.InteractionTypeBlockActions {
		// Not a button press; acknowledge and move on.
		w.WriteHeader(http.StatusOK)
		return
	}

	actionID, feedbackText, ok := extractFeedback(&callback)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.feedback.IngestFeedback(r.Context(), actionID, feedbackText); err != nil {
		// Eligibility races (watchdog won, duplicate click) are normal;
		// Slack still gets its 200 so it does not retry the delivery.
		if errors.Is(err, pipeline.ErrNotEligible) || errors.Is(err, pipeline.ErrEmptyFeedback) {
			s.logger.Info("interaction ignored", zap.Error(err))
			w.WriteHeader(http.StatusOK)
			return
		}
		s.logger.Error("ingesting slack feedback", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to record feedback")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// extractFeedback pulls the application id (button value) and the typed
// feedback text out of a block_actions callback.
func extractFeedback(callback *slack.InteractionCallback) (actionID, feedbackText string, ok bool) {
	for _, action := range callback.ActionCallback.BlockActions {
		if action.ActionID == notify.FeedbackSubmitAction {
			actionID = action.Value
			break
		}
	}
	if actionID == "" {
		return "", "", false
	}

	if callback.BlockActionState != nil {
		if inputs, exists := callback.BlockActionState.Values[notify.FeedbackInputBlockID]; exists {
			feedbackText = inputs[notify.FeedbackInputAction].Value
		}
	}
	return actionID, feedbackText, true
}

// feedbackErrorResponse maps feedback ingestion errors to HTTP statuses for
// the JSON endpoint, where the caller cares about the distinction.
func (s *Server) feedbackErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyFeedback):
		s.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrNotEligible):
		s.errorResponse(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("ingesting feedback", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to record feedback")
	}
}
