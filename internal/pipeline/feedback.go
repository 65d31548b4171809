package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotEligible is returned when the targeted application does not exist or
// already reached a terminal state. For the callback caller this is a normal
// outcome (the watchdog or a duplicate callback won the race), not a server
// error.
var ErrNotEligible = errors.New("application not found or not eligible for feedback")

// ErrEmptyFeedback is returned when the callback carries no feedback text.
var ErrEmptyFeedback = errors.New("feedback text is required")

// IngestFeedback resolves a single application from reviewing to resolved,
// attaching the reviewer's feedback. The action id is the application
// identity embedded in the interactive notification. Safe against double
// submission: only the first caller wins.
func (p *Pipeline) IngestFeedback(ctx context.Context, actionID, feedbackText string) error {
	feedbackText = strings.TrimSpace(feedbackText)
	if feedbackText == "" {
		return ErrEmptyFeedback
	}

	id, err := uuid.Parse(actionID)
	if err != nil {
		return fmt.Errorf("%w: invalid action id %q", ErrNotEligible, actionID)
	}

	updated, err := p.store.ResolveApplication(ctx, id, feedbackText)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotEligible
	}

	p.logger.Info("application resolved",
		zap.String("application_id", id.String()))

	text := fmt.Sprintf("Feedback recorded for application `%s`: %s", id, feedbackText)
	if err := p.notifier.Post(ctx, text); err != nil {
		// The transition is committed; a lost confirmation is not worth
		// failing the callback over.
		p.logger.Warn("feedback confirmation failed",
			zap.String("application_id", id.String()),
			zap.Error(err))
	}
	return nil
}
