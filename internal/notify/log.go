package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log instead of Slack. Used when no
// bot token is configured, so the pipeline stays runnable in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Post logs the notification text.
func (n *LogNotifier) Post(_ context.Context, text string) error {
	n.logger.Info("notification", zap.String("text", text))
	return nil
}

// PostInteractive logs the notification along with the action id a reviewer
// would otherwise answer through Slack.
func (n *LogNotifier) PostInteractive(_ context.Context, text, actionID, _ string) error {
	n.logger.Info("interactive notification",
		zap.String("text", text),
		zap.String("action_id", actionID))
	return nil
}
