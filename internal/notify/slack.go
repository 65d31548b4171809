// Package notify provides the notification channel used by the matchmaker
// pipeline: Slack messages, including interactive ones that collect reviewer
// feedback keyed by an application identity.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Block identifiers shared with the inbound interaction handler. The button
// value carries the application id so the callback can locate the row
// without a search.
const (
	FeedbackInputBlockID = "feedback_input"
	FeedbackInputAction  = "feedback_text"
	FeedbackSubmitAction = "submit_feedback"
)

// defaultTimeout bounds every remote call; the workflow engine expects
// clients to enforce their own timeouts.
const defaultTimeout = 15 * time.Second

// Notifier posts messages to the review channel.
type Notifier interface {
	// Post sends a plain text message.
	Post(ctx context.Context, text string) error
	// PostInteractive sends a message with a feedback input whose submit
	// action carries the given action id.
	PostInteractive(ctx context.Context, text, actionID, inputLabel string) error
}

// messagePoster is the part of the Slack API the notifier uses.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier implements Notifier on top of the Slack Web API.
type SlackNotifier struct {
	api     messagePoster
	channel string
	logger  *zap.Logger
	timeout time.Duration
}

// NewSlackNotifier creates a notifier posting to the given channel.
func NewSlackNotifier(token, channel string, logger *zap.Logger) (*SlackNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("slack bot token is required")
	}
	if channel == "" {
		return nil, fmt.Errorf("slack channel is required")
	}
	return &SlackNotifier{
		api:     slack.New(token),
		channel: channel,
		logger:  logger,
		timeout: defaultTimeout,
	}, nil
}

// Post sends a plain text message to the review channel.
func (n *SlackNotifier) Post(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

// PostInteractive sends a message with a feedback form. The submit button's
// value is the action id, so the interaction callback identifies the
// application directly.
func (n *SlackNotifier) PostInteractive(ctx context.Context, text, actionID, inputLabel string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	blocks := BuildFeedbackBlocks(text, actionID, inputLabel)
	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("failed to post interactive message: %w", err)
	}

	n.logger.Debug("posted interactive notification",
		zap.String("channel", n.channel),
		zap.String("action_id", actionID))
	return nil
}

// BuildFeedbackBlocks assembles the Block Kit layout for a feedback request.
func BuildFeedbackBlocks(text, actionID, inputLabel string) []slack.Block {
	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)

	input := slack.NewInputBlock(
		FeedbackInputBlockID,
		slack.NewTextBlockObject(slack.PlainTextType, inputLabel, false, false),
		nil,
		slack.NewPlainTextInputBlockElement(
			slack.NewTextBlockObject(slack.PlainTextType, inputLabel, false, false),
			FeedbackInputAction,
		),
	)

	submit := slack.NewActionBlock(
		"feedback_actions",
		slack.NewButtonBlockElement(
			FeedbackSubmitAction,
			actionID,
			slack.NewTextBlockObject(slack.PlainTextType, "Submit feedback", false, false),
		),
	)

	return []slack.Block{section, input, submit}
}
