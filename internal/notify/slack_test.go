package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePoster struct {
	channels []string
	options  [][]slack.MsgOption
	err      error
}

func (f *fakePoster) PostMessageContext(_ context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.channels = append(f.channels, channelID)
	f.options = append(f.options, options)
	return channelID, "", f.err
}

func newTestNotifier(poster *fakePoster) *SlackNotifier {
	return &SlackNotifier{
		api:     poster,
		channel: "#recruiting",
		logger:  zap.NewNop(),
		timeout: time.Second,
	}
}

func TestSlackNotifier_Post(t *testing.T) {
	poster := &fakePoster{}
	n := newTestNotifier(poster)

	err := n.Post(context.Background(), "application expired")
	require.NoError(t, err)

	require.Len(t, poster.channels, 1)
	assert.Equal(t, "#recruiting", poster.channels[0])
}

func TestSlackNotifier_PostError(t *testing.T) {
	poster := &fakePoster{err: errors.New("channel_not_found")}
	n := newTestNotifier(poster)

	err := n.Post(context.Background(), "hello")
	assert.ErrorContains(t, err, "channel_not_found")
}

func TestSlackNotifier_PostInteractive(t *testing.T) {
	poster := &fakePoster{}
	n := newTestNotifier(poster)

	err := n.PostInteractive(context.Background(), "new match", "app-123", "Feedback")
	require.NoError(t, err)
	require.Len(t, poster.channels, 1)
}

func TestBuildFeedbackBlocks(t *testing.T) {
	blocks := BuildFeedbackBlocks("Candidate scored 85", "7e6f", "Feedback")
	require.Len(t, blocks, 3)

	section, ok := blocks[0].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Candidate scored 85", section.Text.Text)

	input, ok := blocks[1].(*slack.InputBlock)
	require.True(t, ok)
	assert.Equal(t, FeedbackInputBlockID, input.BlockID)

	actions, ok := blocks[2].(*slack.ActionBlock)
	require.True(t, ok)
	require.Len(t, actions.Elements.ElementSet, 1)

	button, ok := actions.Elements.ElementSet[0].(*slack.ButtonBlockElement)
	require.True(t, ok)
	assert.Equal(t, FeedbackSubmitAction, button.ActionID)
	assert.Equal(t, "7e6f", button.Value)
}
