// Package notify pushes ticket events to the call-centre agent channel.
// Delivery is best-effort everywhere: triage never depends on Slack being up.
package notify

import (
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/helpline/internal/models"
)

// Severity colors for message attachments.
const (
	colorOpen   = "#e53935"
	colorDigest = "#2196f3"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts ticket notifications to a single channel.
type Slack struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a Slack notifier.
type SlackOpts struct {
	BotToken  string // xoxb-... bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*Slack, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: channel is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("notify: bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &Slack{client: client, channelID: opts.ChannelID}, nil
}

// TicketCreated announces a new escalation ticket to the agent channel.
func (s *Slack) TicketCreated(t *models.Ticket) error {
	fields := []slackapi.AttachmentField{
		{Title: "Session", Value: t.SessionID, Short: true},
		{Title: "Attempts", Value: fmt.Sprintf("%d", t.Attempts), Short: true},
		{Title: "Reason", Value: t.Reason},
	}
	if t.Summary != nil {
		fields = append(fields,
			slackapi.AttachmentField{Title: "Key issues", Value: strings.Join(t.Summary.KeyIssues, ", "), Short: true},
			slackapi.AttachmentField{Title: "Sentiment", Value: string(t.Summary.CustomerSentiment), Short: true},
		)
	}

	attachment := slackapi.Attachment{
		Color:  colorOpen,
		Title:  fmt.Sprintf("Escalation ticket %s", t.TicketID),
		Fields: fields,
	}
	_, _, err := s.client.PostMessage(s.channelID,
		slackapi.MsgOptionText("Customer escalated to the call centre", false),
		slackapi.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("notify: post ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// Nop is a Notifier that does nothing, used when Slack is unconfigured.
type Nop struct{}

// TicketCreated discards the event.
func (Nop) TicketCreated(*models.Ticket) error { return nil }
