package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"

	"github.com/livedesk/livedesk/internal/events"
)

// maxCommentPreview caps comment text in notifications
const maxCommentPreview = 200

// Poster is the slice of the Slack API the notifier posts through
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier forwards ticket change events to Slack according to the
// configured rules.
type Notifier struct {
	poster  Poster
	resolve func(string) (string, error)
	rules   *Rules
}

// New creates a notifier posting through a real Slack client
func New(client *slack.Client, rules *Rules) *Notifier {
	resolver := NewChannelResolver(client)
	return &Notifier{
		poster:  client,
		resolve: resolver.Resolve,
		rules:   rules,
	}
}

// HandleEvent posts a notification for an event if its rule allows it.
// Ephemeral events are never notified.
func (n *Notifier) HandleEvent(ev events.Event) {
	text, ok := formatMessage(ev)
	if !ok {
		return
	}

	channel, ok := n.rules.ChannelFor(ev.EventType())
	if !ok {
		return
	}

	channelID, err := n.resolve(channel)
	if err != nil {
		log.Printf("Notifier: Failed to resolve channel '%s': %v", channel, err)
		return
	}

	if _, _, err := n.poster.PostMessage(channelID, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("Notifier: Failed to post to '%s': %v", channel, err)
	}
}

// formatMessage renders an event as notification text. Returns false
// for events that never leave the push stream.
func formatMessage(ev events.Event) (string, bool) {
	switch e := ev.(type) {
	case events.TicketUpdated:
		return fmt.Sprintf("Ticket #%d: %s changed to %q by %s", e.TicketID, e.Field, e.Value, e.UpdatedBy), true
	case events.CommentAdded:
		return fmt.Sprintf("Ticket #%d: new comment by %s: %s", e.TicketID, e.Comment.UserUUID, truncate(e.Comment.Content, maxCommentPreview)), true
	case events.CommentDeleted:
		return fmt.Sprintf("Ticket #%d: comment #%d deleted", e.TicketID, e.CommentID), true
	case events.TicketLinked:
		return fmt.Sprintf("Ticket #%d linked to ticket #%d", e.TicketID, e.LinkedTicketID), true
	case events.TicketUnlinked:
		return fmt.Sprintf("Ticket #%d unlinked from ticket #%d", e.TicketID, e.LinkedTicketID), true
	case events.DeviceLinked:
		return fmt.Sprintf("Ticket #%d: device #%d attached", e.TicketID, e.DeviceID), true
	case events.DeviceUnlinked:
		return fmt.Sprintf("Ticket #%d: device #%d detached", e.TicketID, e.DeviceID), true
	case events.DeviceUpdated:
		return fmt.Sprintf("Ticket #%d: device #%d %s changed to %q", e.TicketID, e.DeviceID, e.Field, e.Value), true
	case events.ProjectAssigned:
		return fmt.Sprintf("Ticket #%d added to project #%d", e.TicketID, e.ProjectID), true
	case events.ProjectUnassigned:
		return fmt.Sprintf("Ticket #%d removed from project #%d", e.TicketID, e.ProjectID), true
	default:
		return "", false
	}
}

// truncate flattens text to one line and caps its length
func truncate(text string, maxLen int) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return text[:maxLen-3] + "..."
}
