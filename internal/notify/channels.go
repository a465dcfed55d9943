package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/slack-go/slack"
)

// conversationLister is the slice of the Slack API the resolver needs
type conversationLister interface {
	GetConversations(params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
}

// ChannelResolver resolves channel names ("#helpdesk" or "helpdesk") to
// channel IDs, caching lookups.
type ChannelResolver struct {
	client conversationLister
	mu     sync.RWMutex
	cache  map[string]string
}

// NewChannelResolver creates a resolver backed by a Slack client
func NewChannelResolver(client conversationLister) *ChannelResolver {
	return &ChannelResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// Resolve turns a channel name or ID into a channel ID
func (r *ChannelResolver) Resolve(nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", fmt.Errorf("channel name is empty")
	}
	if isChannelID(nameOrID) {
		return nameOrID, nil
	}

	name := strings.TrimPrefix(nameOrID, "#")

	r.mu.RLock()
	id, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[name] = id
	r.mu.Unlock()
	return id, nil
}

func (r *ChannelResolver) lookup(name string) (string, error) {
	cursor := ""
	for {
		channels, next, err := r.client.GetConversations(&slack.GetConversationsParameters{
			ExcludeArchived: true,
			Limit:           1000,
			Cursor:          cursor,
			Types:           []string{"public_channel", "private_channel"},
		})
		if err != nil {
			return "", fmt.Errorf("list channels: %w", err)
		}
		for _, channel := range channels {
			if channel.Name == name {
				return channel.ID, nil
			}
		}
		if next == "" {
			return "", fmt.Errorf("channel '%s' not found", name)
		}
		cursor = next
	}
}

// isChannelID reports whether s looks like a Slack channel ID
func isChannelID(s string) bool {
	if len(s) < 9 || len(s) > 15 || !strings.HasPrefix(s, "C") {
		return false
	}
	for _, c := range s[1:] {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
