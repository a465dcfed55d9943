package notify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/livedesk/livedesk/internal/events"
)

// Rule controls notification delivery for one event type
type Rule struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel,omitempty"`
}

// Rules maps event types to notification rules. Event types not listed
// are never notified.
type Rules struct {
	DefaultChannel string          `yaml:"default_channel"`
	Events         map[string]Rule `yaml:"events"`
}

// LoadRules reads a rules file. A missing path returns empty rules, so
// an unconfigured deployment just never notifies.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return &Rules{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Rules{}, nil
		}
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return &rules, nil
}

// ChannelFor returns the destination channel for an event type, or
// false if the type is disabled or unlisted.
func (r *Rules) ChannelFor(t events.Type) (string, bool) {
	rule, ok := r.Events[string(t)]
	if !ok || !rule.Enabled {
		return "", false
	}

	channel := rule.Channel
	if channel == "" {
		channel = r.DefaultChannel
	}
	if channel == "" {
		return "", false
	}
	return channel, true
}
