package notify

import (
	"errors"
	"testing"

	"github.com/slack-go/slack"
)

type fakeLister struct {
	pages [][]slack.Channel
	calls int
	err   error
}

func (f *fakeLister) GetConversations(params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	page := f.pages[f.calls]
	f.calls++
	next := ""
	if f.calls < len(f.pages) {
		next = "cursor"
	}
	return page, next, nil
}

func namedChannel(id, name string) slack.Channel {
	var ch slack.Channel
	ch.ID = id
	ch.Name = name
	return ch
}

func TestResolvePassesThroughChannelIDs(t *testing.T) {
	resolver := NewChannelResolver(&fakeLister{})

	id, err := resolver.Resolve("C0123456789")
	if err != nil || id != "C0123456789" {
		t.Errorf("id = %q, err %v", id, err)
	}
}

func TestResolveLooksUpName(t *testing.T) {
	lister := &fakeLister{pages: [][]slack.Channel{
		{namedChannel("C0AAAAAAAAA", "general")},
		{namedChannel("C0BBBBBBBBB", "helpdesk")},
	}}
	resolver := NewChannelResolver(lister)

	id, err := resolver.Resolve("#helpdesk")
	if err != nil || id != "C0BBBBBBBBB" {
		t.Fatalf("id = %q, err %v", id, err)
	}
	if lister.calls != 2 {
		t.Errorf("calls = %d, want 2 pages", lister.calls)
	}

	// Second lookup comes out of the cache
	if _, err := resolver.Resolve("helpdesk"); err != nil {
		t.Errorf("cached resolve failed: %v", err)
	}
	if lister.calls != 2 {
		t.Errorf("cache miss, calls = %d", lister.calls)
	}
}

func TestResolveUnknownChannel(t *testing.T) {
	lister := &fakeLister{pages: [][]slack.Channel{
		{namedChannel("C0AAAAAAAAA", "general")},
	}}
	resolver := NewChannelResolver(lister)

	if _, err := resolver.Resolve("#nope"); err == nil {
		t.Errorf("expected not-found error")
	}
}

func TestResolveAPIError(t *testing.T) {
	resolver := NewChannelResolver(&fakeLister{err: errors.New("rate limited")})

	if _, err := resolver.Resolve("#helpdesk"); err == nil {
		t.Errorf("expected error")
	}
	if _, err := resolver.Resolve(""); err == nil {
		t.Errorf("empty name should error")
	}
}
