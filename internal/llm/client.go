package llm

import (
	"context"
	"strings"
)

// Turn is one role-tagged message in a chat exchange.
type Turn struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// Client generates text from an ordered list of turns. Implementations must
// honor ctx cancellation and return errors rather than degraded text; call
// sites decide the fallback.
type Client interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
}

// StaticClient replies with canned text, keyed by the first matching
// substring of the last user turn. Used in tests and offline mode.
type StaticClient struct {
	Replies map[string]string
	Default string
	Err     error
}

func (s *StaticClient) Complete(_ context.Context, turns []Turn) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	var last string
	for _, t := range turns {
		if t.Role == "user" {
			last = t.Content
		}
	}
	for key, reply := range s.Replies {
		if strings.Contains(strings.ToLower(last), strings.ToLower(key)) {
			return reply, nil
		}
	}
	return s.Default, nil
}
