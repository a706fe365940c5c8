package completion

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no completion
// endpoint is configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, msgs []ChatMessage, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return buildMockReply(msgs), nil
}

func buildMockReply(msgs []ChatMessage) string {
	// Echo the most recent substantive user entry, skipping the trailing
	// directive that closes every built prompt.
	var lastUser string
	for i := len(msgs) - 2; i >= 0; i-- {
		if msgs[i].Role == RoleUser && strings.TrimSpace(msgs[i].Content) != "" {
			lastUser = strings.TrimSpace(msgs[i].Content)
			break
		}
	}
	if lastUser == "" {
		return "I have considered the topic and maintain my position."
	}
	return fmt.Sprintf("Regarding %q: I see it differently, and here is why.", lastUser)
}
