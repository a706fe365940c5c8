package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Prompt roles understood by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged entry of a built prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces one generated text for a built prompt. The correlation id
// is attached to the external call for cross-system request tracing.
type Client interface {
	Complete(ctx context.Context, msgs []ChatMessage, correlationID string) (string, error)
}

// Config controls client construction.
type Config struct {
	Mode           string
	URL            string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
	MaxTokens      int
	Temperature    float64
	JitterMax      time.Duration

	// OnAttempt, when set, is invoked after every network attempt with one
	// of "success", "rate_limited" or "error".
	OnAttempt func(outcome string)
}

// New builds a completion client for the configured mode.
func New(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.URL) != "" {
			return NewHTTPClient(cfg), nil
		}
		return NewMockClient(), nil
	case "http":
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, errors.New("completion URL is required for http mode")
		}
		return NewHTTPClient(cfg), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported completion mode %q", cfg.Mode)
	}
}
