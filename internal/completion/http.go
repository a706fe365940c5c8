package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/discourse/internal/reliability"
)

// ErrRateLimitExceeded reports that the endpoint kept throttling until the
// retry ceiling was reached.
var ErrRateLimitExceeded = errors.New("completion rate limit exceeded")

// ErrEmptyCompletion reports a success response with no usable generated text.
var ErrEmptyCompletion = errors.New("completion response contained no generated text")

// StatusError is a permanent non-success response from the endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint status %d: %s", e.Code, e.Body)
}

type completionRequest struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPClient calls the text-generation endpoint, retrying rate-limited
// attempts with jitter and exponential backoff. Any other failure is
// permanent. Retries re-issue the full request; the endpoint is assumed to
// have no side effects, so duplicate attempts are safe to discard.
type HTTPClient struct {
	url         string
	apiKey      string
	client      *http.Client
	maxRetries  int
	maxTokens   int
	temperature float64
	jitterMax   time.Duration
	onAttempt   func(outcome string)

	// Overridable in tests to avoid wall-clock waits.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 10
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	jitterMax := cfg.JitterMax
	if jitterMax < 0 {
		jitterMax = 0
	}

	return &HTTPClient{
		url:         strings.TrimSpace(cfg.URL),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		client:      &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		jitterMax:   jitterMax,
		onAttempt:   cfg.OnAttempt,
		sleep:       sleepCtx,
		jitter:      reliability.Jitter,
	}
}

func (c *HTTPClient) observe(outcome string) {
	if c.onAttempt != nil {
		c.onAttempt(outcome)
	}
}

func (c *HTTPClient) Complete(ctx context.Context, msgs []ChatMessage, correlationID string) (string, error) {
	attempt := 0
	for {
		// Stagger concurrent callers before every network attempt.
		if err := c.sleep(ctx, c.jitter(c.jitterMax)); err != nil {
			return "", err
		}

		text, err := c.once(ctx, msgs, correlationID)
		if err == nil {
			c.observe("success")
			return text, nil
		}

		var se *StatusError
		if !errors.As(err, &se) || !reliability.IsRetryableStatus(se.Code) {
			c.observe("error")
			return "", err
		}

		c.observe("rate_limited")
		attempt++
		if attempt >= c.maxRetries {
			return "", fmt.Errorf("%w after %d attempts", ErrRateLimitExceeded, attempt)
		}
		if err := c.sleep(ctx, reliability.ExponentialBackoff(attempt)); err != nil {
			return "", err
		}
	}
}

func (c *HTTPClient) once(ctx context.Context, msgs []ChatMessage, correlationID string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed completionResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := parsed.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
// The timer is stopped on cancellation so aborted retries do not leak.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
