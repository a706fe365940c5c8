package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeTransport struct {
	mu       sync.Mutex
	statuses []int
	calls    int
	lastReq  *http.Request
	lastBody []byte
	respBody string
}

func (t *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.lastReq = req
	if req.Body != nil {
		t.lastBody, _ = io.ReadAll(req.Body)
	}

	status := http.StatusOK
	if len(t.statuses) > 0 {
		status = t.statuses[0]
		t.statuses = t.statuses[1:]
	}

	body := t.respBody
	if body == "" {
		body = `{"choices":[{"message":{"content":"generated"}}]}`
	}
	if status != http.StatusOK {
		body = `{"error":"upstream"}`
	}

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func (t *fakeTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func newTestClient(ft *fakeTransport) (*HTTPClient, *[]time.Duration) {
	c := NewHTTPClient(Config{
		URL:    "http://completion.test/",
		APIKey: "test-key",
	})
	c.client = &http.Client{Transport: ft}
	c.jitter = func(time.Duration) time.Duration { return 0 }

	var sleeps []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		if d > 0 {
			sleeps = append(sleeps, d)
		}
		return nil
	}
	return c, &sleeps
}

func TestCompleteRetriesRateLimitThenSucceeds(t *testing.T) {
	ft := &fakeTransport{statuses: []int{429, 429, 429}}
	c, sleeps := newTestClient(ft)

	text, err := c.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, "corr-1")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "generated" {
		t.Fatalf("Complete() = %q, want %q", text, "generated")
	}
	if got := ft.Calls(); got != 4 {
		t.Fatalf("attempts = %d, want 4", got)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("backoff sleeps = %v, want %v", *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Fatalf("backoff sleep[%d] = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestCompleteFailsAfterRetryCeiling(t *testing.T) {
	statuses := make([]int, 20)
	for i := range statuses {
		statuses[i] = 429
	}
	ft := &fakeTransport{statuses: statuses}
	c, _ := newTestClient(ft)

	_, err := c.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, "")
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Complete() error = %v, want ErrRateLimitExceeded", err)
	}
	if got := ft.Calls(); got != 10 {
		t.Fatalf("attempts = %d, want 10", got)
	}
}

func TestCompleteNonRetryableStatusFailsImmediately(t *testing.T) {
	ft := &fakeTransport{statuses: []int{500}}
	c, sleeps := newTestClient(ft)

	_, err := c.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, "")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Complete() error = %v, want *StatusError", err)
	}
	if statusErr.Code != 500 {
		t.Fatalf("StatusError.Code = %d, want 500", statusErr.Code)
	}
	if got := ft.Calls(); got != 1 {
		t.Fatalf("attempts = %d, want 1", got)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("backoff sleeps = %v, want none", *sleeps)
	}
}

func TestCompleteRejectsEmptyPayload(t *testing.T) {
	for _, body := range []string{`{}`, `{"choices":[]}`, `{"choices":[{"message":{"content":"  "}}]}`} {
		ft := &fakeTransport{respBody: body}
		c, _ := newTestClient(ft)
		_, err := c.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, "")
		if !errors.Is(err, ErrEmptyCompletion) {
			t.Fatalf("Complete() with body %q error = %v, want ErrEmptyCompletion", body, err)
		}
		if got := ft.Calls(); got != 1 {
			t.Fatalf("attempts = %d, want 1", got)
		}
	}
}

func TestCompleteSendsRequestShapeAndHeaders(t *testing.T) {
	ft := &fakeTransport{}
	c, _ := newTestClient(ft)

	msgs := []ChatMessage{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "topic"},
	}
	if _, err := c.Complete(context.Background(), msgs, "corr-42"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if got := ft.lastReq.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Fatalf("Authorization = %q, want %q", got, "Bearer test-key")
	}
	if got := ft.lastReq.Header.Get("X-Correlation-ID"); got != "corr-42" {
		t.Fatalf("X-Correlation-ID = %q, want %q", got, "corr-42")
	}

	var req completionRequest
	if err := json.Unmarshal(ft.lastBody, &req); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if req.MaxTokens != 500 {
		t.Fatalf("max_tokens = %d, want 500", req.MaxTokens)
	}
	if req.Temperature != 0.7 {
		t.Fatalf("temperature = %v, want 0.7", req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem {
		t.Fatalf("messages = %+v, want the built prompt", req.Messages)
	}
}

func TestCompleteOmitsAuthHeaderWithoutKey(t *testing.T) {
	ft := &fakeTransport{}
	c, _ := newTestClient(ft)
	c.apiKey = ""

	if _, err := c.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}}, ""); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got := ft.lastReq.Header.Get("Authorization"); got != "" {
		t.Fatalf("Authorization = %q, want empty", got)
	}
	if got := ft.lastReq.Header.Get("X-Correlation-ID"); got != "" {
		t.Fatalf("X-Correlation-ID = %q, want empty", got)
	}
}

func TestSleepCtxCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepCtx(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("sleepCtx() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("sleepCtx() took %v, want immediate return", elapsed)
	}
}

func TestNewClientModes(t *testing.T) {
	if _, err := New(Config{Mode: "http"}); err == nil {
		t.Fatalf("New(http without URL) error = nil, want error")
	}
	if _, err := New(Config{Mode: "bogus"}); err == nil {
		t.Fatalf("New(bogus) error = nil, want error")
	}

	c, err := New(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("New(auto) error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("New(auto) without URL = %T, want *MockClient", c)
	}

	c, err = New(Config{Mode: "auto", URL: "http://completion.test/"})
	if err != nil {
		t.Fatalf("New(auto with URL) error = %v", err)
	}
	if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("New(auto with URL) = %T, want *HTTPClient", c)
	}
}
