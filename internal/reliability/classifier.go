package reliability

import (
	"math/rand"
	"net/http"
	"time"
)

// IsRetryableStatus classifies HTTP status codes from the completion
// endpoint. Only throttling is transient here; every other failure status
// signals a genuine error and must not be retried.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests
}

// ExponentialBackoff computes the delay before retry number attempt:
// 2^attempt seconds (2s, 4s, 8s, ...).
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

// Jitter returns a uniformly random duration in [0, max) used to stagger
// concurrent calls against the shared endpoint.
func Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
