package reliability

import (
	"testing"
	"time"
)

func TestIsRetryableStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, false},
		{503, false},
	}
	for _, tc := range cases {
		if got := IsRetryableStatus(tc.code); got != tc.want {
			t.Fatalf("IsRetryableStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestExponentialBackoffSchedule(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
	}
	for _, tc := range cases {
		if got := ExponentialBackoff(tc.attempt); got != tc.want {
			t.Fatalf("ExponentialBackoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
	if got := ExponentialBackoff(0); got != 2*time.Second {
		t.Fatalf("ExponentialBackoff(0) = %v, want 2s", got)
	}
}

func TestJitterBounds(t *testing.T) {
	max := 500 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := Jitter(max)
		if d < 0 || d >= max {
			t.Fatalf("Jitter(%v) = %v, want in [0, %v)", max, d, max)
		}
	}
	if got := Jitter(0); got != 0 {
		t.Fatalf("Jitter(0) = %v, want 0", got)
	}
}
