package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubCounter struct {
	count int64
	err   error
	keys  []string
}

func (c *stubCounter) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.keys = append(c.keys, key)
	return c.count, c.err
}

func TestAllowUnderLimit(t *testing.T) {
	limiter := NewLimiter(&stubCounter{count: 5}, 10, time.Minute, nil)
	if !limiter.Allow(context.Background(), "u1") {
		t.Error("expected request under the limit to pass")
	}
}

func TestRejectOverLimit(t *testing.T) {
	limiter := NewLimiter(&stubCounter{count: 11}, 10, time.Minute, nil)
	if limiter.Allow(context.Background(), "u1") {
		t.Error("expected request over the limit to be rejected")
	}
}

func TestFailsOpenOnBackendError(t *testing.T) {
	counter := &stubCounter{err: errors.New("connection refused")}
	limiter := NewLimiter(counter, 10, time.Minute, nil)
	if !limiter.Allow(context.Background(), "u1") {
		t.Error("expected backend failure to fail open")
	}
}

func TestAnonymousRequestsBypassCounter(t *testing.T) {
	counter := &stubCounter{count: 100}
	limiter := NewLimiter(counter, 10, time.Minute, nil)
	if !limiter.Allow(context.Background(), "") {
		t.Error("expected unidentified request to pass")
	}
	if len(counter.keys) != 0 {
		t.Errorf("expected no counter calls, got %v", counter.keys)
	}
}

func TestKeysAreScopedPerUser(t *testing.T) {
	counter := &stubCounter{count: 1}
	limiter := NewLimiter(counter, 10, time.Minute, nil)
	limiter.Allow(context.Background(), "u1")
	limiter.Allow(context.Background(), "u2")
	if len(counter.keys) != 2 || counter.keys[0] == counter.keys[1] {
		t.Errorf("expected distinct keys per user, got %v", counter.keys)
	}
}
