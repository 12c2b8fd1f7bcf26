package retry

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), slog.Default(), "connect",
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("not yet")
			}
			return 42, nil
		})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != 42 || calls != 3 {
		t.Errorf("got %d after %d calls", got, calls)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(), slog.Default(), "connect",
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("still down")
		})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, err := Do(ctx, fastConfig(), slog.Default(), "connect",
		func(ctx context.Context) (int, error) {
			cancel()
			return 0, errors.New("down")
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := fastConfig()
	if got := calculateBackoff(10, cfg); got != cfg.MaxBackoff {
		t.Errorf("expected backoff capped at %v, got %v", cfg.MaxBackoff, got)
	}
}
