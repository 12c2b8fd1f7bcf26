package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Counter is the backing store for fixed-window counters. Satisfied by
// the redis infrastructure client.
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter enforces a fixed-window request limit per user, with counters
// held in Redis so every replica shares the same view.
type Limiter struct {
	counter Counter
	maxReqs int64
	window  time.Duration
	logger  *slog.Logger
}

func NewLimiter(counter Counter, maxRequests int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		counter: counter,
		maxReqs: int64(maxRequests),
		window:  window,
		logger:  logger,
	}
}

// Allow reports whether the identified caller may proceed. A counter
// backend failure fails open.
func (l *Limiter) Allow(ctx context.Context, userID string) bool {
	if userID == "" {
		return true
	}

	key := fmt.Sprintf("ratelimit:%s:%d", userID, time.Now().Unix()/int64(l.window.Seconds()))
	count, err := l.counter.IncrWindow(ctx, key, l.window)
	if err != nil {
		l.logger.Warn("rate limit counter unavailable, allowing request",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return true
	}

	return count <= l.maxReqs
}
