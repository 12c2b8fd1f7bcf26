package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/Synoep/instahyre/internal/domain"
	"github.com/Synoep/instahyre/internal/observability/metrics"
)

// StatsWorker periodically refreshes the dataset gauges from the store.
// It touches counts only; rating averages are always computed at read
// time and are never materialized anywhere, including here.
type StatsWorker struct {
	placeRepo  domain.PlaceRepository
	reviewRepo domain.ReviewRepository
	logger     *slog.Logger
	interval   time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(
	placeRepo domain.PlaceRepository,
	reviewRepo domain.ReviewRepository,
	logger *slog.Logger,
	interval time.Duration,
) *StatsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &StatsWorker{
		placeRepo:  placeRepo,
		reviewRepo: reviewRepo,
		logger:     logger,
		interval:   interval,
	}
}

// Start runs the refresh loop until the context is cancelled
func (w *StatsWorker) Start(ctx context.Context) {
	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	places, err := w.placeRepo.Count(ctx)
	if err != nil {
		w.logger.Warn("failed to count places", slog.String("error", err.Error()))
	} else {
		metrics.SetPlacesTotal(places)
	}

	reviews, err := w.reviewRepo.Count(ctx)
	if err != nil {
		w.logger.Warn("failed to count reviews", slog.String("error", err.Error()))
	} else {
		metrics.SetReviewsTotal(reviews)
	}
}
