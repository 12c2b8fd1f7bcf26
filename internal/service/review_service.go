package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Synoep/instahyre/internal/domain"
	"github.com/Synoep/instahyre/internal/observability/metrics"
)

// ReviewService handles review submission, resolving or creating the
// target place as needed.
type ReviewService struct {
	placeRepo  domain.PlaceRepository
	reviewRepo domain.ReviewRepository
	logger     *slog.Logger
}

// NewReviewService creates a new review service
func NewReviewService(placeRepo domain.PlaceRepository, reviewRepo domain.ReviewRepository, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewService{
		placeRepo:  placeRepo,
		reviewRepo: reviewRepo,
		logger:     logger,
	}
}

// AddReviewInput carries a review submission. Place name and address
// identify the place; the place is created on first reference.
type AddReviewInput struct {
	PlaceName    string
	PlaceAddress string
	Rating       int
	Text         string
	Category     string
}

// AddReview validates the submission, resolves the place and persists
// the review. Validation failures never reach storage, so a rejected
// submission creates neither a place nor a review.
func (s *ReviewService) AddReview(ctx context.Context, userID string, in AddReviewInput) (*domain.Review, *domain.Place, error) {
	name := strings.TrimSpace(in.PlaceName)
	address := strings.TrimSpace(in.PlaceAddress)

	if name == "" {
		return nil, nil, domain.NewValidationError("place_name", "required")
	}
	if address == "" {
		return nil, nil, domain.NewValidationError("place_address", "required")
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, nil, domain.NewValidationError("rating",
			fmt.Sprintf("must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	category, ok := domain.ParseCategory(in.Category)
	if !ok {
		return nil, nil, domain.NewValidationError("category", "unknown category")
	}
	if userID == "" {
		return nil, nil, domain.NewValidationError("user", "acting user required")
	}

	place, err := s.ResolvePlace(ctx, name, address, category)
	if err != nil {
		return nil, nil, err
	}

	review := &domain.Review{
		PlaceID: place.ID,
		UserID:  userID,
		Rating:  in.Rating,
		Text:    in.Text,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, nil, err
	}

	metrics.ObserveReviewCreated(string(place.Category))
	s.logger.Info("review created",
		slog.String("review_id", review.ID),
		slog.String("place_id", place.ID),
		slog.String("user_id", userID),
		slog.Int("rating", review.Rating),
	)

	return review, place, nil
}

// ResolvePlace returns the place for a trimmed (name, address) pair,
// creating it when absent. Two concurrent callers racing on the same new
// pair both end up with the single record the constraint let through:
// the loser catches domain.ErrDuplicate and re-fetches exactly once.
func (s *ReviewService) ResolvePlace(ctx context.Context, name, address string, category domain.Category) (*domain.Place, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	place, err := s.placeRepo.GetByNameAddress(ctx, name, address)
	if err == nil {
		metrics.ObservePlaceResolution("existing")
		return place, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	created := &domain.Place{
		Name:     name,
		Address:  address,
		Category: category,
	}

	err = s.placeRepo.Create(ctx, created)
	if err == nil {
		metrics.ObservePlaceResolution("created")
		s.logger.Info("place created",
			slog.String("place_id", created.ID),
			slog.String("name", created.Name),
		)
		return created, nil
	}

	if !errors.Is(err, domain.ErrDuplicate) {
		return nil, err
	}

	// Lost the creation race: another request inserted the same pair
	// between our lookup and insert. The constraint violation is the
	// designed signal to re-fetch, not an error for the caller.
	place, err = s.placeRepo.GetByNameAddress(ctx, name, address)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch place after duplicate insert: %w", err)
	}

	metrics.ObservePlaceResolution("race_recovered")
	s.logger.Info("recovered place creation race",
		slog.String("place_id", place.ID),
		slog.String("name", place.Name),
	)
	return place, nil
}
