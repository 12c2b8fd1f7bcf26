package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/Synoep/instahyre/internal/domain"
	"github.com/Synoep/instahyre/internal/observability/metrics"
)

// PlaceService serves ranked search and place detail reads
type PlaceService struct {
	placeRepo  domain.PlaceRepository
	reviewRepo domain.ReviewRepository
	logger     *slog.Logger
}

// NewPlaceService creates a new place service
func NewPlaceService(placeRepo domain.PlaceRepository, reviewRepo domain.ReviewRepository, logger *slog.Logger) *PlaceService {
	if logger == nil {
		logger = slog.Default()
	}

	return &PlaceService{
		placeRepo:  placeRepo,
		reviewRepo: reviewRepo,
		logger:     logger,
	}
}

// PlaceDetail is a place with its live aggregate and viewer-ordered
// review list.
type PlaceDetail struct {
	Place         domain.Place
	AverageRating *float64 // nil when no reviews exist
	ReviewCount   int
	Reviews       []domain.Review
}

// Search applies the filters against one snapshot and returns results in
// the fixed order: exact name matches first, then name ascending, place
// ID ascending as the final tie-break.
func (s *PlaceService) Search(ctx context.Context, filter domain.PlaceFilter) ([]domain.PlaceSummary, error) {
	filter.Name = strings.TrimSpace(filter.Name)

	results, err := s.placeRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	RankPlaces(results, filter.Name)
	metrics.ObserveSearch(len(results))

	return results, nil
}

// GetPlaceDetail fetches a place with its reviews ordered for the given
// viewer. The average is recomputed from the review set on every read.
// Returns domain.ErrNotFound for an unknown place ID.
func (s *PlaceService) GetPlaceDetail(ctx context.Context, placeID, viewerID string) (*PlaceDetail, error) {
	place, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}

	detail := &PlaceDetail{
		Place:       *place,
		ReviewCount: len(reviews),
		Reviews:     OrderReviews(reviews, viewerID),
	}
	if avg, ok := domain.AverageRating(reviews); ok {
		detail.AverageRating = &avg
	}

	return detail, nil
}

// rankKey is the composite sort key for search results, compared
// lexicographically: exact-match flag descending, name ascending in byte
// order, then ID ascending.
type rankKey struct {
	exactMatch int // 1 when the name filter equals the place name case-insensitively in full
	name       string
	id         string
}

func searchKey(p domain.PlaceSummary, nameFilter string) rankKey {
	k := rankKey{name: p.Name, id: p.ID}
	if nameFilter != "" && strings.EqualFold(p.Name, nameFilter) {
		k.exactMatch = 1
	}
	return k
}

func (a rankKey) less(b rankKey) bool {
	if a.exactMatch != b.exactMatch {
		return a.exactMatch > b.exactMatch
	}
	if a.name != b.name {
		return a.name < b.name
	}
	return a.id < b.id
}

// RankPlaces sorts search results in place. With no name filter the
// exact-match flag is uniformly zero and the order reduces to name
// ascending.
func RankPlaces(results []domain.PlaceSummary, nameFilter string) {
	nameFilter = strings.TrimSpace(nameFilter)
	sort.Slice(results, func(i, j int) bool {
		return searchKey(results[i], nameFilter).less(searchKey(results[j], nameFilter))
	})
}

// OrderReviews returns reviews with the viewer's own reviews pinned
// first; each group runs newest-first with ID descending breaking
// timestamp ties. An empty viewerID yields a single newest-first
// ordering.
func OrderReviews(reviews []domain.Review, viewerID string) []domain.Review {
	ordered := make([]domain.Review, len(reviews))
	copy(ordered, reviews)

	own := func(r domain.Review) int {
		if viewerID != "" && r.UserID == viewerID {
			return 1
		}
		return 0
	}

	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if own(a) != own(b) {
			return own(a) > own(b)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return ordered
}
