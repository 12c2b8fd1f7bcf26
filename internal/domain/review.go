package domain

import (
	"context"
	"time"
)

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating with optional text attached to exactly one place by
// exactly one user.
type Review struct {
	ID         string // UUID
	PlaceID    string
	UserID     string
	Rating     int    // 1..5
	Text       string // may be empty
	AuthorName string // joined from users on read, not stored
	CreatedAt  time.Time
}

// AverageRating computes the arithmetic mean over a review set. The
// second return value is false when there are no reviews: "no reviews
// yet" is distinct from any numeric average and must never be reported
// as zero.
func AverageRating(reviews []Review) (float64, bool) {
	if len(reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), true
}

// ReviewRepository defines data access for reviews
type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	ListByPlace(ctx context.Context, placeID string) ([]Review, error)
	Count(ctx context.Context) (int, error)
}
