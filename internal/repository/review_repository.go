package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Synoep/instahyre/internal/domain"
)

// PostgresReviewRepository implements domain.ReviewRepository using PostgreSQL
type PostgresReviewRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresReviewRepository creates a new review repository
func NewPostgresReviewRepository(db *sql.DB, logger *slog.Logger) *PostgresReviewRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new review. Returns domain.ErrNotFound when the
// referenced place or user no longer exists.
func (r *PostgresReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}

	query := `
		INSERT INTO reviews (id, place_id, user_id, rating, text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		review.ID,
		review.PlaceID,
		review.UserID,
		review.Rating,
		review.Text,
	).Scan(&review.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		r.logger.Error("failed to create review",
			slog.String("place_id", review.PlaceID),
			slog.String("user_id", review.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListByPlace returns all reviews for a place, newest first, with the
// author's display name joined in. Ties on created_at break by id
// descending so repeated reads return identical sequences.
func (r *PostgresReviewRepository) ListByPlace(ctx context.Context, placeID string) ([]domain.Review, error) {
	query := `
		SELECT r.id, r.place_id, r.user_id, r.rating, r.text, u.name, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.place_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, placeID)
	if err != nil {
		r.logger.Error("failed to list reviews",
			slog.String("place_id", placeID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		err := rows.Scan(
			&rv.ID,
			&rv.PlaceID,
			&rv.UserID,
			&rv.Rating,
			&rv.Text,
			&rv.AuthorName,
			&rv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}

// Count returns the total number of reviews
func (r *PostgresReviewRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}
