package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Synoep/instahyre/internal/domain"
)

// Postgres error codes we treat as expected outcomes rather than
// storage failures.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation
}

// PostgresPlaceRepository implements domain.PlaceRepository using PostgreSQL
type PostgresPlaceRepository struct {
	db     *sql.DB
	gq     *goqu.Database
	logger *slog.Logger
}

// NewPostgresPlaceRepository creates a new place repository
func NewPostgresPlaceRepository(db *sql.DB, logger *slog.Logger) *PostgresPlaceRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPlaceRepository{
		db:     db,
		gq:     goqu.New("postgres", db),
		logger: logger,
	}
}

// Create inserts a new place. Returns domain.ErrDuplicate when a place
// with the same (name, address) pair already exists; the resolver relies
// on this to recover from concurrent creation.
func (r *PostgresPlaceRepository) Create(ctx context.Context, place *domain.Place) error {
	if place.ID == "" {
		place.ID = uuid.NewString()
	}

	query := `
		INSERT INTO places (id, name, address, category)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		place.ID,
		place.Name,
		place.Address,
		place.Category,
	).Scan(&place.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		r.logger.Error("failed to create place",
			slog.String("name", place.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create place: %w", err)
	}

	return nil
}

// GetByID retrieves a place by ID
func (r *PostgresPlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	place := &domain.Place{}

	query := `
		SELECT id, name, address, category, created_at
		FROM places
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&place.ID,
		&place.Name,
		&place.Address,
		&place.Category,
		&place.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get place by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	return place, nil
}

// GetByNameAddress retrieves a place by its unique (name, address) pair
func (r *PostgresPlaceRepository) GetByNameAddress(ctx context.Context, name, address string) (*domain.Place, error) {
	place := &domain.Place{}

	query := `
		SELECT id, name, address, category, created_at
		FROM places
		WHERE name = $1 AND address = $2
	`

	err := r.db.QueryRowContext(ctx, query, name, address).Scan(
		&place.ID,
		&place.Name,
		&place.Address,
		&place.Category,
		&place.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get place by name and address: %w", err)
	}

	return place, nil
}

// Search runs the filter and aggregation against one consistent snapshot.
// The average rating is computed live from the reviews relation; places
// without reviews aggregate to NULL and therefore never satisfy a
// min-rating threshold. Result ordering is the service's concern.
func (r *PostgresPlaceRepository) Search(ctx context.Context, filter domain.PlaceFilter) ([]domain.PlaceSummary, error) {
	ds := r.gq.From(goqu.T("places").As("p")).
		Select(
			goqu.I("p.id"),
			goqu.I("p.name"),
			goqu.I("p.address"),
			goqu.I("p.category"),
			goqu.I("p.created_at"),
			goqu.AVG(goqu.I("r.rating")).As("average_rating"),
			goqu.COUNT(goqu.I("r.id")).As("review_count"),
		).
		LeftJoin(
			goqu.T("reviews").As("r"),
			goqu.On(goqu.I("r.place_id").Eq(goqu.I("p.id"))),
		).
		GroupBy(goqu.I("p.id"))

	if filter.Name != "" {
		ds = ds.Where(goqu.I("p.name").ILike("%" + escapeLike(filter.Name) + "%"))
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.L("LOWER(p.category)").Eq(strings.ToLower(string(filter.Category))))
	}
	if filter.MinRating != nil {
		ds = ds.Having(goqu.AVG(goqu.I("r.rating")).Gte(*filter.MinRating))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to search places",
			slog.String("name", filter.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to search places: %w", err)
	}
	defer rows.Close()

	var results []domain.PlaceSummary
	for rows.Next() {
		var s domain.PlaceSummary
		var avg sql.NullFloat64
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Address,
			&s.Category,
			&s.CreatedAt,
			&avg,
			&s.ReviewCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place row: %w", err)
		}
		if avg.Valid {
			v := avg.Float64
			s.AverageRating = &v
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// Count returns the total number of places
func (r *PostgresPlaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count places: %w", err)
	}
	return count, nil
}

// escapeLike escapes LIKE metacharacters so user input is matched
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
