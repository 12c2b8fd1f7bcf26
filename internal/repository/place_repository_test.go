package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/Synoep/instahyre/internal/domain"
)

func TestPlaceCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO places").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "unique_place_name_address"})

	repo := NewPostgresPlaceRepository(db, nil)
	err = repo.Create(context.Background(), &domain.Place{
		Name:     "Star Cafe",
		Address:  "MG Road",
		Category: domain.CategoryRestaurant,
	})

	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPlaceCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO places").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	repo := NewPostgresPlaceRepository(db, nil)
	place := &domain.Place{Name: "Star Cafe", Address: "MG Road", Category: domain.CategoryOther}
	if err := repo.Create(context.Background(), place); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if place.ID == "" {
		t.Errorf("expected generated place ID")
	}
	if !place.CreatedAt.Equal(now) {
		t.Errorf("expected created_at from the store")
	}
}

func TestPlaceGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, address, category, created_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "category", "created_at"}))

	repo := NewPostgresPlaceRepository(db, nil)
	_, err = repo.GetByID(context.Background(), "missing")

	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlaceSearchScansNullAverage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "address", "category", "created_at", "average_rating", "review_count"}).
		AddRow("p1", "Star Cafe", "MG Road", "restaurant", now, 4.0, 3).
		AddRow("p2", "Fresh Mart", "HSR Layout", "shop", now, nil, 0)

	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	repo := NewPostgresPlaceRepository(db, nil)
	results, err := repo.Search(context.Background(), domain.PlaceFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].AverageRating == nil || *results[0].AverageRating != 4.0 {
		t.Errorf("expected average 4.0, got %v", results[0].AverageRating)
	}
	if results[1].AverageRating != nil {
		t.Errorf("expected nil average for review-less place, got %v", *results[1].AverageRating)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("escapeLike = %q", got)
	}
}
