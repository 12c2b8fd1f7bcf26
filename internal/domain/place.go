package domain

import (
	"context"
	"strings"
	"time"
)

// Category classifies a place. Unknown or empty categories fall back to
// CategoryOther.
type Category string

const (
	CategoryShop       Category = "shop"
	CategoryDoctor     Category = "doctor"
	CategoryRestaurant Category = "restaurant"
	CategoryOther      Category = "other"
)

// ParseCategory normalizes a raw category string. An empty value maps to
// CategoryOther; anything outside the known set is rejected.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return CategoryOther, true
	case CategoryShop:
		return CategoryShop, true
	case CategoryDoctor:
		return CategoryDoctor, true
	case CategoryRestaurant:
		return CategoryRestaurant, true
	case CategoryOther:
		return CategoryOther, true
	}
	return "", false
}

// Place is a physical location. The (Name, Address) pair is unique across
// all places and is enforced by a database constraint, not application
// checks.
type Place struct {
	ID        string // UUID
	Name      string
	Address   string
	Category  Category
	CreatedAt time.Time
}

// PlaceFilter holds the optional search criteria. Nil fields mean "no
// constraint"; all present fields combine with AND.
type PlaceFilter struct {
	Name      string   // case-insensitive substring match, empty = all
	MinRating *float64 // places without reviews never satisfy this
	Category  Category // exact match, empty = all
}

// PlaceSummary is a place with its live review aggregate, as produced by
// a search query.
type PlaceSummary struct {
	Place
	AverageRating *float64 // nil when the place has no reviews
	ReviewCount   int
}

// PlaceRepository defines data access for places
type PlaceRepository interface {
	Create(ctx context.Context, place *Place) error
	GetByID(ctx context.Context, id string) (*Place, error)
	GetByNameAddress(ctx context.Context, name, address string) (*Place, error)
	Search(ctx context.Context, filter PlaceFilter) ([]PlaceSummary, error)
	Count(ctx context.Context) (int, error)
}
