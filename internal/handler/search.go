package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Synoep/instahyre/internal/domain"
	"github.com/Synoep/instahyre/internal/service"
)

// PlaceResult represents one search result
type PlaceResult struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Category      string   `json:"category"`
	AverageRating *float64 `json:"average_rating"` // null when no reviews exist
	ReviewCount   int      `json:"review_count"`
}

// SearchResponse wraps the ordered result list
type SearchResponse struct {
	Results []PlaceResult `json:"results"`
	Count   int           `json:"count"`
}

// SearchHandler handles place search queries
type SearchHandler struct {
	placeService *service.PlaceService
	logger       *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(placeService *service.PlaceService, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchHandler{
		placeService: placeService,
		logger:       logger,
	}
}

// ServeHTTP handles GET /api/places/search requests
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.PlaceFilter{Name: q.Get("name")}

	// A malformed min_rating is ignored rather than rejected.
	if raw := q.Get("min_rating"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinRating = &v
		}
	}

	if raw := q.Get("category"); raw != "" {
		category, ok := domain.ParseCategory(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown category", Field: "category"})
			return
		}
		filter.Category = category
	}

	summaries, err := h.placeService.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error("search failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]PlaceResult, 0, len(summaries))
	for _, s := range summaries {
		results = append(results, PlaceResult{
			ID:            s.ID,
			Name:          s.Name,
			Address:       s.Address,
			Category:      string(s.Category),
			AverageRating: s.AverageRating,
			ReviewCount:   s.ReviewCount,
		})
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Count: len(results)})
}
