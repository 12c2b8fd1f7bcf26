package handler

import (
	"log/slog"
	"net/http"

	"github.com/Synoep/instahyre/internal/security/middleware"
	"github.com/Synoep/instahyre/internal/service"
)

// PlaceDetailResponse represents a place with its viewer-ordered reviews
type PlaceDetailResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Address       string           `json:"address"`
	Category      string           `json:"category"`
	AverageRating *float64         `json:"average_rating"` // null when no reviews exist
	ReviewCount   int              `json:"review_count"`
	Reviews       []ReviewResponse `json:"reviews"`
}

// PlaceDetailHandler handles place detail reads
type PlaceDetailHandler struct {
	placeService *service.PlaceService
	logger       *slog.Logger
}

// NewPlaceDetailHandler creates a new place detail handler
func NewPlaceDetailHandler(placeService *service.PlaceService, logger *slog.Logger) *PlaceDetailHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &PlaceDetailHandler{
		placeService: placeService,
		logger:       logger,
	}
}

// ServeHTTP handles GET /api/places/{id} requests. The viewer identity
// from the token drives review ordering: the viewer's own reviews come
// first.
func (h *PlaceDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("id")
	if placeID == "" {
		writeError(w, http.StatusBadRequest, "place id required")
		return
	}

	viewerID := middleware.GetUserIDFromContext(r.Context())

	detail, err := h.placeService.GetPlaceDetail(r.Context(), placeID, viewerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	reviews := make([]ReviewResponse, 0, len(detail.Reviews))
	for _, rv := range detail.Reviews {
		reviews = append(reviews, ReviewResponse{
			ID:        rv.ID,
			Rating:    rv.Rating,
			Text:      rv.Text,
			UserName:  rv.AuthorName,
			CreatedAt: rv.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, PlaceDetailResponse{
		ID:            detail.Place.ID,
		Name:          detail.Place.Name,
		Address:       detail.Place.Address,
		Category:      string(detail.Place.Category),
		AverageRating: detail.AverageRating,
		ReviewCount:   detail.ReviewCount,
		Reviews:       reviews,
	})
}
