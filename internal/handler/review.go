package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Synoep/instahyre/internal/security/middleware"
	"github.com/Synoep/instahyre/internal/service"
)

// AddReviewRequest represents a review submission
type AddReviewRequest struct {
	PlaceName    string `json:"place_name"`
	PlaceAddress string `json:"place_address"`
	Rating       int    `json:"rating"`
	Text         string `json:"text,omitempty"`
	Category     string `json:"category,omitempty"`
}

// ReviewResponse represents a review in API responses
type ReviewResponse struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

// AddReviewResponse is the review plus the place it resolved to
type AddReviewResponse struct {
	ReviewResponse
	PlaceID      string `json:"place_id"`
	PlaceName    string `json:"place_name"`
	PlaceAddress string `json:"place_address"`
	Category     string `json:"category"`
}

// AddReviewHandler handles review submissions
type AddReviewHandler struct {
	reviewService *service.ReviewService
	logger        *slog.Logger
}

// NewAddReviewHandler creates a new add-review handler
func NewAddReviewHandler(reviewService *service.ReviewService, logger *slog.Logger) *AddReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AddReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// ServeHTTP handles POST /api/reviews requests
func (h *AddReviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req AddReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode review request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, place, err := h.reviewService.AddReview(r.Context(), claims.UserID, service.AddReviewInput{
		PlaceName:    req.PlaceName,
		PlaceAddress: req.PlaceAddress,
		Rating:       req.Rating,
		Text:         req.Text,
		Category:     req.Category,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AddReviewResponse{
		ReviewResponse: ReviewResponse{
			ID:        review.ID,
			Rating:    review.Rating,
			Text:      review.Text,
			UserName:  claims.Name,
			CreatedAt: review.CreatedAt,
		},
		PlaceID:      place.ID,
		PlaceName:    place.Name,
		PlaceAddress: place.Address,
		Category:     string(place.Category),
	})
}
