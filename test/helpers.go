package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Synoep/instahyre/internal/domain"
	"github.com/Synoep/instahyre/internal/handler"
	"github.com/Synoep/instahyre/internal/infrastructure/logger"
	"github.com/Synoep/instahyre/internal/security/audit"
	"github.com/Synoep/instahyre/internal/security/auth"
	"github.com/Synoep/instahyre/internal/security/middleware"
	"github.com/Synoep/instahyre/internal/security/ratelimit"
	"github.com/Synoep/instahyre/internal/service"
)

// store is a single in-memory backend shared by the per-entity
// repository fakes so review aggregates see place and user state.
type store struct {
	mu           sync.Mutex
	seq          int
	base         time.Time
	users        map[string]*domain.User
	usersByPhone map[string]string
	places       map[string]*domain.Place
	placesByKey  map[string]string
	reviews      map[string][]domain.Review
}

func newStore() *store {
	return &store{
		base:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		users:        make(map[string]*domain.User),
		usersByPhone: make(map[string]string),
		places:       make(map[string]*domain.Place),
		placesByKey:  make(map[string]string),
		reviews:      make(map[string][]domain.Review),
	}
}

// nextID returns sequential IDs whose lexicographic order matches
// creation order, so tie-break assertions are deterministic.
func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

func (s *store) nextTime() time.Time {
	return s.base.Add(time.Duration(s.seq) * time.Second)
}

func placeKey(name, address string) string {
	return name + "\x00" + address
}

type memUserRepo struct{ s *store }

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.usersByPhone[user.Phone]; ok {
		return domain.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = r.s.nextID("user")
	}
	user.CreatedAt = r.s.nextTime()
	u := *user
	r.s.users[user.ID] = &u
	r.s.usersByPhone[user.Phone] = user.ID
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.usersByPhone[phone]; ok {
		cp := *r.s.users[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

type memPlaceRepo struct{ s *store }

func (r *memPlaceRepo) Create(ctx context.Context, place *domain.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := placeKey(place.Name, place.Address)
	if _, ok := r.s.placesByKey[key]; ok {
		return domain.ErrDuplicate
	}
	if place.ID == "" {
		place.ID = r.s.nextID("place")
	}
	place.CreatedAt = r.s.nextTime()
	p := *place
	r.s.places[place.ID] = &p
	r.s.placesByKey[key] = place.ID
	return nil
}

func (r *memPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.places[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPlaceRepo) GetByNameAddress(ctx context.Context, name, address string) (*domain.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.placesByKey[placeKey(name, address)]; ok {
		cp := *r.s.places[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPlaceRepo) Search(ctx context.Context, filter domain.PlaceFilter) ([]domain.PlaceSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var results []domain.PlaceSummary
	for _, p := range r.s.places {
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(string(p.Category), string(filter.Category)) {
			continue
		}

		s := domain.PlaceSummary{Place: *p}
		reviews := r.s.reviews[p.ID]
		s.ReviewCount = len(reviews)
		if avg, ok := domain.AverageRating(reviews); ok {
			s.AverageRating = &avg
		}

		if filter.MinRating != nil {
			if s.AverageRating == nil || *s.AverageRating < *filter.MinRating {
				continue
			}
		}
		results = append(results, s)
	}
	return results, nil
}

func (r *memPlaceRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.places), nil
}

type memReviewRepo struct{ s *store }

func (r *memReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.places[review.PlaceID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.users[review.UserID]; !ok {
		return domain.ErrNotFound
	}
	if review.ID == "" {
		review.ID = r.s.nextID("review")
	}
	review.CreatedAt = r.s.nextTime()
	r.s.reviews[review.PlaceID] = append(r.s.reviews[review.PlaceID], *review)
	return nil
}

func (r *memReviewRepo) ListByPlace(ctx context.Context, placeID string) ([]domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reviews := make([]domain.Review, len(r.s.reviews[placeID]))
	copy(reviews, r.s.reviews[placeID])
	for i := range reviews {
		if u, ok := r.s.users[reviews[i].UserID]; ok {
			reviews[i].AuthorName = u.Name
		}
	}
	return reviews, nil
}

func (r *memReviewRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, rs := range r.s.reviews {
		n += len(rs)
	}
	return n, nil
}

// fixedCounter is a rate-limit backend returning a fixed request count.
type fixedCounter struct{ count int64 }

func (c *fixedCounter) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return c.count, nil
}

// TestServerHelper runs the full HTTP stack, middleware included,
// against in-memory repositories.
type TestServerHelper struct {
	Server *httptest.Server
	Logger *slog.Logger
}

func NewTestServer(t *testing.T) *TestServerHelper {
	return newTestServer(t, &fixedCounter{count: 1})
}

func newTestServer(t *testing.T, counter ratelimit.Counter) *TestServerHelper {
	t.Helper()
	log := logger.NewLogger("error")

	s := newStore()
	userRepo := &memUserRepo{s: s}
	placeRepo := &memPlaceRepo{s: s}
	reviewRepo := &memReviewRepo{s: s}

	tokenManager := auth.NewTokenManager("test-secret", "instahyre")
	authService := service.NewAuthService(userRepo, tokenManager, log)
	reviewService := service.NewReviewService(placeRepo, reviewRepo, log)
	placeService := service.NewPlaceService(placeRepo, reviewRepo, log)

	authHandler := handler.NewAuthHandler(authService, log)
	addReviewHandler := handler.NewAddReviewHandler(reviewService, log)
	searchHandler := handler.NewSearchHandler(placeService, log)
	placeDetailHandler := handler.NewPlaceDetailHandler(placeService, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/reviews", addReviewHandler)
	mux.Handle("GET /api/places/search", searchHandler)
	mux.Handle("GET /api/places/{id}", placeDetailHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	rateLimiter := ratelimit.NewLimiter(counter, 100, time.Minute, log)
	auditLogger := audit.NewLogger(log)

	chained := middleware.JWTMiddleware(tokenManager, log)(
		middleware.RateLimitMiddleware(rateLimiter, log)(
			middleware.AuditMiddleware(auditLogger)(
				middleware.ValidateJSONContentType(log)(mux),
			),
		),
	)

	server := httptest.NewServer(chained)
	t.Cleanup(server.Close)

	return &TestServerHelper{Server: server, Logger: log}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// PostJSON sends a JSON body, attaching the bearer token when non-empty.
func (h *TestServerHelper) PostJSON(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, h.URL()+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func (h *TestServerHelper) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.URL()+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// Register creates a user through the API and returns their token.
func (h *TestServerHelper) Register(t *testing.T, name, phone string) string {
	t.Helper()
	resp := h.PostJSON(t, "/api/auth/register", "", map[string]string{
		"name":     name,
		"phone":    phone,
		"password": "password123",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", phone, resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	DecodeJSON(t, resp, &out)
	if out.Token == "" {
		t.Fatalf("register %s: no token in response", phone)
	}
	return out.Token
}

// AddReview submits a review and returns the place ID it resolved to.
func (h *TestServerHelper) AddReview(t *testing.T, token, placeName, placeAddress, category string, rating int, text string) string {
	t.Helper()
	resp := h.PostJSON(t, "/api/reviews", token, map[string]any{
		"place_name":    placeName,
		"place_address": placeAddress,
		"category":      category,
		"rating":        rating,
		"text":          text,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("add review for %q: expected 201, got %d: %s", placeName, resp.StatusCode, body)
	}
	var out struct {
		PlaceID string `json:"place_id"`
	}
	DecodeJSON(t, resp, &out)
	return out.PlaceID
}

func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("expected status %d, got %d: %s", expected, resp.StatusCode, body)
	}
}
