package test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
)

type placeResult struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Category      string   `json:"category"`
	AverageRating *float64 `json:"average_rating"`
	ReviewCount   int      `json:"review_count"`
}

type searchResponse struct {
	Results []placeResult `json:"results"`
	Count   int           `json:"count"`
}

type reviewResponse struct {
	ID       string `json:"id"`
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
	UserName string `json:"user_name"`
}

type placeDetailResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	AverageRating *float64         `json:"average_rating"`
	ReviewCount   int              `json:"review_count"`
	Reviews       []reviewResponse `json:"reviews"`
}

func (h *TestServerHelper) search(t *testing.T, token string, params url.Values) searchResponse {
	t.Helper()
	resp := h.Get(t, "/api/places/search?"+params.Encode(), token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", resp.StatusCode)
	}
	var out searchResponse
	DecodeJSON(t, resp, &out)
	return out
}

func TestRegisterAndLoginFlow(t *testing.T) {
	server := NewTestServer(t)

	token := server.Register(t, "Alice", "9000000001")
	if token == "" {
		t.Fatal("expected a token from registration")
	}

	// Same phone again conflicts.
	resp := server.PostJSON(t, "/api/auth/register", "", map[string]string{
		"name": "Mallory", "phone": "9000000001", "password": "password123",
	})
	AssertStatusCode(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = server.PostJSON(t, "/api/auth/login", "", map[string]string{
		"phone": "9000000001", "password": "password123",
	})
	AssertStatusCode(t, resp, http.StatusOK)
	var login struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	DecodeJSON(t, resp, &login)
	resp.Body.Close()
	if login.Token == "" || login.TokenType != "Bearer" {
		t.Errorf("unexpected login result: %+v", login)
	}

	resp = server.PostJSON(t, "/api/auth/login", "", map[string]string{
		"phone": "9000000001", "password": "wrong",
	})
	AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	server := NewTestServer(t)

	resp := server.PostJSON(t, "/api/reviews", "", map[string]any{
		"place_name": "Star Cafe", "place_address": "MG Road", "rating": 5,
	})
	AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = server.Get(t, "/api/places/search", "")
	AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = server.Get(t, "/api/places/search", "not-a-jwt")
	AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	// Health stays reachable without a token.
	resp = server.Get(t, "/healthz", "")
	AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestAddReviewValidation(t *testing.T) {
	server := NewTestServer(t)
	token := server.Register(t, "Alice", "9000000001")

	resp := server.PostJSON(t, "/api/reviews", token, map[string]any{
		"place_name": "Star Cafe", "place_address": "MG Road", "rating": 6,
	})
	AssertStatusCode(t, resp, http.StatusBadRequest)
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	DecodeJSON(t, resp, &body)
	resp.Body.Close()
	if body.Field != "rating" {
		t.Errorf("expected field 'rating', got %q", body.Field)
	}

	// The rejected review must not have created the place.
	results := server.search(t, token, url.Values{"name": {"Star Cafe"}})
	if results.Count != 0 {
		t.Errorf("rejected review created a place: %+v", results.Results)
	}

	resp = server.PostJSON(t, "/api/reviews", token, map[string]any{
		"place_address": "MG Road", "rating": 4,
	})
	AssertStatusCode(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestReviewsShareOnePlace(t *testing.T) {
	server := NewTestServer(t)
	alice := server.Register(t, "Alice", "9000000001")
	bob := server.Register(t, "Bob", "9000000002")

	p1 := server.AddReview(t, alice, "Star Cafe", "MG Road", "restaurant", 5, "great")
	p2 := server.AddReview(t, bob, "  Star Cafe  ", " MG Road ", "", 3, "okay")
	if p1 != p2 {
		t.Fatalf("expected both reviews on one place, got %s and %s", p1, p2)
	}

	results := server.search(t, alice, url.Values{"name": {"Star Cafe"}})
	if results.Count != 1 {
		t.Fatalf("expected 1 place, got %d", results.Count)
	}
	got := results.Results[0]
	if got.ReviewCount != 2 {
		t.Errorf("expected 2 reviews, got %d", got.ReviewCount)
	}
	if got.AverageRating == nil || *got.AverageRating != 4.0 {
		t.Errorf("expected average 4.0, got %v", got.AverageRating)
	}
	if got.Category != "restaurant" {
		t.Errorf("expected first writer's category kept, got %q", got.Category)
	}
}

func TestSearchRankingAndFilters(t *testing.T) {
	server := NewTestServer(t)
	alice := server.Register(t, "Alice", "9000000001")

	server.AddReview(t, alice, "Star Cafe Express", "HSR Layout", "restaurant", 5, "")
	server.AddReview(t, alice, "Star Cafe", "MG Road", "restaurant", 3, "")
	server.AddReview(t, alice, "Fresh Mart", "Indiranagar", "shop", 5, "")

	// Exact name match ranks above longer matches regardless of rating.
	results := server.search(t, alice, url.Values{"name": {"star cafe"}})
	if results.Count != 2 {
		t.Fatalf("expected 2 results, got %d", results.Count)
	}
	if results.Results[0].Name != "Star Cafe" || results.Results[1].Name != "Star Cafe Express" {
		t.Errorf("unexpected order: %q then %q", results.Results[0].Name, results.Results[1].Name)
	}

	// min_rating keeps only places at or above the threshold.
	results = server.search(t, alice, url.Values{"min_rating": {"4.0"}})
	if results.Count != 2 {
		t.Fatalf("expected 2 results with min_rating=4.0, got %d", results.Count)
	}
	results = server.search(t, alice, url.Values{"min_rating": {"4.5"}})
	for _, r := range results.Results {
		if r.AverageRating == nil || *r.AverageRating < 4.5 {
			t.Errorf("place %q below threshold: %v", r.Name, r.AverageRating)
		}
	}

	// A malformed min_rating is ignored rather than rejected.
	results = server.search(t, alice, url.Values{"min_rating": {"high"}})
	if results.Count != 3 {
		t.Errorf("expected malformed min_rating ignored, got %d results", results.Count)
	}

	// Category filter is independent of the name filter.
	results = server.search(t, alice, url.Values{"category": {"SHOP"}})
	if results.Count != 1 || results.Results[0].Name != "Fresh Mart" {
		t.Errorf("unexpected category results: %+v", results.Results)
	}

	resp := server.Get(t, "/api/places/search?category=hotel", alice)
	AssertStatusCode(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	// No filters returns everything, name ascending.
	results = server.search(t, alice, url.Values{})
	if results.Count != 3 {
		t.Fatalf("expected 3 results, got %d", results.Count)
	}
	want := []string{"Fresh Mart", "Star Cafe", "Star Cafe Express"}
	for i, name := range want {
		if results.Results[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, results.Results[i].Name)
		}
	}
}

func TestPlaceDetailPinsViewerReviews(t *testing.T) {
	server := NewTestServer(t)
	alice := server.Register(t, "Alice", "9000000001")
	bob := server.Register(t, "Bob", "9000000002")
	carol := server.Register(t, "Carol", "9000000003")

	placeID := server.AddReview(t, alice, "Star Cafe", "MG Road", "restaurant", 5, "mine, older")
	server.AddReview(t, bob, "Star Cafe", "MG Road", "", 3, "someone else")
	server.AddReview(t, carol, "Star Cafe", "MG Road", "", 4, "someone else too")

	resp := server.Get(t, "/api/places/"+placeID, alice)
	AssertStatusCode(t, resp, http.StatusOK)
	var detail placeDetailResponse
	DecodeJSON(t, resp, &detail)
	resp.Body.Close()

	if detail.ReviewCount != 3 || len(detail.Reviews) != 3 {
		t.Fatalf("expected 3 reviews, got count=%d len=%d", detail.ReviewCount, len(detail.Reviews))
	}
	if detail.AverageRating == nil || *detail.AverageRating != 4.0 {
		t.Errorf("expected average 4.0, got %v", detail.AverageRating)
	}

	// Alice sees her own review first even though it is the oldest,
	// then the others newest first.
	if detail.Reviews[0].UserName != "Alice" {
		t.Errorf("expected viewer's review first, got %q", detail.Reviews[0].UserName)
	}
	if detail.Reviews[1].UserName != "Carol" || detail.Reviews[2].UserName != "Bob" {
		t.Errorf("unexpected order for others: %q then %q", detail.Reviews[1].UserName, detail.Reviews[2].UserName)
	}

	// Bob sees his own pinned instead.
	resp = server.Get(t, "/api/places/"+placeID, bob)
	DecodeJSON(t, resp, &detail)
	resp.Body.Close()
	if detail.Reviews[0].UserName != "Bob" {
		t.Errorf("expected Bob's review first, got %q", detail.Reviews[0].UserName)
	}

	resp = server.Get(t, "/api/places/does-not-exist", alice)
	AssertStatusCode(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestSearchSerializesAverageAsNumber(t *testing.T) {
	server := NewTestServer(t)
	alice := server.Register(t, "Alice", "9000000001")

	server.AddReview(t, alice, "Star Cafe", "MG Road", "restaurant", 4, "")

	resp := server.Get(t, "/api/places/search?name=Star+Cafe", alice)
	defer resp.Body.Close()
	var raw struct {
		Results []json.RawMessage `json:"results"`
	}
	DecodeJSON(t, resp, &raw)
	if len(raw.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(raw.Results))
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw.Results[0], &fields); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if string(fields["average_rating"]) != "4" {
		t.Errorf("expected average_rating 4, got %s", fields["average_rating"])
	}
}

func TestRateLimitRejectsExcessRequests(t *testing.T) {
	server := newTestServer(t, &fixedCounter{count: 101})
	token := server.Register(t, "Alice", "9000000001")

	resp := server.Get(t, "/api/places/search", token)
	AssertStatusCode(t, resp, http.StatusTooManyRequests)
	resp.Body.Close()

	// Auth endpoints stay reachable so users can still log in.
	resp = server.PostJSON(t, "/api/auth/login", "", map[string]string{
		"phone": "9000000001", "password": "password123",
	})
	AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()
}
