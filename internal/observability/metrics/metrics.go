package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instahyre_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "instahyre_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	reviewsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instahyre_reviews_created_total",
		Help: "Count of reviews created, by place category",
	}, []string{"category"})

	placeResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instahyre_place_resolutions_total",
		Help: "Count of place resolve-or-create outcomes",
	}, []string{"outcome"})

	searchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "instahyre_search_result_count",
		Help:    "Number of places returned per search query",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	placesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "instahyre_places_total",
		Help: "Total number of places in the store",
	})

	reviewsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "instahyre_reviews_total",
		Help: "Total number of reviews in the store",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveReviewCreated increments the review counter for a category.
func ObserveReviewCreated(category string) {
	reviewsCreated.WithLabelValues(category).Inc()
}

// ObservePlaceResolution records a resolver outcome: existing, created
// or race_recovered.
func ObservePlaceResolution(outcome string) {
	placeResolutions.WithLabelValues(outcome).Inc()
}

// ObserveSearch records the result count of one search query.
func ObserveSearch(resultCount int) {
	searchResults.Observe(float64(resultCount))
}

// SetPlacesTotal sets the places gauge to the current store count.
func SetPlacesTotal(count int) {
	if count < 0 {
		count = 0
	}
	placesTotal.Set(float64(count))
}

// SetReviewsTotal sets the reviews gauge to the current store count.
func SetReviewsTotal(count int) {
	if count < 0 {
		count = 0
	}
	reviewsTotal.Set(float64(count))
}
