package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storytime_ai_requests_total",
			Help: "Total number of generation requests by operation, model and status.",
		},
		[]string{"operation", "model", "status"},
	)

	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storytime_ai_request_duration_seconds",
			Help:    "Duration of generation requests in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		},
		[]string{"operation", "model"},
	)

	aiTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storytime_ai_tokens_total",
			Help: "Total number of tokens consumed by kind (prompt, completion).",
		},
		[]string{"model", "kind"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storytime_generations_total",
			Help: "Total number of persisted generations by kind.",
		},
		[]string{"kind"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storytime_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storytime_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveAIRequest records the outcome and latency of a generation call
func ObserveAIRequest(operation, model, status string, duration time.Duration) {
	aiRequestsTotal.WithLabelValues(operation, model, status).Inc()
	aiRequestDuration.WithLabelValues(operation, model).Observe(duration.Seconds())
}

// AddTokens records token usage reported by the provider
func AddTokens(model string, prompt, completion int) {
	aiTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	aiTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
}

// IncGenerations counts a persisted story, adventure segment, image or video
func IncGenerations(kind string) {
	generationsTotal.WithLabelValues(kind).Inc()
}

// ObserveHTTPRequest records a finished HTTP request
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
