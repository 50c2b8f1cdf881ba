package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAIRequest(t *testing.T) {
	before := testutil.ToFloat64(aiRequestsTotal.WithLabelValues("story", "test-model", "success"))
	ObserveAIRequest("story", "test-model", "success", 2*time.Second)
	after := testutil.ToFloat64(aiRequestsTotal.WithLabelValues("story", "test-model", "success"))
	assert.Equal(t, before+1, after)
}

func TestAddTokens(t *testing.T) {
	AddTokens("token-model", 10, 25)
	assert.Equal(t, float64(10), testutil.ToFloat64(aiTokensTotal.WithLabelValues("token-model", "prompt")))
	assert.Equal(t, float64(25), testutil.ToFloat64(aiTokensTotal.WithLabelValues("token-model", "completion")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveHTTPRequest(http.MethodGet, "/api/health", http.StatusOK, time.Millisecond)
	IncGenerations("story")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `storytime_http_requests_total{code="200",method="GET",route="/api/health"}`)
	assert.Contains(t, body, `storytime_generations_total{kind="story"}`)
}
