package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOrderPlacedCounters(t *testing.T) {
	before := testutil.ToFloat64(ordersPlaced.WithLabelValues("cash"))
	revenueBefore := testutil.ToFloat64(orderRevenue)

	OrderPlaced("cash", 28.73)

	assert.Equal(t, before+1, testutil.ToFloat64(ordersPlaced.WithLabelValues("cash")))
	assert.InDelta(t, revenueBefore+28.73, testutil.ToFloat64(orderRevenue), 0.0001)
}

func TestLoginAttemptOutcomeLabels(t *testing.T) {
	before := testutil.ToFloat64(loginAttempts.WithLabelValues("admin", "failure"))
	LoginAttempt("admin", false)
	assert.Equal(t, before+1, testutil.ToFloat64(loginAttempts.WithLabelValues("admin", "failure")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	HTTPRequestStarted()
	HTTPRequestFinished(http.MethodGet, "/api/menu", "200", 0.01)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "savanna_http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/api/menu"`)
}
