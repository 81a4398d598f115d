package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/perfumes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/perfumes/{id}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/perfumes/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.InDelta(t, before+3, testutil.ToFloat64(counter), 0.001)
}

func TestObserveExternalCall(t *testing.T) {
	counter := ExternalCalls.WithLabelValues("weather_test", OutcomeFallback)
	before := testutil.ToFloat64(counter)

	ObserveExternalCall("weather_test", OutcomeFallback, time.Second)

	assert.InDelta(t, before+1, testutil.ToFloat64(counter), 0.001)
}

func TestHandlerExposesCollectors(t *testing.T) {
	PerfumeViews.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "weatherscent_perfume_views_total")
}
