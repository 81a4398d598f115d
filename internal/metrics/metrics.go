// Package metrics registers the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ExternalCalls.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
	OutcomeRejected = "rejected"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherscent_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherscent_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ExternalCalls counts weather provider and language model calls.
	ExternalCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherscent_external_calls_total",
			Help: "Total number of external service calls by outcome",
		},
		[]string{"service", "outcome"},
	)

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherscent_external_call_duration_seconds",
			Help:    "Duration of external service calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weatherscent_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherscent_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	PerfumeViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherscent_perfume_views_total",
			Help: "Total number of perfume detail views recorded",
		},
	)

	SharedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherscent_shared_results_total",
			Help: "Combined recommendation cache operations by result",
		},
		[]string{"operation", "result"},
	)

	ScheduledTaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherscent_scheduled_task_runs_total",
			Help: "Scheduled task executions by task and result",
		},
		[]string{"task", "result"},
	)
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveExternalCall records one call to service.
func ObserveExternalCall(service, outcome string, duration time.Duration) {
	ExternalCalls.WithLabelValues(service, outcome).Inc()
	if outcome != OutcomeRejected && outcome != OutcomeFallback {
		ExternalCallDuration.WithLabelValues(service).Observe(duration.Seconds())
	}
}

// Middleware records request counts and latencies labelled with the chi
// route pattern rather than the raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
