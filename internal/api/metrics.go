package api

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/gpinterp/internal/httputil"
)

// metrics lives on its own registry so several Servers (tests) can coexist.
type metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	rateLimitRejects prometheus.Counter
	panicRecoveries  prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &metrics{
		registry: reg,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gpinterp_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gpinterp_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "gpinterp_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
		rateLimitRejects: f.NewCounter(
			prometheus.CounterOpts{
				Name: "gpinterp_rate_limit_rejects_total",
				Help: "Total number of requests rejected due to rate limiting",
			},
		),
		panicRecoveries: f.NewCounter(
			prometheus.CounterOpts{
				Name: "gpinterp_panic_recoveries_total",
				Help: "Total number of panics recovered in HTTP handlers",
			},
		),
	}
}

var knownPaths = map[string]bool{
	"/predict":             true,
	"/predict/heatmap.png": true,
	"/predict/chart":       true,
	"/text/entropy":        true,
	"/health":              true,
	"/health/model":        true,
	"/version":             true,
	"/metrics":             true,
}

// pathLabel folds unknown paths into one label to bound cardinality.
func pathLabel(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		s.metrics.requestsInFlight.Inc()
		defer s.metrics.requestsInFlight.Dec()

		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)

		path := pathLabel(r.URL.Path)
		s.metrics.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(lrw.statusCode)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, path).Observe(s.clock.Since(start).Seconds())
	})
}

func (s *Server) showMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	s.metrics.handler.ServeHTTP(w, r)
}
