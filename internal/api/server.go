// Package api exposes the interpolation and entropy cores over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/banshee-data/gpinterp/internal/config"
	"github.com/banshee-data/gpinterp/internal/entropy"
	"github.com/banshee-data/gpinterp/internal/interp"
	"github.com/banshee-data/gpinterp/internal/monitoring"
	"github.com/banshee-data/gpinterp/internal/timeutil"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

var logger = monitoring.For("api")

// Server holds the per-process policy and collaborators shared by all
// handlers. The cores it calls are stateless; only the limiter and the
// metrics are shared between requests.
type Server struct {
	clock    timeutil.Clock
	analyzer *entropy.Analyzer
	interp   interp.Options

	maxTextLength  int
	maxPoints      int
	maxBodyBytes   int64
	allowedOrigins []string

	limiter   *rate.Limiter
	rateLimit float64

	metrics *metrics
}

// Option customises a Server.
type Option func(*Server)

// WithClock replaces the wall clock, for tests.
func WithClock(c timeutil.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// NewServer builds a Server from cfg. A nil cfg uses the defaults.
func NewServer(cfg *config.ServiceConfig, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.EmptyServiceConfig()
	}
	s := &Server{
		clock: timeutil.RealClock{},
		interp: interp.Options{
			GridSize:            cfg.GetGridSize(),
			LengthScale:         cfg.GetLengthScale(),
			Alpha:               cfg.GetAlpha(),
			OptimizeLengthScale: cfg.GetOptimizeLengthScale(),
		},
		maxTextLength:  cfg.GetMaxTextLength(),
		maxPoints:      cfg.GetMaxPoints(),
		maxBodyBytes:   cfg.GetMaxBodyBytes(),
		allowedOrigins: cfg.GetAllowedOrigins(),
		rateLimit:      cfg.GetRateLimit(),
		metrics:        newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(s.rateLimit), cfg.GetRateLimitBurst())
	}
	s.analyzer = entropy.NewAnalyzer(s.clock)
	return s
}

// MaxTextLength is the longest text, in characters, /text/entropy accepts.
func (s *Server) MaxTextLength() int { return s.maxTextLength }

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// loggingMiddleware logs method, path, query, status, and duration
func loggingMiddleware(clock timeutil.Clock, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clock.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(clock.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux registers every route. Each handler checks its own method so a
// wrong method gets a JSON 405 rather than the mux's plain-text one.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.predict)
	mux.HandleFunc("/predict/heatmap.png", s.predictHeatmap)
	mux.HandleFunc("/predict/chart", s.predictChart)
	mux.HandleFunc("/text/entropy", s.textEntropy)
	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/health/model", s.healthModel)
	mux.HandleFunc("/version", s.showVersion)
	mux.HandleFunc("/metrics", s.showMetrics)
	mux.HandleFunc("/", s.notFound)
	return mux
}

// Handler returns the routes wrapped in the full middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.ServeMux()
	h = loggingMiddleware(s.clock, h)
	h = s.rateLimitMiddleware(h)
	h = s.panicRecoveryMiddleware(h)
	h = requestIDMiddleware(h)
	h = s.metricsMiddleware(h)
	h = s.corsMiddleware(h)
	return h
}

// HTTPServer wraps Handler in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
