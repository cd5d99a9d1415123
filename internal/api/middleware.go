package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/banshee-data/gpinterp/internal/httputil"
)

type contextKey string

const contextKeyRequestID contextKey = "requestID"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestIDFromContext returns the ID assigned by the request ID middleware,
// or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// corsMiddleware answers preflight requests and decorates every response
// with the allow headers. "*" in the allowed origins allows any origin.
// Requests from other origins pass through undecorated, preflights included.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowAll := slices.Contains(s.allowedOrigins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := true
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
		default:
			allowed = false
		}
		if !allowAll {
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && allowed {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			} else {
				w.Header().Set("Access-Control-Allow-Headers", "*")
			}
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware keeps a caller-supplied UUID or assigns a fresh one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.metrics.panicRecoveries.Inc()
				logger.Printf("panic recovered: request=%s %s %s: %v\n%s",
					RequestIDFromContext(r.Context()), r.Method, r.URL.Path, rec, debug.Stack())
				httputil.InternalServerError(w, internalErrorMessage)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := s.clock.Now()
		if !s.limiter.AllowN(now, 1) {
			s.metrics.rateLimitRejects.Inc()
			httputil.TooManyRequests(w, 1)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(int(math.Ceil(s.rateLimit))))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", int(s.limiter.TokensAt(now))))

		next.ServeHTTP(w, r)
	})
}
