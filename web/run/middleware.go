package webapp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivecat_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drivecat_http_request_duration_seconds",
			Help:    "HTTP request handling time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// responseWriter captures the status code and response size.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (wa *WebApp) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		logf := wa.Log.Infow
		switch {
		case wrapped.status >= 500:
			logf = wa.Log.Errorw
		case wrapped.status >= 400:
			logf = wa.Log.Warnw
		}
		logf("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"bytes", wrapped.written,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		route := routeLabel(r.URL.Path)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses path parameters so metric cardinality stays bounded.
func routeLabel(path string) string {
	switch {
	case path == "/healthz" || path == "/metrics":
		return path
	case matchPrefix(path, "/api/v1/roots/"):
		rest := path[len("/api/v1/roots/"):]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				return "/api/v1/roots/{alias}" + rest[i:]
			}
		}
		return "/api/v1/roots/{alias}"
	case matchPrefix(path, "/api/v1/jobs/"):
		rest := path[len("/api/v1/jobs/"):]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				return "/api/v1/jobs/{id}" + rest[i:]
			}
		}
		return "/api/v1/jobs/{id}"
	case matchPrefix(path, "/api/v1/schedules/"):
		return "/api/v1/schedules/{alias}"
	}
	return path
}

func matchPrefix(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix
}
