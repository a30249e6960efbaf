package middleware

import (
	"net/http"
	"time"
)

type requestObserver interface {
	ObserveRequest(method string, pattern string, status int, seconds float64)
}

// Count requests and their duration by matched route pattern
// Must wrap the mux directly so the pattern is set on the same request
func MetricsMiddleware(o requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			o.ObserveRequest(r.Method, r.Pattern, sw.status, time.Since(start).Seconds())
		})
	}
}
