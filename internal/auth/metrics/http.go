package metrics

import (
	"net/http"
	"time"
)

// unmatchedRoute labels requests no mux pattern claimed, so scanners can't
// blow up label cardinality with arbitrary paths.
const unmatchedRoute = "unmatched"

// HTTPMiddleware records request latency per route pattern. It must wrap
// the ServeMux directly: the mux sets r.Pattern on the request it receives.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		ObserveHTTP(route, rec.status, time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
