package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type requestObserver interface {
	Observe(method, route, status string, seconds float64)
}

// Metrics records request latency labelled by the matched chi route pattern,
// which keeps path parameters out of the label set.
func Metrics(observer requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			observer.Observe(r.Method, routePattern(r), strconv.Itoa(responseStatus(ww)), time.Since(start).Seconds())
		})
	}
}

// routePattern is only complete after the router has matched, so call it
// once next has returned.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
