package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/middleware"
)

// Metrics records request counts and latencies labelled by route template
func Metrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			m.RecordHTTPRequest(r.Method, routeLabel(r), wrapped.Status(), time.Since(start))
		})
	}
}

// routeLabel returns the matched route template so ids stay out of labels
func routeLabel(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tmpl, err := current.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
