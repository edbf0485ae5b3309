package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mmynk/choreshare/internal/metrics"
)

// RequestLogger logs every request once it completes and records it in the
// HTTP metrics. Client errors are logged as warnings, server errors as errors.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

		args := []any{
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"duration_ms", elapsed.Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("Request failed", args...)
		case status >= http.StatusBadRequest:
			slog.Warn("Request rejected", args...)
		default:
			slog.Info("Request ok", args...)
		}
	})
}

// routePattern returns the matched chi pattern so metric labels stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
