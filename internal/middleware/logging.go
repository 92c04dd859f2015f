package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Paths to skip logging (static files, scrapes)
var skipLoggingPaths = []string{
	"/assets/",
	"/uploads/",
	"/metrics",
	"/favicon.ico",
}

// RequestLogging logs method, path, status and duration of each request.
// Server errors are logged at error level.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range skipLoggingPaths {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		start := time.Now()
		rw := newStatusRecorder(w)

		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		if rw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"htmx", r.Header.Get("HX-Request") == "true",
			"remote_addr", r.RemoteAddr,
		)
	})
}
