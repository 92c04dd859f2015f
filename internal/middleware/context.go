package middleware

import (
	"net/http"

	"github.com/zopapami/artgallery/internal/config"
	"github.com/zopapami/artgallery/internal/ctxkeys"
)

// Config adds the sanitized app configuration to the request context.
// Storage credentials never reach templates.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	sanitized := cfg.Sanitized()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), sanitized)
			ctx = ctxkeys.WithURLPath(ctx, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
