package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/zopapami/artgallery/internal/config"
)

// Script CDNs the layout loads htmx and tailwind from
var scriptOrigins = []string{
	"https://unpkg.com",
	"https://cdn.tailwindcss.com",
}

// SecurityHeaders sets the CSP and the usual hardening headers. Images may
// come from the app itself or from the configured object store.
func SecurityHeaders(cfg *config.Config) func(http.Handler) http.Handler {
	imgSrc := []string{"'self'", "data:"}
	for _, raw := range []string{cfg.S3PublicURL, cfg.S3Endpoint} {
		if origin := originOf(raw); origin != "" {
			imgSrc = append(imgSrc, origin)
		}
	}
	if cfg.StorageDriver == config.StorageS3 && cfg.S3PublicURL == "" && cfg.S3Endpoint == "" {
		// presigned AWS URLs
		imgSrc = append(imgSrc, "https://*.amazonaws.com")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scriptSrc := "'self' " + strings.Join(scriptOrigins, " ")
			if nonce := GetNonce(r.Context()); nonce != "" {
				scriptSrc += fmt.Sprintf(" 'nonce-%s'", nonce)
			}

			csp := strings.Join([]string{
				"default-src 'self'",
				"script-src " + scriptSrc,
				"style-src 'self' 'unsafe-inline'",
				"img-src " + strings.Join(imgSrc, " "),
				"form-action 'self'",
				"frame-ancestors 'none'",
				"base-uri 'self'",
			}, "; ")

			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if cfg.Secure() {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originOf reduces a base URL to scheme://host
func originOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
