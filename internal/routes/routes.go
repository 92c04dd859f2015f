package routes

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zopapami/artgallery/assets"
	"github.com/zopapami/artgallery/internal/app"
	"github.com/zopapami/artgallery/internal/handler"
	"github.com/zopapami/artgallery/internal/middleware"
	"github.com/zopapami/artgallery/internal/storage"
)

// Write limits per client address. The API serves bulk imports from a
// single CLI, so it gets more room than the browser form.
const (
	adminWriteLimit = 30
	apiWriteLimit   = 600
	writeWindow     = time.Minute
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.DB)
	gallery := handler.NewGalleryHandler(app.ArtworkService, app.Cfg.UploadMaxBytes)
	records := handler.NewRecordHandler(app.ArtworkService, app.Cfg.UploadMaxBytes)

	adminLimit := middleware.RateLimitWrites(adminWriteLimit, writeWindow, app.Cfg.TrustProxy)
	apiLimit := middleware.RateLimitWrites(apiWriteLimit, writeWindow, app.Cfg.TrustProxy)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))

	// Uploaded images, only when they live on local disk
	if app.Files != nil {
		mux.Handle("GET "+storage.UploadsRoute, http.StripPrefix(storage.UploadsRoute, http.FileServer(http.Dir(app.Files.Dir()))))
	}

	// Home
	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /health", home.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// ============================================================================
	// ADMIN (/admin/*)
	// ============================================================================

	mux.HandleFunc("GET /admin/artworks", gallery.GalleryPage)
	mux.HandleFunc("GET /admin/artworks/{id}", gallery.Detail)
	mux.HandleFunc("GET /admin/artworks/{id}/preview", gallery.Preview)
	mux.HandleFunc("POST /admin/artworks", adminLimit(gallery.Create))
	mux.HandleFunc("DELETE /admin/artworks", adminLimit(gallery.RemoveAll))

	// ============================================================================
	// API (/api/*)
	// ============================================================================

	mux.HandleFunc("GET /api/records", records.List)
	mux.HandleFunc("GET /api/records/{id}", records.Get)
	mux.HandleFunc("POST /api/records", apiLimit(records.Create))
	mux.HandleFunc("DELETE /api/records", apiLimit(records.DeleteAll))
	mux.HandleFunc("POST /api/artworks", apiLimit(records.CreateArtwork))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,           // Outermost so it sees the final status
		middleware.Metrics,                  // Request counts and latency per route
		middleware.Config(app.Cfg),          // Sanitized config + URL path for templates
		middleware.NonceMiddleware,          // Must run before SecurityHeaders
		middleware.SecurityHeaders(app.Cfg), // CSP, frame and content-type headers
		middleware.CSRFProtection,           // Tokens for forms, origin check for /api/
	)

	return handler
}
