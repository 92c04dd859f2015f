package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zopapami/artgallery/internal/ui"
	"github.com/zopapami/artgallery/internal/ui/pages"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HomeHandler struct {
	db Pinger
}

func NewHomeHandler(db Pinger) *HomeHandler {
	return &HomeHandler{db: db}
}

// HomePage sends visitors to the admin screen, the only page there is
func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/artworks", http.StatusSeeOther)
}

func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		slog.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	ui.Render(w, r, pages.NotFound())
}
