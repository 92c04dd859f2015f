package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zopapami/artgallery/internal/service"
	"github.com/zopapami/artgallery/internal/ui"
	"github.com/zopapami/artgallery/internal/ui/components/toast"
	"github.com/zopapami/artgallery/internal/ui/pages"
)

const (
	toastTarget   = "beforeend:#toast-container"
	gridTarget    = "innerHTML:#gallery-grid"
	previewTarget = "innerHTML:#artwork-preview"
)

type GalleryHandler struct {
	artworkService *service.ArtworkService
	maxUpload      int64
}

func NewGalleryHandler(artworkService *service.ArtworkService, maxUpload int64) *GalleryHandler {
	return &GalleryHandler{
		artworkService: artworkService,
		maxUpload:      maxUpload,
	}
}

// GalleryPage renders the grid. ?active=<id> preselects an artwork, used
// when coming back from the detail page.
func (h *GalleryHandler) GalleryPage(w http.ResponseWriter, r *http.Request) {
	page := pages.GalleryPage{View: pages.NewGalleryView(nil)}

	artworks, err := h.artworkService.List(r.Context())
	if err != nil {
		_, page.Alert = userMessage(err)
		ui.Render(w, r, pages.Gallery(page))
		return
	}
	page.View.Refresh(artworks)

	if active := r.URL.Query().Get("active"); active != "" && page.View.SelectID(active) {
		preview, err := h.artworkService.Preview(r.Context(), active)
		if err != nil {
			slog.Warn("failed to load active preview", "error", err, "id", active)
			page.View.ClearActive()
		} else {
			page.Preview = preview
		}
	}

	ui.Render(w, r, pages.Gallery(page))
}

// Preview renders the hover pane for one artwork
func (h *GalleryHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	preview, err := h.artworkService.Preview(r.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			slog.Error("failed to load preview", "error", err, "id", id)
		}
		ui.Render(w, r, pages.PreviewEmpty())
		title, description := userMessage(err)
		ui.RenderOOB(w, r, toast.Error(title, description), toastTarget)
		return
	}

	ui.Render(w, r, pages.Preview(preview))
}

// Detail is the page a double-click on a tile opens
func (h *GalleryHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	preview, err := h.artworkService.Preview(r.Context(), id)
	if err != nil && ui.IsHTMX(r) {
		// keep the grid in place and explain why
		if !errors.Is(err, service.ErrNotFound) {
			slog.Error("failed to load artwork", "error", err, "id", id)
		}
		w.Header().Set("HX-Reswap", "none")
		title, description := userMessage(err)
		ui.RenderOOB(w, r, toast.Error(title, description), toastTarget)
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		ui.Render(w, r, pages.NotFound())
		return
	}
	if err != nil {
		slog.Error("failed to load artwork", "error", err, "id", id)
		http.Error(w, "Failed to load artwork", http.StatusInternalServerError)
		return
	}

	// If HTMX request, only render the content portion
	if ui.IsHTMX(r) {
		ui.Render(w, r, pages.ArtworkDetailContent(preview))
		return
	}
	ui.Render(w, r, pages.ArtworkDetail(preview))
}

// Create runs the upload-then-persist sequence for the modal form. On
// failure the form comes back with the draft intact; on success it is reset
// and the grid is refreshed from the record store.
func (h *GalleryHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseArtworkForm(w, r, h.maxUpload)
	defer form.Close()
	if err != nil {
		h.formError(w, r, form, err)
		return
	}

	created, err := h.artworkService.Create(r.Context(), form.Draft, form.Upload)
	if err != nil {
		h.formError(w, r, form, err)
		return
	}

	view := pages.NewGalleryView(nil)
	artworks, listErr := h.artworkService.List(r.Context())
	if listErr == nil {
		view.Refresh(artworks)
		view.SelectID(created.ID)
	}

	w.Header().Set("HX-Trigger", "artwork-created")
	ui.Render(w, r, pages.ArtworkForm(pages.FormState{}))
	if listErr != nil {
		title, description := userMessage(listErr)
		ui.RenderOOB(w, r, toast.Error(title, description), toastTarget)
	} else {
		ui.RenderOOB(w, r, pages.Grid(view), gridTarget)
	}
	ui.RenderOOB(w, r, toast.Success("Artwork added", fmt.Sprintf("%q was added to the gallery.", created.Title)), toastTarget)
}

func (h *GalleryHandler) formError(w http.ResponseWriter, r *http.Request, form *artworkForm, err error) {
	title, description := userMessage(err)
	if !form.Parsed {
		// Nothing to redisplay, keep the inputs in the browser
		w.Header().Set("HX-Reswap", "none")
		ui.RenderOOB(w, r, toast.Error(title, description), toastTarget)
		return
	}
	ui.Render(w, r, pages.ArtworkForm(pages.FormState{Draft: form.Draft, Error: description}))
	ui.RenderOOB(w, r, toast.Error(title, description), toastTarget)
}

// RemoveAll deletes every record, then re-lists and clears the selection.
func (h *GalleryHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.artworkService.RemoveAll(r.Context())
	if err != nil {
		w.Header().Set("HX-Reswap", "none")
		title, description := userMessage(err)
		ui.RenderOOB(w, r, toast.Error(title, description), toastTarget)
		return
	}

	w.Header().Set("HX-Trigger", "artworks-removed")

	view := pages.NewGalleryView(nil)
	artworks, listErr := h.artworkService.List(r.Context())
	if listErr == nil {
		view.Refresh(artworks)
	}
	view.ClearActive()

	ui.Render(w, r, pages.Grid(view))
	ui.RenderOOB(w, r, pages.PreviewEmpty(), previewTarget)
	if listErr != nil {
		title, description := userMessage(listErr)
		ui.RenderOOB(w, r, toast.Error(title, description), toastTarget)
	}
	ui.RenderOOB(w, r, toast.Success("Artworks removed", fmt.Sprintf("%d artworks were removed.", n)), toastTarget)
}
