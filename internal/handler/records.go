package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/service"
)

const maxRecordBody = 1 << 20

// RecordRequest is the body of POST /api/records
type RecordRequest struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Year        int    `json:"year"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageURL"`
	ImagePath   string `json:"imagePath,omitempty"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse is the body of DELETE /api/records
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// RecordHandler exposes the record store as a JSON API, plus the full
// create sequence for clients that upload the image through the server.
type RecordHandler struct {
	artworkService *service.ArtworkService
	maxUpload      int64
}

func NewRecordHandler(artworkService *service.ArtworkService, maxUpload int64) *RecordHandler {
	return &RecordHandler{
		artworkService: artworkService,
		maxUpload:      maxUpload,
	}
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	artworks, err := h.artworkService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artworks)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	artwork, err := h.artworkService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artwork)
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, ErrorResponse{Error: "Content-Type must be application/json"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRecordBody)

	var req RecordRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	draft := model.Draft{
		Title:       req.Title,
		Artist:      req.Artist,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
	}

	created, err := h.artworkService.CreateRecord(r.Context(), draft, req.ImageURL, req.ImagePath)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RecordHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.artworkService.RemoveAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// CreateArtwork is the multipart variant of the create sequence
func (h *RecordHandler) CreateArtwork(w http.ResponseWriter, r *http.Request) {
	form, err := parseArtworkForm(w, r, h.maxUpload)
	defer form.Close()
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}

	created, err := h.artworkService.Create(r.Context(), form.Draft, form.Upload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrImageRequired), errors.Is(err, service.ErrInvalidDraft):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUpload):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		slog.Error("api request failed", "error", err, "status", status)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
