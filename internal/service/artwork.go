package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zopapami/artgallery/internal/markdown"
	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/repository"
	"github.com/zopapami/artgallery/internal/storage"
	"github.com/zopapami/artgallery/internal/validation"
)

var (
	ErrImageRequired = errors.New("an image file is required")
	ErrInvalidDraft  = errors.New("invalid artwork")
	ErrUpload        = errors.New("image upload failed")
	ErrPersist       = errors.New("saving artwork failed")
	ErrList          = errors.New("loading artworks failed")
	ErrDelete        = errors.New("removing artworks failed")
	ErrNotFound      = errors.New("artwork not found")
)

var artworkCreateTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gallery_artwork_create_total",
		Help: "Create-artwork runs by outcome.",
	},
	[]string{"result"},
)

// RecordStore persists artwork records. Implemented by the SQL repository
// and by the REST client.
type RecordStore interface {
	Create(ctx context.Context, artwork *model.Artwork) (*model.Artwork, error)
	All(ctx context.Context) ([]*model.Artwork, error)
	ByID(ctx context.Context, id string) (*model.Artwork, error)
	DeleteAll(ctx context.Context) (int64, error)
}

var _ RecordStore = (repository.ArtworkRepository)(nil)

// Upload is the single image file that goes with a draft.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Preview is an artwork with its description rendered for display.
type Preview struct {
	Artwork     *model.Artwork
	Description template.HTML
}

type ArtworkService struct {
	records  RecordStore
	storage  storage.Storage
	cache    *PreviewCache
	markdown *markdown.Parser
}

func NewArtworkService(records RecordStore, store storage.Storage, cache *PreviewCache) *ArtworkService {
	return &ArtworkService{
		records:  records,
		storage:  store,
		cache:    cache,
		markdown: markdown.NewParser(),
	}
}

// Create uploads the image, resolves its reference and persists the record.
// Each step runs only after the previous one succeeded, so a record is never
// stored without a committed image. The returned record is the one the
// record store confirmed.
func (s *ArtworkService) Create(ctx context.Context, draft model.Draft, upload *Upload) (*model.Artwork, error) {
	artwork, err := s.create(ctx, draft, upload)
	switch {
	case err == nil:
		artworkCreateTotal.WithLabelValues("success").Inc()
	case errors.Is(err, ErrUpload):
		artworkCreateTotal.WithLabelValues("upload_failed").Inc()
	case errors.Is(err, ErrPersist):
		artworkCreateTotal.WithLabelValues("persist_failed").Inc()
	default:
		artworkCreateTotal.WithLabelValues("invalid").Inc()
	}
	return artwork, err
}

func (s *ArtworkService) create(ctx context.Context, draft model.Draft, upload *Upload) (*model.Artwork, error) {
	if upload == nil || upload.Body == nil || strings.TrimSpace(upload.Filename) == "" {
		return nil, ErrImageRequired
	}

	draft, err := s.prepare(draft)
	if err != nil {
		return nil, err
	}

	key, err := storage.ObjectKey(storage.ArtworkPrefix, upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageRequired, err)
	}

	err = s.storage.Save(ctx, key, upload.Body, upload.ContentType)
	if err != nil {
		slog.Error("artwork image upload failed", "error", err, "path", key)
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	imageURL, err := s.storage.URL(ctx, key)
	if err != nil {
		slog.Error("artwork image reference failed", "error", err, "path", key)
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	created, err := s.records.Create(ctx, draft.Artwork(imageURL, key))
	if err != nil {
		// The object stays: keys are shared by filename and may back other records.
		slog.Error("artwork record create failed", "error", err, "path", key)
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	slog.Info("artwork created", "id", created.ID, "title", created.Title, "path", key)
	return created, nil
}

// CreateRecord persists a record for an image that is already stored.
func (s *ArtworkService) CreateRecord(ctx context.Context, draft model.Draft, imageURL, imagePath string) (*model.Artwork, error) {
	draft, err := s.prepare(draft)
	if err != nil {
		return nil, err
	}

	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, fmt.Errorf("%w: imageURL is required", ErrInvalidDraft)
	}

	created, err := s.records.Create(ctx, draft.Artwork(imageURL, strings.TrimSpace(imagePath)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return created, nil
}

func (s *ArtworkService) List(ctx context.Context) ([]*model.Artwork, error) {
	artworks, err := s.records.All(ctx)
	if err != nil {
		slog.Error("failed to list artworks", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrList, err)
	}
	return artworks, nil
}

func (s *ArtworkService) ByID(ctx context.Context, id string) (*model.Artwork, error) {
	artwork, err := s.records.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrArtworkNotFound) || errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return artwork, nil
}

// Preview returns an artwork with its description rendered, served from
// the cache when possible.
func (s *ArtworkService) Preview(ctx context.Context, id string) (*Preview, error) {
	if s.cache != nil {
		if preview, ok := s.cache.Get(id); ok {
			return preview, nil
		}
	}

	artwork, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	description, err := s.markdown.Render(artwork.Description)
	if err != nil {
		slog.Warn("failed to render description, showing plain text", "error", err, "id", id)
		description = template.HTML(template.HTMLEscapeString(artwork.Description)) //nolint:gosec // escaped
	}

	preview := &Preview{Artwork: artwork, Description: description}
	if s.cache != nil {
		s.cache.Set(id, preview)
	}
	return preview, nil
}

// RemoveAll deletes every record. There is no undo. Stored images are kept.
func (s *ArtworkService) RemoveAll(ctx context.Context) (int64, error) {
	n, err := s.records.DeleteAll(ctx)
	if s.cache != nil {
		s.cache.Purge()
	}
	if err != nil {
		slog.Error("failed to remove artworks", "error", err)
		return 0, fmt.Errorf("%w: %w", ErrDelete, err)
	}

	slog.Info("all artworks removed", "count", n)
	return n, nil
}

// PurgeAll removes every record, then the stored images they referenced.
// Records referring to the same image share one delete; images that are
// already gone are skipped.
func (s *ArtworkService) PurgeAll(ctx context.Context) (int64, int, error) {
	artworks, err := s.List(ctx)
	if err != nil {
		return 0, 0, err
	}

	n, err := s.RemoveAll(ctx)
	if err != nil {
		return 0, 0, err
	}

	var (
		purged int
		errs   []error
		seen   = make(map[string]bool, len(artworks))
	)
	for _, a := range artworks {
		if a.ImagePath == "" || seen[a.ImagePath] {
			continue
		}
		seen[a.ImagePath] = true

		err := s.storage.Delete(ctx, a.ImagePath)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.ImagePath, err))
			continue
		}
		purged++
	}

	if len(errs) > 0 {
		slog.Error("failed to purge images", "failed", len(errs), "purged", purged)
		return n, purged, fmt.Errorf("%w: %w", ErrDelete, errors.Join(errs...))
	}
	slog.Info("images purged", "count", purged)
	return n, purged, nil
}

// prepare trims and validates the draft. Text is kept as typed; it is
// escaped wherever it is rendered.
func (s *ArtworkService) prepare(draft model.Draft) (model.Draft, error) {
	draft = draft.Trimmed()

	if err := validation.ValidateDraft(draft); err != nil {
		return draft, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	return draft, nil
}
