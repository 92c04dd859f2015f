package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zopapami/artgallery/internal/model"
)

var (
	ErrArtworkNotFound = errors.New("artwork not found")
)

const artworkColumns = `id, title, artist, year, description, category, image_url, image_path, created_at`

// Queries use ? placeholders and are rebound for the connected driver.
const (
	insertArtworkQuery = `INSERT INTO artworks (` + artworkColumns + `)
	                      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	artworkByIDQuery = `SELECT ` + artworkColumns + ` FROM artworks WHERE id = ?`
)

type ArtworkRepository interface {
	Create(ctx context.Context, artwork *model.Artwork) (*model.Artwork, error)
	All(ctx context.Context) ([]*model.Artwork, error)
	ByID(ctx context.Context, id string) (*model.Artwork, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type artworkRepository struct {
	db *sqlx.DB
}

func NewArtworkRepository(db *sqlx.DB) *artworkRepository {
	return &artworkRepository{db: db}
}

// Create assigns the id and creation time, inserts the row and returns it
// as stored. The caller's value is left untouched.
func (r *artworkRepository) Create(ctx context.Context, artwork *model.Artwork) (*model.Artwork, error) {
	record := *artwork
	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err := r.db.ExecContext(ctx, r.db.Rebind(insertArtworkQuery),
		record.ID,
		record.Title,
		record.Artist,
		record.Year,
		record.Description,
		record.Category,
		record.ImageURL,
		record.ImagePath,
		record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return r.ByID(ctx, record.ID)
}

func (r *artworkRepository) All(ctx context.Context) ([]*model.Artwork, error) {
	artworks := []*model.Artwork{}
	query := `SELECT ` + artworkColumns + ` FROM artworks ORDER BY created_at DESC, id`

	err := r.db.SelectContext(ctx, &artworks, query)
	if err != nil {
		return nil, err
	}

	return artworks, nil
}

func (r *artworkRepository) ByID(ctx context.Context, id string) (*model.Artwork, error) {
	artwork := &model.Artwork{}
	err := r.db.GetContext(ctx, artwork, r.db.Rebind(artworkByIDQuery), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtworkNotFound
	}
	if err != nil {
		return nil, err
	}

	return artwork, nil
}

// DeleteAll removes every record and reports how many were deleted.
// There is no undo.
func (r *artworkRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM artworks`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
