package model

import (
	"strings"
	"time"
)

// Artwork is a persisted gallery record. ImageURL references an object that
// was committed to the object store before the record was created.
type Artwork struct {
	ID          string    `db:"id"          json:"id"`
	Title       string    `db:"title"       json:"title"`
	Artist      string    `db:"artist"      json:"artist"`
	Year        int       `db:"year"        json:"year"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category"    json:"category"` // shown as "Collection" in the UI
	ImageURL    string    `db:"image_url"   json:"imageURL"`
	ImagePath   string    `db:"image_path"  json:"imagePath,omitempty"`
	CreatedAt   time.Time `db:"created_at"  json:"createdAt"`
}

// Draft is the not-yet-persisted form state for a new artwork.
type Draft struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Year        int    `json:"year"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Empty returns the blank draft a form resets to after a successful create.
func (Draft) Empty() Draft {
	return Draft{}
}

// Trimmed returns a copy with surrounding whitespace removed from text fields.
func (d Draft) Trimmed() Draft {
	return Draft{
		Title:       strings.TrimSpace(d.Title),
		Artist:      strings.TrimSpace(d.Artist),
		Year:        d.Year,
		Description: strings.TrimSpace(d.Description),
		Category:    strings.TrimSpace(d.Category),
	}
}

// Artwork merges the draft with a resolved image reference.
func (d Draft) Artwork(imageURL, imagePath string) *Artwork {
	return &Artwork{
		Title:       d.Title,
		Artist:      d.Artist,
		Year:        d.Year,
		Description: d.Description,
		Category:    d.Category,
		ImageURL:    imageURL,
		ImagePath:   imagePath,
	}
}
