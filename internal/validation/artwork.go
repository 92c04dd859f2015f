package validation

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/zopapami/artgallery/internal/model"
)

const (
	maxTitleLength       = 200
	maxArtistLength      = 200
	maxCategoryLength    = 100
	maxDescriptionLength = 10000
)

// ValidateDraft checks the fields of a new artwork. Year 0 means unknown.
func ValidateDraft(d model.Draft) error {
	if d.Title == "" {
		return errors.New("title is required")
	}

	if err := maxLength("title", d.Title, maxTitleLength); err != nil {
		return err
	}
	if err := maxLength("artist", d.Artist, maxArtistLength); err != nil {
		return err
	}
	if err := maxLength("collection", d.Category, maxCategoryLength); err != nil {
		return err
	}
	if err := maxLength("description", d.Description, maxDescriptionLength); err != nil {
		return err
	}

	if d.Year < 0 {
		return errors.New("year cannot be negative")
	}
	if d.Year > time.Now().Year() {
		return fmt.Errorf("year cannot be after %d", time.Now().Year())
	}

	return nil
}

func maxLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%s is too long (max %d characters)", field, limit)
	}
	return nil
}
