package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ArtworkPrefix is the namespace reserved for artwork images.
const ArtworkPrefix = "artworks"

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Storage defines the interface for object storage operations
type Storage interface {
	// Save stores an object at the given path, replacing any existing one
	Save(ctx context.Context, path string, file io.Reader, contentType string) error

	// URL resolves a retrieval reference for a committed object.
	// Returns ErrNotFound if nothing was saved at path.
	URL(ctx context.Context, path string) (string, error)

	// Delete removes the object at the given path
	Delete(ctx context.Context, path string) error
}

// ObjectKey derives the storage key for an uploaded file from its original
// name. Directory components are dropped and the name is NFC-normalised so
// the same file picked on different platforms maps to the same key.
func ObjectKey(prefix, filename string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(filename))
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	switch name {
	case "", ".", "..", "/":
		return "", ErrInvalidKey
	}

	return path.Join(prefix, name), nil
}

// escapeKey escapes every segment of an object key for use in a URL path.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
