package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/service"
)

const multipartMemory = 8 << 20

var (
	errYearNotNumber = errors.New("year must be a whole number")
	errTooLarge      = errors.New("upload is too large")
)

// artworkForm is a parsed multipart create request. Close releases the
// uploaded file. Parsed is false when no field could be read, in which case
// the client's form must be left as it is.
type artworkForm struct {
	Draft  model.Draft
	Upload *service.Upload
	Parsed bool
	file   multipart.File
}

func (f *artworkForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
	if f.Upload != nil {
		f.Upload.Body = nil
	}
}

// parseArtworkForm reads the draft fields and the "image" file. A missing
// file is not an error here; the service rejects it. The draft is returned
// even when the year is malformed so the form can be redisplayed.
func parseArtworkForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*artworkForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		form := partialForm(r)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return form, fmt.Errorf("%w (max %d MB)", errTooLarge, maxBytes>>20)
		}
		return form, fmt.Errorf("failed to parse form: %w", err)
	}

	form := &artworkForm{Draft: draftFromValues(r.Form), Parsed: true}

	year, err := parseYear(r.Form.Get("year"))
	if err != nil {
		return form, err
	}
	form.Draft.Year = year

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return form, fmt.Errorf("failed to read image: %w", err)
	}

	form.file = file
	form.Upload = &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return form, nil
}

// partialForm keeps whatever fields were read before parsing failed
func partialForm(r *http.Request) *artworkForm {
	values := r.PostForm
	if r.MultipartForm != nil && len(r.MultipartForm.Value) > 0 {
		values = r.MultipartForm.Value
	}
	if len(values) == 0 {
		return &artworkForm{}
	}

	form := &artworkForm{Draft: draftFromValues(values), Parsed: true}
	if year, err := parseYear(values.Get("year")); err == nil {
		form.Draft.Year = year
	}
	return form
}

func draftFromValues(values url.Values) model.Draft {
	return model.Draft{
		Title:       values.Get("title"),
		Artist:      values.Get("artist"),
		Description: values.Get("description"),
		Category:    values.Get("category"),
	}
}

// parseYear accepts an empty value as unknown
func parseYear(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, errYearNotNumber
	}
	return year, nil
}

// userMessage turns a service error into a toast title and description
func userMessage(err error) (string, string) {
	switch {
	case errors.Is(err, service.ErrImageRequired):
		return "Image required", "Choose an image file to upload."
	case errors.Is(err, service.ErrInvalidDraft):
		return "Invalid artwork", strings.TrimPrefix(err.Error(), service.ErrInvalidDraft.Error()+": ")
	case errors.Is(err, errYearNotNumber), errors.Is(err, errTooLarge):
		return "Invalid artwork", err.Error()
	case errors.Is(err, service.ErrUpload):
		return "Upload failed", "The image could not be stored. Your entries were kept, please try again."
	case errors.Is(err, service.ErrPersist):
		return "Save failed", "The image was uploaded but the artwork could not be saved. Please try again."
	case errors.Is(err, service.ErrList):
		return "Loading failed", "The artworks could not be loaded."
	case errors.Is(err, service.ErrDelete):
		return "Remove failed", "The artworks could not be removed."
	case errors.Is(err, service.ErrNotFound):
		return "Not found", "This artwork no longer exists."
	default:
		return "Error", "Something went wrong. Please try again."
	}
}
