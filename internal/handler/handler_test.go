package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zopapami/artgallery/internal/db"
	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/repository"
	"github.com/zopapami/artgallery/internal/service"
	"github.com/zopapami/artgallery/internal/storage"
)

const testMaxUpload = 1 << 20

type fixture struct {
	db      *sqlx.DB
	objects *storage.MemoryStorage
	service *service.ArtworkService
	gallery *GalleryHandler
	records *RecordHandler
}

func newFixture(t *testing.T, objects storage.Storage) *fixture {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	mem := storage.NewMemoryStorage()
	if objects == nil {
		objects = mem
	}

	svc := service.NewArtworkService(
		repository.NewArtworkRepository(database),
		objects,
		service.NewPreviewCache(16, time.Minute),
	)
	return &fixture{
		db:      database,
		objects: mem,
		service: svc,
		gallery: NewGalleryHandler(svc, testMaxUpload),
		records: NewRecordHandler(svc, testMaxUpload),
	}
}

type failingStorage struct{ err error }

func (f failingStorage) Save(context.Context, string, io.Reader, string) error { return f.err }
func (f failingStorage) URL(context.Context, string) (string, error)         { return "", f.err }
func (f failingStorage) Delete(context.Context, string) error                { return f.err }

func multipartRequest(t *testing.T, target string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	return req
}

func starryFields() map[string]string {
	return map[string]string{
		"title":       "Starry Night",
		"artist":      "Van Gogh",
		"year":        "1889",
		"category":    "Post-Impressionism",
		"description": "Night sky",
	}
}

func countRecords(t *testing.T, f *fixture) int {
	t.Helper()
	all, err := f.service.List(context.Background())
	require.NoError(t, err)
	return len(all)
}

func TestGalleryCreate(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.gallery.Create(rec, multipartRequest(t, "/admin/artworks", starryFields(), "starry.jpg", []byte("pixels")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "artwork-created", rec.Header().Get("HX-Trigger"))

	body := rec.Body.String()
	assert.Contains(t, body, `id="artwork-form"`)
	assert.NotContains(t, body, `value="Starry Night"`, "form is reset after success")
	assert.Contains(t, body, `hx-swap-oob="innerHTML:#gallery-grid"`)
	assert.Contains(t, body, "Artwork added")
	assert.Equal(t, 1, countRecords(t, f))
}

func TestGalleryCreateWithoutImageKeepsDraft(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.gallery.Create(rec, multipartRequest(t, "/admin/artworks", starryFields(), "", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `value="Starry Night"`)
	assert.Contains(t, body, `value="1889"`)
	assert.Contains(t, body, "Image required")
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
	assert.Zero(t, countRecords(t, f))
}

func TestGalleryCreateUploadFailure(t *testing.T) {
	f := newFixture(t, failingStorage{err: errors.New("bucket offline")})

	rec := httptest.NewRecorder()
	f.gallery.Create(rec, multipartRequest(t, "/admin/artworks", starryFields(), "starry.jpg", []byte("pixels")))

	body := rec.Body.String()
	assert.Contains(t, body, "Upload failed")
	assert.Contains(t, body, `value="Starry Night"`)
	assert.Contains(t, body, "Night sky</textarea>")
	assert.Zero(t, countRecords(t, f), "no record without a stored image")
}

func TestGalleryCreateBadYear(t *testing.T) {
	f := newFixture(t, nil)

	fields := starryFields()
	fields["year"] = "late 1880s"

	rec := httptest.NewRecorder()
	f.gallery.Create(rec, multipartRequest(t, "/admin/artworks", fields, "starry.jpg", []byte("pixels")))

	body := rec.Body.String()
	assert.Contains(t, body, "year must be a whole number")
	assert.Contains(t, body, `value="Starry Night"`)
	assert.Zero(t, countRecords(t, f))
	assert.Zero(t, f.objects.Count())
}

func TestGalleryCreateTooLarge(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.gallery.Create(rec, multipartRequest(t, "/admin/artworks", starryFields(), "huge.jpg", bytes.Repeat([]byte("x"), testMaxUpload+1)))

	body := rec.Body.String()
	assert.Contains(t, body, "upload is too large")
	assert.Equal(t, "none", rec.Header().Get("HX-Reswap"), "the filled-in form must stay in the browser")
	assert.NotContains(t, body, `id="artwork-form"`)
	assert.Zero(t, countRecords(t, f))
}

func TestGalleryCreateKeepsFieldsReadBeforeParseFailure(t *testing.T) {
	f := newFixture(t, nil)

	values := url.Values{"title": {"Starry Night"}, "artist": {"Vincent van Gogh"}, "year": {"1889"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/artworks", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	f.gallery.Create(rec, req)

	body := rec.Body.String()
	assert.Empty(t, rec.Header().Get("HX-Reswap"))
	assert.Contains(t, body, `value="Starry Night"`)
	assert.Contains(t, body, `value="Vincent van Gogh"`)
	assert.Contains(t, body, `value="1889"`)
	assert.Zero(t, countRecords(t, f))
}

func TestGalleryPageAndRemoveAll(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.service.Create(ctx, model.Draft{Title: "Starry Night"}, &service.Upload{
		Filename: "starry.jpg", Body: strings.NewReader("pixels"),
	})
	require.NoError(t, err)

	// the memory:// reference is not a safe URL for html/template, so only
	// the tile wiring is checked here
	rec := httptest.NewRecorder()
	f.gallery.GalleryPage(rec, httptest.NewRequest(http.MethodGet, "/admin/artworks?active="+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="artwork-`+created.ID+`"`)
	assert.Contains(t, body, "border-indigo-500")
	assert.Contains(t, body, `data-preview="`+created.ID+`"`)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/admin/artworks", nil)
	req.Header.Set("HX-Request", "true")
	f.gallery.RemoveAll(rec, req)

	body = rec.Body.String()
	assert.Equal(t, "artworks-removed", rec.Header().Get("HX-Trigger"))
	assert.Contains(t, body, "data-empty")
	assert.NotContains(t, body, "data-artwork")
	assert.Contains(t, body, `hx-swap-oob="innerHTML:#artwork-preview"`)
	assert.Contains(t, body, "data-preview-empty")
	assert.Contains(t, body, "1 artworks were removed")
	assert.Zero(t, countRecords(t, f))
}

func TestGalleryPreview(t *testing.T) {
	f := newFixture(t, nil)

	created, err := f.service.CreateRecord(context.Background(),
		model.Draft{Title: "Starry Night", Artist: "Van Gogh", Description: "A **swirling** sky"},
		"https://cdn.example.com/artworks/starry.jpg", "artworks/starry.jpg")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/artworks/"+created.ID+"/preview", nil)
	req.SetPathValue("id", created.ID)
	f.gallery.Preview(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "<strong>swirling</strong>")
	assert.Contains(t, body, "Van Gogh")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/artworks/missing/preview", nil)
	req.SetPathValue("id", "missing")
	f.gallery.Preview(rec, req)
	assert.Contains(t, rec.Body.String(), "data-preview-empty")
	assert.Contains(t, rec.Body.String(), "no longer exists")
}

func TestGalleryDetail(t *testing.T) {
	f := newFixture(t, nil)

	created, err := f.service.CreateRecord(context.Background(), model.Draft{Title: "Starry Night"},
		"https://cdn.example.com/artworks/starry.jpg", "artworks/starry.jpg")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/artworks/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	f.gallery.Detail(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Back to artworks")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/artworks/missing", nil)
	req.SetPathValue("id", "missing")
	f.gallery.Detail(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGalleryDetailHTMX(t *testing.T) {
	f := newFixture(t, nil)

	created, err := f.service.CreateRecord(context.Background(), model.Draft{Title: "Starry Night"},
		"https://cdn.example.com/artworks/starry.jpg", "artworks/starry.jpg")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/artworks/"+created.ID, nil)
	req.Header.Set("HX-Request", "true")
	req.SetPathValue("id", created.ID)
	f.gallery.Detail(rec, req)

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Back to artworks")
	assert.Contains(t, body, `data-preview="`+created.ID+`"`)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/artworks/missing", nil)
	req.Header.Set("HX-Request", "true")
	req.SetPathValue("id", "missing")
	f.gallery.Detail(rec, req)

	assert.Equal(t, "none", rec.Header().Get("HX-Reswap"))
	assert.Contains(t, rec.Body.String(), "no longer exists")
}

func jsonRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRecordsAPI(t *testing.T) {
	f := newFixture(t, nil)

	payload := `{"title":"Starry Night","artist":"Van Gogh","year":1889,"category":"Post-Impressionism","description":"Night sky","imageURL":"https://cdn.example.com/artworks/starry.jpg"}`
	rec := httptest.NewRecorder()
	f.records.Create(rec, jsonRequest("/api/records", payload))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var created model.Artwork
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Starry Night", created.Title)
	assert.Equal(t, 1889, created.Year)
	assert.Equal(t, "https://cdn.example.com/artworks/starry.jpg", created.ImageURL)

	rec = httptest.NewRecorder()
	f.records.List(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	var list []model.Artwork
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/records/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	f.records.Get(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/records/missing", nil)
	req.SetPathValue("id", "missing")
	f.records.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"artwork not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.records.DeleteAll(rec, httptest.NewRequest(http.MethodDelete, "/api/records", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.records.List(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecordsAPIRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "title=Starry"},
		{name: "missing title", body: `{"imageURL":"https://cdn.example.com/a.jpg"}`},
		{name: "missing image", body: `{"title":"Starry Night"}`},
		{name: "year as text", body: `{"title":"Starry Night","year":"1889","imageURL":"https://cdn.example.com/a.jpg"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.records.Create(rec, jsonRequest("/api/records", tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Zero(t, countRecords(t, f))
}

func TestRecordsAPIRequiresJSON(t *testing.T) {
	f := newFixture(t, nil)

	payload := `{"title":"Starry Night","imageURL":"https://cdn.example.com/a.jpg"}`
	for _, contentType := range []string{"", "text/plain", "application/x-www-form-urlencoded"} {
		req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(payload))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		f.records.Create(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code, contentType)
	}
	assert.Zero(t, countRecords(t, f))

	req := jsonRequest("/api/records", payload)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	f.records.Create(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateArtworkAPI(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.records.CreateArtwork(rec, multipartRequest(t, "/api/artworks", starryFields(), "starry.jpg", []byte("pixels")))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Artwork
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Night sky", created.Description)

	content, err := f.objects.Resolve(created.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(content))
}

func TestCreateArtworkAPIUploadFailure(t *testing.T) {
	f := newFixture(t, failingStorage{err: errors.New("bucket offline")})

	rec := httptest.NewRecorder()
	f.records.CreateArtwork(rec, multipartRequest(t, "/api/artworks", starryFields(), "starry.jpg", []byte("pixels")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, countRecords(t, f))
}

func TestHomeHandler(t *testing.T) {
	f := newFixture(t, nil)
	h := NewHomeHandler(f.db)

	rec := httptest.NewRecorder()
	h.HomePage(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/artworks", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.NotFoundPage(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
