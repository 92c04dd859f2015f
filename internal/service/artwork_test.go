package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zopapami/artgallery/internal/db"
	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/repository"
	"github.com/zopapami/artgallery/internal/storage"
)

var errBackend = errors.New("backend unavailable")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Save(ctx context.Context, path string, file io.Reader, contentType string) error {
	_, _ = io.Copy(io.Discard, file)
	return m.Called(ctx, path, contentType).Error(0)
}

func (m *mockStorage) URL(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

type mockRecordStore struct {
	mock.Mock
}

func (m *mockRecordStore) Create(ctx context.Context, artwork *model.Artwork) (*model.Artwork, error) {
	args := m.Called(ctx, artwork)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artwork), args.Error(1)
}

func (m *mockRecordStore) All(ctx context.Context) ([]*model.Artwork, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Artwork), args.Error(1)
}

func (m *mockRecordStore) ByID(ctx context.Context, id string) (*model.Artwork, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Artwork), args.Error(1)
}

func (m *mockRecordStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func starryDraft() model.Draft {
	return model.Draft{
		Title:       "Starry Night",
		Artist:      "Van Gogh",
		Year:        1889,
		Description: "Night sky",
		Category:    "Post-Impressionism",
	}
}

func jpeg(name string, content []byte) *Upload {
	return &Upload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(content)),
		Body:        bytes.NewReader(content),
	}
}

// newGallery wires the service to in-memory objects and a sqlite record store
func newGallery(t *testing.T) (*ArtworkService, *storage.MemoryStorage) {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	objects := storage.NewMemoryStorage()
	svc := NewArtworkService(repository.NewArtworkRepository(database), objects, NewPreviewCache(16, time.Minute))
	return svc, objects
}

func TestCreateStarryNight(t *testing.T) {
	ctx := context.Background()
	svc, objects := newGallery(t)
	image := []byte("\xff\xd8\xff\xe0 starry pixels")

	created, err := svc.Create(ctx, starryDraft(), jpeg("starry.jpg", image))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Starry Night", created.Title)
	assert.Equal(t, "Van Gogh", created.Artist)
	assert.Equal(t, 1889, created.Year)
	assert.Equal(t, "Night sky", created.Description)
	assert.Equal(t, "Post-Impressionism", created.Category)
	assert.Equal(t, "artworks/starry.jpg", created.ImagePath)

	content, err := objects.Resolve(created.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, image, content)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
}

func TestCreateSameFilenameOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, objects := newGallery(t)

	first, err := svc.Create(ctx, starryDraft(), jpeg("starry.jpg", []byte("first")))
	require.NoError(t, err)

	draft := starryDraft()
	draft.Title = "Starry Night (study)"
	second, err := svc.Create(ctx, draft, jpeg("/other/dir/starry.jpg", []byte("second")))
	require.NoError(t, err)

	assert.Equal(t, first.ImagePath, second.ImagePath)
	assert.Equal(t, 1, objects.Count())

	content, err := objects.Resolve(second.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestCreateUploadFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	objects := &mockStorage{}
	records := &mockRecordStore{}
	objects.On("Save", mock.Anything, "artworks/starry.jpg", "image/jpeg").Return(errBackend)

	svc := NewArtworkService(records, objects, nil)
	_, err := svc.Create(ctx, starryDraft(), jpeg("starry.jpg", []byte("x")))

	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, errBackend)
	objects.AssertNotCalled(t, "URL", mock.Anything, mock.Anything)
	records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReferenceFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	objects := &mockStorage{}
	records := &mockRecordStore{}
	objects.On("Save", mock.Anything, "artworks/starry.jpg", "image/jpeg").Return(nil)
	objects.On("URL", mock.Anything, "artworks/starry.jpg").Return("", storage.ErrNotFound)

	svc := NewArtworkService(records, objects, nil)
	_, err := svc.Create(ctx, starryDraft(), jpeg("starry.jpg", []byte("x")))

	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRunsStepsInOrder(t *testing.T) {
	ctx := context.Background()
	objects := &mockStorage{}
	records := &mockRecordStore{}

	var steps []string
	objects.On("Save", mock.Anything, "artworks/starry.jpg", "image/jpeg").
		Run(func(mock.Arguments) { steps = append(steps, "save") }).Return(nil)
	objects.On("URL", mock.Anything, "artworks/starry.jpg").
		Run(func(mock.Arguments) { steps = append(steps, "url") }).Return("https://cdn/artworks/starry.jpg", nil)

	confirmed := &model.Artwork{ID: "server-id", Title: "Starry Night", ImageURL: "https://cdn/artworks/starry.jpg"}
	records.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Artwork) bool {
		return a.ImageURL == "https://cdn/artworks/starry.jpg" && a.ImagePath == "artworks/starry.jpg" && a.ID == ""
	})).Run(func(mock.Arguments) { steps = append(steps, "persist") }).Return(confirmed, nil)

	svc := NewArtworkService(records, objects, nil)
	created, err := svc.Create(ctx, starryDraft(), jpeg("starry.jpg", []byte("x")))
	require.NoError(t, err)

	assert.Same(t, confirmed, created, "the record store's record is returned")
	assert.Equal(t, []string{"save", "url", "persist"}, steps)
	objects.AssertExpectations(t)
	records.AssertExpectations(t)
}

func TestCreatePersistFailureKeepsObject(t *testing.T) {
	ctx := context.Background()
	objects := &mockStorage{}
	records := &mockRecordStore{}
	objects.On("Save", mock.Anything, "artworks/starry.jpg", "image/jpeg").Return(nil)
	objects.On("URL", mock.Anything, "artworks/starry.jpg").Return("https://cdn/artworks/starry.jpg", nil)
	records.On("Create", mock.Anything, mock.Anything).Return(nil, errBackend)

	svc := NewArtworkService(records, objects, nil)
	_, err := svc.Create(ctx, starryDraft(), jpeg("starry.jpg", []byte("x")))

	assert.ErrorIs(t, err, ErrPersist)
	objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCreateRejectsBeforeAnyIO(t *testing.T) {
	tests := []struct {
		name    string
		draft   model.Draft
		upload  *Upload
		wantErr error
	}{
		{name: "no upload", draft: starryDraft(), upload: nil, wantErr: ErrImageRequired},
		{name: "no filename", draft: starryDraft(), upload: jpeg("  ", []byte("x")), wantErr: ErrImageRequired},
		{name: "unusable filename", draft: starryDraft(), upload: jpeg("..", []byte("x")), wantErr: ErrImageRequired},
		{name: "no title", draft: model.Draft{Artist: "Van Gogh"}, upload: jpeg("starry.jpg", []byte("x")), wantErr: ErrInvalidDraft},
		{name: "blank title", draft: model.Draft{Title: "   "}, upload: jpeg("starry.jpg", []byte("x")), wantErr: ErrInvalidDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := &mockStorage{}
			records := &mockRecordStore{}
			svc := NewArtworkService(records, objects, nil)

			_, err := svc.Create(context.Background(), tt.draft, tt.upload)
			assert.ErrorIs(t, err, tt.wantErr)
			objects.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
			records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateKeepsTextAsTyped(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGallery(t)

	draft := starryDraft()
	draft.Title = "  Study <in blue> "
	draft.Artist = "Van Gogh &amp; Theo"
	draft.Category = "<b>Post</b>-Impressionism"

	created, err := svc.Create(ctx, draft, jpeg("starry.jpg", []byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "Study <in blue>", created.Title)
	assert.Equal(t, "Van Gogh &amp; Theo", created.Artist)
	assert.Equal(t, "<b>Post</b>-Impressionism", created.Category)

	stored, err := svc.ByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, stored.Title)
}

func TestRemoveAllEmptiesList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGallery(t)

	for _, name := range []string{"a.jpg", "b.jpg"} {
		_, err := svc.Create(ctx, starryDraft(), jpeg(name, []byte(name)))
		require.NoError(t, err)
	}

	n, err := svc.RemoveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemoveAllFailure(t *testing.T) {
	records := &mockRecordStore{}
	records.On("DeleteAll", mock.Anything).Return(int64(0), errBackend)

	svc := NewArtworkService(records, &mockStorage{}, nil)
	_, err := svc.RemoveAll(context.Background())
	assert.ErrorIs(t, err, ErrDelete)
}

func TestPurgeAllDeletesImagesOnce(t *testing.T) {
	ctx := context.Background()
	svc, objects := newGallery(t)

	// two records share dup.jpg, orphan.jpg belongs to a record made elsewhere
	for _, name := range []string{"a.jpg", "dup.jpg", "dup.jpg"} {
		_, err := svc.Create(ctx, starryDraft(), jpeg(name, []byte(name)))
		require.NoError(t, err)
	}
	_, err := svc.CreateRecord(ctx, starryDraft(), "https://cdn.example.com/gone.jpg", "artworks/gone.jpg")
	require.NoError(t, err)
	require.Equal(t, 2, objects.Count())

	n, purged, err := svc.PurgeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 2, purged)
	assert.Zero(t, objects.Count())

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPurgeAllDeleteFailure(t *testing.T) {
	records := &mockRecordStore{}
	records.On("All", mock.Anything).Return([]*model.Artwork{{ID: "1", ImagePath: "artworks/a.jpg"}}, nil)
	records.On("DeleteAll", mock.Anything).Return(int64(1), nil)

	objects := &mockStorage{}
	objects.On("Delete", mock.Anything, "artworks/a.jpg").Return(errBackend)

	svc := NewArtworkService(records, objects, nil)
	n, purged, err := svc.PurgeAll(context.Background())
	assert.ErrorIs(t, err, ErrDelete)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, purged)
	objects.AssertExpectations(t)
}

func TestListIsStable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGallery(t)

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		_, err := svc.Create(ctx, starryDraft(), jpeg(name, []byte(name)))
		require.NoError(t, err)
	}

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)

	ids := func(list []*model.Artwork) []string {
		out := make([]string, len(list))
		for i, a := range list {
			out[i] = a.ID
		}
		return out
	}
	assert.ElementsMatch(t, ids(first), ids(second))
}

func TestListFailure(t *testing.T) {
	records := &mockRecordStore{}
	records.On("All", mock.Anything).Return(nil, errBackend)

	svc := NewArtworkService(records, &mockStorage{}, nil)
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, ErrList)
}

func TestPreviewIsCached(t *testing.T) {
	ctx := context.Background()
	records := &mockRecordStore{}
	records.On("ByID", mock.Anything, "abc").
		Return(&model.Artwork{ID: "abc", Title: "Starry Night", Description: "A *night* sky"}, nil).Once()
	records.On("DeleteAll", mock.Anything).Return(int64(1), nil)

	cache := NewPreviewCache(8, time.Minute)
	svc := NewArtworkService(records, &mockStorage{}, cache)

	first, err := svc.Preview(ctx, "abc")
	require.NoError(t, err)
	assert.Contains(t, string(first.Description), "<em>night</em>")

	second, err := svc.Preview(ctx, "abc")
	require.NoError(t, err)
	assert.Same(t, first, second)
	records.AssertNumberOfCalls(t, "ByID", 1)

	_, err = svc.RemoveAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, cache.Len())
}

func TestPreviewNotFound(t *testing.T) {
	svc, _ := newGallery(t)

	_, err := svc.Preview(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newGallery(t)

	_, err := svc.CreateRecord(ctx, starryDraft(), " ", "")
	assert.ErrorIs(t, err, ErrInvalidDraft)

	created, err := svc.CreateRecord(ctx, starryDraft(), "https://cdn/artworks/starry.jpg", "artworks/starry.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(created.ImageURL, "starry.jpg"))
	assert.NotEmpty(t, created.ID)
}
