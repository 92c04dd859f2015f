package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/service"
)

const defaultTimeout = 2 * time.Minute

// ErrRateLimited is returned when the server asks the client to slow down.
var ErrRateLimited = errors.New("rate limited")

var _ service.RecordStore = (*Client)(nil)

// APIError is a non-2xx response. It unwraps to the matching service error
// so callers can use errors.Is the same way as against a local service.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // from the Retry-After header, zero when absent
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return service.ErrNotFound
	case http.StatusBadRequest:
		return service.ErrInvalidDraft
	case http.StatusBadGateway:
		return service.ErrUpload
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// RetryAfter reports how long to wait before retrying a rate limited call
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	return apiErr.RetryAfter, true
}

// Client talks to the gallery JSON API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after two minutes
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create posts a record whose image is already stored
func (c *Client) Create(ctx context.Context, artwork *model.Artwork) (*model.Artwork, error) {
	body, err := json.Marshal(map[string]any{
		"title":       artwork.Title,
		"artist":      artwork.Artist,
		"year":        artwork.Year,
		"description": artwork.Description,
		"category":    artwork.Category,
		"imageURL":    artwork.ImageURL,
		"imagePath":   artwork.ImagePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	var created model.Artwork
	err = c.do(ctx, http.MethodPost, "/api/records", "application/json", bytes.NewReader(body), &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) All(ctx context.Context) ([]*model.Artwork, error) {
	artworks := []*model.Artwork{}
	err := c.do(ctx, http.MethodGet, "/api/records", "", nil, &artworks)
	if err != nil {
		return nil, err
	}
	return artworks, nil
}

func (c *Client) ByID(ctx context.Context, id string) (*model.Artwork, error) {
	var artwork model.Artwork
	err := c.do(ctx, http.MethodGet, "/api/records/"+id, "", nil, &artwork)
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (c *Client) DeleteAll(ctx context.Context) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/records", "", nil, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// CreateArtwork uploads the image and creates the record in one request.
// The multipart body is buffered in memory.
func (c *Client) CreateArtwork(ctx context.Context, draft model.Draft, upload *service.Upload) (*model.Artwork, error) {
	if upload == nil || upload.Body == nil {
		return nil, service.ErrImageRequired
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"title", draft.Title},
		{"artist", draft.Artist},
		{"description", draft.Description},
		{"category", draft.Category},
	}
	if draft.Year != 0 {
		fields = append(fields, [2]string{"year", strconv.Itoa(draft.Year)})
	}
	for _, f := range fields {
		err := mw.WriteField(f[0], f[1])
		if err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", f[0], err)
		}
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, upload.Filename))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	_, err = io.Copy(part, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	err = mw.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var created model.Artwork
	err = c.do(ctx, http.MethodPost, "/api/artworks", mw.FormDataContentType(), &body, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
