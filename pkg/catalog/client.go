// Package catalog implements a read-only client for the Google Books volume
// API. It normalizes upstream volumes into models.Book records and reports
// failures through the errcodes taxonomy so callers can tell "no such volume"
// apart from "upstream is down". It performs exactly one attempt per call;
// retry policy belongs to the caller.
package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/myreadsapp/myreads/pkg/config"
	"github.com/myreadsapp/myreads/pkg/errcodes"
	"github.com/myreadsapp/myreads/pkg/htmlutil"
	"github.com/myreadsapp/myreads/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	upstreamName   = "Google Books"
	requestTimeout = 10 * time.Second

	// DefaultSearchLimit is used when the caller doesn't specify a limit.
	DefaultSearchLimit = 20
	// MaxSearchLimit is the upper bound the volume API accepts.
	MaxSearchLimit = 40
)

// Client talks to the Google Books volume API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New creates a catalog client. An empty API key is a valid configuration:
// the volume API serves unauthenticated requests at a lower quota.
func New(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    cfg.GoogleBooksBaseURL,
		apiKey:     cfg.GoogleBooksAPIKey,
	}
}

// volume matches the parts of a Google Books volume resource we consume.
type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		Description   string   `json:"description"`
		Publisher     string   `json:"publisher"`
		PublishedDate string   `json:"publishedDate"`
		PageCount     int      `json:"pageCount"`
		Language      string   `json:"language"`
		ImageLinks    struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// searchResponse matches the volumes list endpoint.
type searchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

// Search queries the catalog with free text and returns normalized books in
// the order the catalog ranked them. An empty result is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*models.Book, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.get(ctx, "/volumes", params, &resp); err != nil {
		return nil, err
	}

	books := make([]*models.Book, 0, len(resp.Items))
	for i := range resp.Items {
		books = append(books, normalizeVolume(&resp.Items[i]))
	}
	return books, nil
}

// FetchByID retrieves a single volume by its catalog identifier.
func (c *Client) FetchByID(ctx context.Context, id string) (*models.Book, error) {
	var vol volume
	if err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{}, &vol); err != nil {
		return nil, err
	}
	return normalizeVolume(&vol), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errcodes.UpstreamUnavailable(upstreamName)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return errcodes.NotFound("Book")
	default:
		return errcodes.UpstreamUnavailable(upstreamName)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errcodes.UpstreamUnavailable(upstreamName)
	}
	return nil
}

// normalizeVolume flattens a volume resource into the cached book shape.
func normalizeVolume(vol *volume) *models.Book {
	info := &vol.VolumeInfo

	title := info.Title
	if title == "" {
		title = "Unknown Title"
	}

	author := "Unknown Author"
	if len(info.Authors) > 0 {
		author = strings.Join(info.Authors, ", ")
	}

	language := info.Language
	if language == "" {
		language = models.DefaultLanguage
	}

	book := &models.Book{
		ID:       vol.ID,
		Title:    title,
		Author:   author,
		Language: language,
	}

	// Descriptions come back with embedded HTML.
	if info.Description != "" {
		description := htmlutil.StripTags(info.Description)
		book.Description = &description
	}
	if cover := coverURL(info.ImageLinks.Thumbnail, info.ImageLinks.SmallThumbnail); cover != "" {
		book.CoverImageURL = &cover
	}
	if info.PageCount > 0 {
		pageCount := info.PageCount
		book.PageCount = &pageCount
	}
	if info.PublishedDate != "" {
		publishedDate := info.PublishedDate
		book.PublishedDate = &publishedDate
	}
	if info.Publisher != "" {
		publisher := info.Publisher
		book.Publisher = &publisher
	}

	return book
}

// coverURL picks the best available cover image and upgrades the scheme; the
// volume API still hands out plain http links.
func coverURL(thumbnail, smallThumbnail string) string {
	u := thumbnail
	if u == "" {
		u = smallThumbnail
	}
	return strings.Replace(u, "http://", "https://", 1)
}
