package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myreadsapp/myreads/pkg/config"
	"github.com/myreadsapp/myreads/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewForTest()
	cfg.GoogleBooksBaseURL = srv.URL
	cfg.GoogleBooksAPIKey = apiKey
	return New(cfg)
}

func TestSearch_NormalizesVolumes(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"totalItems": 2,
			"items": [
				{
					"id": "vol-1",
					"volumeInfo": {
						"title": "The Go Programming Language",
						"authors": ["Alan A. A. Donovan", "Brian W. Kernighan"],
						"description": "<p>The <b>authoritative</b> resource.</p>",
						"publisher": "Addison-Wesley",
						"publishedDate": "2015-10-26",
						"pageCount": 380,
						"language": "en",
						"imageLinks": {"thumbnail": "http://books.google.com/covers/vol-1.jpg"}
					}
				},
				{
					"id": "vol-2",
					"volumeInfo": {}
				}
			]
		}`))
	}, "")

	books, err := client.Search(context.Background(), "golang", 0)
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, "/volumes", gotPath)
	assert.Equal(t, "golang", gotQuery)

	first := books[0]
	assert.Equal(t, "vol-1", first.ID)
	assert.Equal(t, "The Go Programming Language", first.Title)
	assert.Equal(t, "Alan A. A. Donovan, Brian W. Kernighan", first.Author)
	require.NotNil(t, first.Description)
	assert.Equal(t, "The authoritative resource.", *first.Description)
	require.NotNil(t, first.CoverImageURL)
	assert.Equal(t, "https://books.google.com/covers/vol-1.jpg", *first.CoverImageURL)
	require.NotNil(t, first.PageCount)
	assert.Equal(t, 380, *first.PageCount)
	assert.Equal(t, "en", first.Language)

	// A volume with no metadata still normalizes to a usable record.
	second := books[1]
	assert.Equal(t, "vol-2", second.ID)
	assert.Equal(t, "Unknown Title", second.Title)
	assert.Equal(t, "Unknown Author", second.Author)
	assert.Equal(t, "en", second.Language)
	assert.Nil(t, second.Description)
	assert.Nil(t, second.CoverImageURL)
	assert.Nil(t, second.PageCount)
}

func TestSearch_EmptyResults(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalItems": 0}`))
	}, "")

	books, err := client.Search(context.Background(), "zxqjw", 10)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestSearch_APIKeyIncludedOnlyWhenConfigured(t *testing.T) {
	t.Parallel()

	var gotKey string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalItems": 0}`))
	}

	withKey := newTestClient(t, handler, "secret-key")
	_, err := withKey.Search(context.Background(), "go", 5)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)

	withoutKey := newTestClient(t, handler, "")
	_, err = withoutKey.Search(context.Background(), "go", 5)
	require.NoError(t, err)
	assert.Empty(t, gotKey)
}

func TestFetchByID_ReturnsNormalizedBook(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes/vol-9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "vol-9",
			"volumeInfo": {
				"title": "Working Effectively with Legacy Code",
				"authors": ["Michael Feathers"],
				"language": "en"
			}
		}`))
	}, "")

	book, err := client.FetchByID(context.Background(), "vol-9")
	require.NoError(t, err)
	assert.Equal(t, "vol-9", book.ID)
	assert.Equal(t, "Working Effectively with Legacy Code", book.Title)
	assert.Equal(t, "Michael Feathers", book.Author)
}

func TestFetchByID_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, "")

	book, err := client.FetchByID(context.Background(), "missing")
	assert.Nil(t, book)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
}

func TestFetchByID_UpstreamFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "")

	_, err := client.FetchByID(context.Background(), "vol-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcodes.UpstreamUnavailable("Google Books")))
}

func TestFetchByID_MalformedResponse(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "vol-1", "volumeInfo"`))
	}, "")

	_, err := client.FetchByID(context.Background(), "vol-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcodes.UpstreamUnavailable("Google Books")))
}

func TestSearch_LimitClamped(t *testing.T) {
	t.Parallel()

	var gotMax string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxResults")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalItems": 0}`))
	}, "")

	_, err := client.Search(context.Background(), "go", 500)
	require.NoError(t, err)
	assert.Equal(t, "40", gotMax)
}
