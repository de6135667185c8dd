package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/myreadsapp/myreads/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Catalog is the upstream book catalog the cache falls back to. It's satisfied
// by *catalog.Client.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]*models.Book, error)
	FetchByID(ctx context.Context, id string) (*models.Book, error)
}

type Service struct {
	db      *bun.DB
	catalog Catalog
}

func NewService(db *bun.DB, catalog Catalog) *Service {
	return &Service{db: db, catalog: catalog}
}

// Resolve returns the book with the given catalog identifier, reading through
// the local cache. A cache hit is returned as-is with no freshness check; a
// miss goes to the catalog and caches the result. Catalog failures are never
// cached, so a later call retries the fetch.
func (svc *Service) Resolve(ctx context.Context, id string) (*models.Book, error) {
	book := &models.Book{}

	err := svc.db.
		NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	fetched, err := svc.catalog.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return svc.cacheBook(ctx, fetched)
}

// Search queries the catalog and returns the live results in catalog order.
// Every result is written into the cache so a follow-up Resolve doesn't need
// a second round trip. A failed cache write only costs us the warm, not the
// search, so it's logged and swallowed.
func (svc *Service) Search(ctx context.Context, query string, limit int) ([]*models.Book, error) {
	results, err := svc.catalog.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	for i, book := range results {
		cached, err := svc.cacheBook(ctx, book)
		if err != nil {
			log.Err(err).Data(logger.Data{"book_id": book.ID}).Warn("cache search result error")
			continue
		}
		results[i] = cached
	}

	return results, nil
}

// cacheBook upserts a catalog record into the cache in a single statement and
// returns the stored row. Concurrent writers for the same identifier are safe:
// the last writer wins column-for-column, and created_at always keeps the
// value from the first insert. The input is copied rather than mutated so the
// returned book carries the row's real timestamps, not the write attempt's.
func (svc *Service) cacheBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	now := time.Now()
	stored := *book
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := svc.db.
		NewInsert().
		Model(&stored).
		On("CONFLICT (id) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Set("title = EXCLUDED.title").
		Set("author = EXCLUDED.author").
		Set("description = EXCLUDED.description").
		Set("cover_image_url = EXCLUDED.cover_image_url").
		Set("page_count = EXCLUDED.page_count").
		Set("published_date = EXCLUDED.published_date").
		Set("publisher = EXCLUDED.publisher").
		Set("language = EXCLUDED.language").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &stored, nil
}
