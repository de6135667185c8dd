package library

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/myreadsapp/myreads/pkg/errcodes"
	"github.com/myreadsapp/myreads/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// BookResolver resolves a catalog identifier into a cached book, fetching it
// from the catalog on a miss. It's satisfied by *books.Service.
type BookResolver interface {
	Resolve(ctx context.Context, id string) (*models.Book, error)
}

type Service struct {
	db    *bun.DB
	books BookResolver
}

func NewService(db *bun.DB, books BookResolver) *Service {
	return &Service{db: db, books: books}
}

// GetEntry returns the user's entry for a book, with the cached book and tags
// attached.
func (svc *Service) GetEntry(ctx context.Context, userID int, bookID string) (*models.BookEntry, error) {
	entry := &models.BookEntry{}

	err := svc.db.
		NewSelect().
		Model(entry).
		Relation("Book").
		Relation("Tags").
		Where("be.user_id = ?", userID).
		Where("be.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book entry")
		}
		return nil, errors.WithStack(err)
	}

	return entry, nil
}

type AddBookOptions struct {
	UserID int
	BookID string
	Status string
}

// AddBook adds a book to the user's library. The book is resolved through the
// cache first so an entry can never point at a book that was never fetched; if
// the catalog has no such book the add fails with the catalog's NotFound. A
// second add of the same book is rejected with AlreadyExists rather than
// merged, so the caller learns the entry was already there.
func (svc *Service) AddBook(ctx context.Context, opts AddBookOptions) (*models.BookEntry, error) {
	book, err := svc.books.Resolve(ctx, opts.BookID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &models.BookEntry{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    opts.UserID,
		BookID:    book.ID,
		Status:    opts.Status,
	}

	_, err = svc.db.
		NewInsert().
		Model(entry).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errcodes.AlreadyExists("Book entry")
		}
		return nil, errors.WithStack(err)
	}

	entry.Book = book
	entry.Tags = []*models.Tag{}
	return entry, nil
}

type UpdateEntryOptions struct {
	Status     *string
	Rating     *int
	Review     *string
	StartDate  *string
	FinishDate *string
	Tags       *[]string
}

// UpdateEntry applies a partial update to the user's entry. Only the supplied
// fields change. A supplied tag list replaces the entry's tag set wholesale;
// tag rows are created on first use and shared by name across entries.
func (svc *Service) UpdateEntry(ctx context.Context, userID int, bookID string, opts UpdateEntryOptions) (*models.BookEntry, error) {
	entry, err := svc.GetEntry(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*models.BookEntry)(nil)).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", entry.ID)

		if opts.Status != nil {
			q = q.Set("status = ?", *opts.Status)
		}
		if opts.Rating != nil {
			q = q.Set("rating = ?", *opts.Rating)
		}
		if opts.Review != nil {
			q = q.Set("review = ?", *opts.Review)
		}
		if opts.StartDate != nil {
			q = q.Set("start_date = ?", *opts.StartDate)
		}
		if opts.FinishDate != nil {
			q = q.Set("finish_date = ?", *opts.FinishDate)
		}

		if _, err := q.Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		if opts.Tags != nil {
			if err := svc.replaceTags(ctx, tx, entry.ID, *opts.Tags); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.GetEntry(ctx, userID, bookID)
}

// replaceTags swaps the entry's tag set for the given names inside tx.
func (svc *Service) replaceTags(ctx context.Context, tx bun.Tx, entryID int, names []string) error {
	if _, err := tx.NewDelete().
		Model((*models.BookEntryTag)(nil)).
		Where("book_entry_id = ?", entryID).
		Exec(ctx); err != nil {
		return errors.WithStack(err)
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		tag := &models.Tag{Name: name, CreatedAt: time.Now()}
		if _, err := tx.NewInsert().
			Model(tag).
			On("CONFLICT (name) DO UPDATE").
			Set("name = EXCLUDED.name").
			Returning("*").
			Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		join := &models.BookEntryTag{BookEntryID: entryID, TagID: tag.ID}
		if _, err := tx.NewInsert().Model(join).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// RemoveBook deletes the user's entry for a book. The cached book row stays;
// other users' entries may reference it and the cache is cheap to keep.
func (svc *Service) RemoveBook(ctx context.Context, userID int, bookID string) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookEntry)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Book entry")
	}

	return nil
}

type ListUserBooksOptions struct {
	UserID       int
	Status       *string
	Limit        *int
	Offset       *int
	includeTotal bool
}

func (svc *Service) ListUserBooks(ctx context.Context, opts ListUserBooksOptions) ([]*models.BookEntry, error) {
	entries, _, err := svc.listUserBooksWithTotal(ctx, opts)
	return entries, errors.WithStack(err)
}

func (svc *Service) ListUserBooksWithTotal(ctx context.Context, opts ListUserBooksOptions) ([]*models.BookEntry, int, error) {
	opts.includeTotal = true
	return svc.listUserBooksWithTotal(ctx, opts)
}

func (svc *Service) listUserBooksWithTotal(ctx context.Context, opts ListUserBooksOptions) ([]*models.BookEntry, int, error) {
	var entries []*models.BookEntry
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&entries).
		Relation("Book").
		Relation("Tags").
		Where("be.user_id = ?", opts.UserID).
		Order("be.created_at DESC")

	if opts.Status != nil {
		q = q.Where("be.status = ?", *opts.Status)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	// An entry without a book row means the cache lost a row it should never
	// lose. Surface it in the logs but keep serving the listing.
	log := logger.FromContext(ctx)
	for _, entry := range entries {
		if entry.Book == nil {
			log.Data(logger.Data{"book_entry_id": entry.ID, "book_id": entry.BookID}).
				Warn("book entry references missing book")
		}
	}

	return entries, total, nil
}

// CountByStatus returns how many entries the user has on each shelf. Statuses
// with no entries are included with a zero count.
func (svc *Service) CountByStatus(ctx context.Context, userID int) (map[string]int, error) {
	var rows []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}

	err := svc.db.
		NewSelect().
		Model((*models.BookEntry)(nil)).
		ColumnExpr("be.status AS status").
		ColumnExpr("COUNT(*) AS count").
		Where("be.user_id = ?", userID).
		Group("be.status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	counts := make(map[string]int, len(models.EntryStatuses))
	for _, status := range models.EntryStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
// Matching on the message works for both the cgo and pure-Go drivers behind
// sqliteshim.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
