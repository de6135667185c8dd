package books

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/myreadsapp/myreads/pkg/errcodes"
	"github.com/myreadsapp/myreads/pkg/models"
	"github.com/pkg/errors"
)

// EntryFinder looks up the requesting user's library entry for a book so the
// detail endpoint can include it. It's satisfied by *library.Service.
type EntryFinder interface {
	GetEntry(ctx context.Context, userID int, bookID string) (*models.BookEntry, error)
}

type handler struct {
	bookService *Service
	entries     EntryFinder
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	params := SearchBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, err := h.bookService.Search(ctx, params.Query, params.Limit)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{
		"books": books,
		"total": len(books),
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Book")
	}

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	book, err := h.bookService.Resolve(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	// The entry is the user's own overlay on the book; not having one is the
	// normal case for a book found through search.
	entry, err := h.entries.GetEntry(ctx, user.ID, book.ID)
	if err != nil {
		if !errors.Is(err, errcodes.NotFound("Book entry")) {
			return errors.WithStack(err)
		}
		entry = nil
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{
		"book":  book,
		"entry": entry,
	}))
}
