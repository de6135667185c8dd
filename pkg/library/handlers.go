package library

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/myreadsapp/myreads/pkg/errcodes"
	"github.com/myreadsapp/myreads/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	libraryService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListLibraryQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	entries, total, err := h.libraryService.ListUserBooksWithTotal(ctx, ListUserBooksOptions{
		UserID: user.ID,
		Status: params.Status,
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	stats, err := h.libraryService.CountByStatus(ctx, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{
		"entries": entries,
		"total":   total,
		"stats":   stats,
	}))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := AddBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	entry, err := h.libraryService.AddBook(ctx, AddBookOptions{
		UserID: user.ID,
		BookID: params.BookID,
		Status: params.Status,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, echo.Map{"entry": entry}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	entry, err := h.libraryService.GetEntry(ctx, user.ID, c.Param("bookId"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{"entry": entry}))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	params := UpdateEntryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	entry, err := h.libraryService.UpdateEntry(ctx, user.ID, c.Param("bookId"), UpdateEntryOptions{
		Status:     params.Status,
		Rating:     params.Rating,
		Review:     params.Review,
		StartDate:  params.StartDate,
		FinishDate: params.FinishDate,
		Tags:       params.Tags,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{"entry": entry}))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	if err := h.libraryService.RemoveBook(ctx, user.ID, c.Param("bookId")); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
