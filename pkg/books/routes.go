package books

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// The group is expected to already require authentication.
func RegisterRoutesWithGroup(g *echo.Group, bookService *Service, entries EntryFinder) {
	h := &handler{
		bookService: bookService,
		entries:     entries,
	}

	g.GET("/search", h.search)
	g.GET("/:id", h.retrieve)
}
