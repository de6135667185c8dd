package library

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers library routes on a pre-configured group.
// The group is expected to already require authentication.
func RegisterRoutesWithGroup(g *echo.Group, libraryService *Service) {
	h := &handler{
		libraryService: libraryService,
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:bookId", h.retrieve)
	g.POST("/:bookId", h.update)
	g.DELETE("/:bookId", h.delete)
}
