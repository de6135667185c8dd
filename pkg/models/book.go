package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultLanguage is used when the catalog doesn't report a language for a
// volume.
const DefaultLanguage = "en"

// Book is the locally cached copy of a catalog volume. The ID is the stable
// identifier assigned by the upstream catalog, so the table is a shared cache
// keyed by catalog identifier rather than per-user data. Rows are created the
// first time a volume is fetched or returned by a search, replaced in full by
// later fetches of the same identifier, and never deleted by user action.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID            string    `bun:",pk" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Title         string    `bun:",nullzero" json:"title"`
	Author        string    `bun:",nullzero" json:"author"`
	Description   *string   `json:"description,omitempty"`
	CoverImageURL *string   `bun:"cover_image_url" json:"cover_image_url,omitempty"`
	PageCount     *int      `json:"page_count,omitempty"`
	PublishedDate *string   `json:"published_date,omitempty"`
	Publisher     *string   `json:"publisher,omitempty"`
	Language      string    `bun:",nullzero" json:"language"`
}
