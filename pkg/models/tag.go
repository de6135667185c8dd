package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Tag is a shared label. Tag rows are created on demand when a user tags an
// entry and are shared across users; ownership of the association lives in
// BookEntryTag.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `bun:",nullzero" json:"name"`
}

// BookEntryTag joins book entries to tags.
type BookEntryTag struct {
	bun.BaseModel `bun:"table:book_entry_tags,alias:bet"`

	BookEntryID int        `bun:",pk" json:"book_entry_id"`
	TagID       int        `bun:",pk" json:"tag_id"`
	BookEntry   *BookEntry `bun:"rel:belongs-to,join:book_entry_id=id" json:"-"`
	Tag         *Tag       `bun:"rel:belongs-to,join:tag_id=id" json:"-"`
}
