package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Book entry statuses.
const (
	StatusWantToRead = "want_to_read"
	StatusReading    = "reading"
	StatusRead       = "read"
)

// EntryStatuses lists all valid book entry statuses.
var EntryStatuses = []string{StatusWantToRead, StatusReading, StatusRead}

// BookEntry is a user's private overlay on a cached book: shelf status,
// rating, review, reading dates, and tags. There is at most one entry per
// (user, book) pair, enforced by a unique index. Deleting an entry never
// deletes the referenced book row.
type BookEntry struct {
	bun.BaseModel `bun:"table:book_entries,alias:be"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     int       `json:"user_id"`
	BookID     string    `bun:",nullzero" json:"book_id"`
	Status     string    `bun:",nullzero" json:"status"`
	Rating     *int      `json:"rating,omitempty"`
	Review     *string   `json:"review,omitempty"`
	StartDate  *string   `json:"start_date,omitempty"`
	FinishDate *string   `json:"finish_date,omitempty"`

	// Relations
	Book *Book  `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Tags []*Tag `bun:"m2m:book_entry_tags,join:BookEntry=Tag" json:"tags,omitempty"`
}
