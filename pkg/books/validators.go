package books

// SearchBooksQuery holds the query params for the catalog search endpoint.
type SearchBooksQuery struct {
	Query string `query:"query" json:"query" validate:"required,min=1,max=500"`
	Limit int    `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=40"`
}
