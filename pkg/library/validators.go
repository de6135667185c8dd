package library

// Query params for library endpoints.
type ListLibraryQuery struct {
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=want_to_read reading read"`
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// Payloads for add/update endpoints.
type AddBookPayload struct {
	BookID string `json:"book_id" validate:"required,min=1,max=100"`
	Status string `json:"status" default:"want_to_read" validate:"oneof=want_to_read reading read"`
}

type UpdateEntryPayload struct {
	Status     *string   `json:"status,omitempty" validate:"omitempty,oneof=want_to_read reading read"`
	Rating     *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Review     *string   `json:"review,omitempty" validate:"omitempty,max=5000"`
	StartDate  *string   `json:"start_date,omitempty" validate:"omitempty,date"`
	FinishDate *string   `json:"finish_date,omitempty" validate:"omitempty,date"`
	Tags       *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,min=1,max=50"`
}
