package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/beachatlas/beachatlas-server/internal/domain"
)

// PageQuery selects one page of beaches. Rows are ordered by id descending;
// Cursor, when set, is the id of the last row of the previous page and
// admits only ids strictly below it.
type PageQuery struct {
	Filter      domain.ColumnFilter
	Restriction domain.Restriction
	Cursor      string
	Limit       int
}

// Validate checks the page bounds and cursor shape. Ids are compared as
// text, so only the canonical lowercase form is accepted.
func (q PageQuery) Validate() error {
	if q.Limit < 1 || q.Limit > domain.MaxPageLimit {
		return ErrInvalidInput.WithMessage(fmt.Sprintf("limit must be between 1 and %d", domain.MaxPageLimit))
	}
	if q.Cursor != "" {
		u, err := uuid.Parse(q.Cursor)
		if err != nil {
			return ErrInvalidInput.WithMessage("cursor is not a beach id").WithCause(err)
		}
		if u.String() != q.Cursor {
			return ErrInvalidInput.WithMessage("cursor is not a beach id")
		}
	}
	return nil
}

// PaginatedResult contains one page and its continuation. NextCursor is
// empty exactly when HasMore is false.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// EmptyResult returns a result with no items and no continuation.
func EmptyResult[T any]() *PaginatedResult[T] {
	return &PaginatedResult[T]{Items: []T{}}
}
