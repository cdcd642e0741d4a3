package store

import "math"

// Pagination defaults shared by every list endpoint.
const (
	DefaultLimit = 5
	MaxLimit     = 100

	// MaxOffset keeps Offset+Limit representable.
	MaxOffset = math.MaxInt - MaxLimit
)

// Query selects one offset page of a collection.
type Query[T any] struct {
	Limit  int           // Items per page (defaults to 5, capped at 100)
	Offset int           // Matches to skip
	Filter func(*T) bool // Optional; nil matches everything
}

// Page is one slice of a collection in native key order.
type Page[T any] struct {
	Items   []*T `json:"items"`
	HasMore bool `json:"has_more"` // Matches exist beyond Offset+Limit
	Total   int  `json:"total"`    // All matches, regardless of Limit/Offset
}

// Validate checks and corrects pagination parameters.
func (q *Query[T]) Validate() {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Offset > MaxOffset {
		q.Offset = MaxOffset
	}
}

// NextOffset returns the offset of the following page.
func (q *Query[T]) NextOffset() int {
	if q.Limit > 0 && q.Offset > math.MaxInt-q.Limit {
		return math.MaxInt
	}
	return q.Offset + q.Limit
}
