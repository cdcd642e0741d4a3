package domain

import "slices"

// Reading list collection and field names as they appear in stored documents and URLs.
const (
	ReadingListsKind = "reading_lists"

	ReadingListFieldName        = "name"
	ReadingListFieldDescription = "description"
	ReadingListFieldUser        = "user"
	ReadingListFieldBooks       = "books"
)

// ReadingList is an ordered set of books owned by a single user.
type ReadingList struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	User        string  `json:"user"`  // Subject of the creator
	Books       []int64 `json:"books"` // Book IDs, unique, insertion ordered
}

// IsOwnedBy reports whether subject created this list.
func (r *ReadingList) IsOwnedBy(subject string) bool {
	return subject != "" && r.User == subject
}

// AddBook adds a book ID if not already present.
func (r *ReadingList) AddBook(bookID int64) bool {
	if slices.Contains(r.Books, bookID) {
		return false
	}
	r.Books = append(r.Books, bookID)
	return true
}

// RemoveBook removes a book ID from the list.
func (r *ReadingList) RemoveBook(bookID int64) bool {
	idx := slices.Index(r.Books, bookID)
	if idx < 0 {
		return false
	}
	r.Books = slices.Delete(r.Books, idx, idx+1)
	return true
}

// ContainsBook checks if a book ID is in this list.
func (r *ReadingList) ContainsBook(bookID int64) bool {
	return slices.Contains(r.Books, bookID)
}
