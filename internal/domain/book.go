// Package domain contains the typed records stored by the reading lists API.
package domain

// Book collection and field names as they appear in stored documents and URLs.
const (
	BooksKind = "books"

	BookFieldTitle  = "title"
	BookFieldAuthor = "author"
	BookFieldGenre  = "genre"
)

// BookFields lists the caller-editable fields of a book.
var BookFields = []string{BookFieldTitle, BookFieldAuthor, BookFieldGenre}

// Book is a public catalog entry. Books have no owner.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}
