package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/listenupapp/readinglists-server/internal/domain"
	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/store"
	"github.com/listenupapp/readinglists-server/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// BookView is a book as clients see it.
type BookView struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Self   string `json:"self"`
}

// ReadingListView is a reading list as clients see it.
type ReadingListView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	User        string  `json:"user"`
	Books       []int64 `json:"books"`
	Self        string  `json:"self"`
}

// UserView is a user as clients see it.
type UserView struct {
	ID string `json:"id"`
}

// BookPage is the body of GET /books.
type BookPage struct {
	Books []BookView `json:"books"`
	Count int        `json:"count"`
	Next  string     `json:"next,omitempty"`
}

// ReadingListPage is the body of GET /reading_lists.
type ReadingListPage struct {
	ReadingLists []ReadingListView `json:"reading_lists"`
	Count        int               `json:"count"`
	Next         string            `json:"next,omitempty"`
}

// UserPage is the body of GET /users.
type UserPage struct {
	Users []UserView `json:"users"`
	Count int        `json:"count"`
	Next  string     `json:"next,omitempty"`
}

// ReadingListBooks is the body of GET /reading_lists/{id}/books.
type ReadingListBooks struct {
	Books []BookView `json:"books"`
}

func (s *Server) selfURL(kind string, id int64) string {
	return fmt.Sprintf("%s/%s/%d", s.root, kind, id)
}

func (s *Server) bookView(b *domain.Book) BookView {
	return BookView{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Genre:  b.Genre,
		Self:   s.selfURL(domain.BooksKind, b.ID),
	}
}

func (s *Server) bookViews(books []*domain.Book) []BookView {
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		views = append(views, s.bookView(b))
	}
	return views
}

func (s *Server) readingListView(l *domain.ReadingList) ReadingListView {
	books := l.Books
	if books == nil {
		books = []int64{}
	}
	return ReadingListView{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		User:        l.User,
		Books:       books,
		Self:        s.selfURL(domain.ReadingListsKind, l.ID),
	}
}

// pageParams are the parsed limit and offset of a list request.
type pageParams struct {
	Limit  int
	Offset int
}

// parsePage reads limit and offset. A limit of zero falls back to the
// default and anything above the maximum is capped; non-integers, negative
// values and offsets past store.MaxOffset are rejected.
func parsePage(q url.Values) (pageParams, error) {
	p := pageParams{Limit: store.DefaultLimit}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return p, domainerrors.Validation("Invalid limit")
		}
		if limit > 0 {
			p.Limit = min(limit, store.MaxLimit)
		}
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 || offset > store.MaxOffset {
			return p, domainerrors.Validation("Invalid offset")
		}
		p.Offset = offset
	}

	return p, nil
}

// nextURL links to the page after p, or returns "" when there is none.
// Extra carries active filters so the following page matches the same set.
func (s *Server) nextURL(r *http.Request, p pageParams, hasMore bool, extra url.Values) string {
	if !hasMore {
		return ""
	}
	next := fmt.Sprintf("%s%s?limit=%d&offset=%d", s.root, r.URL.Path, p.Limit, p.Offset+p.Limit)
	if len(extra) > 0 {
		next += "&" + extra.Encode()
	}
	return next
}

// decodeBody reads a JSON object from the request body into dst.
func decodeBody(r *http.Request, w http.ResponseWriter, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domainerrors.Validation(validation.MissingAttributes)
		}
		return domainerrors.Validation("The request body is not a valid JSON object").WithCause(err)
	}
	return nil
}

// pageOf converts a store page into views with f.
func pageOf[T, V any](page *store.Page[T], f func(*T) V) []V {
	views := make([]V, 0, len(page.Items))
	for _, item := range page.Items {
		views = append(views, f(item))
	}
	return views
}
