package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readinglists-server/internal/store"
	"github.com/listenupapp/readinglists-server/internal/validation"
)

func bookBody(title, author, genre string) map[string]string {
	return map[string]string{"title": title, "author": author, "genre": genre}
}

func (ts *testServer) createBook(t *testing.T, title, genre string) BookView {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/books", bookBody(title, "Anon", genre))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[BookView](t, rec)
}

// relative strips the public root from an absolute link.
func relative(t *testing.T, link string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(link, testRoot), link)
	return strings.TrimPrefix(link, testRoot)
}

func TestCreateBook_ResponseShape(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/books", bookBody("Dune", "Frank Herbert", "Science Fiction"))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Len(t, body, 5)
	assert.Equal(t, "Dune", body["title"])
	assert.Equal(t, "Frank Herbert", body["author"])
	assert.Equal(t, "Science Fiction", body["genre"])

	id, ok := body["id"].(float64)
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("%s/books/%d", testRoot, int64(id)), body["self"])
}

func TestCreateBook_IgnoresUnknownFields(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/books", map[string]any{
		"title": "Emma", "author": "Jane Austen", "genre": "Novel", "id": 77, "isbn": "x",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.NotContains(t, body, "isbn")
	assert.NotEqual(t, float64(77), body["id"])
}

func TestCreateBook_Invalid(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body any
		msg  string
	}{
		{"missing genre", map[string]string{"title": "Dune", "author": "Frank Herbert"}, validation.MissingAttributes},
		{"empty body", "", validation.MissingAttributes},
		{"empty object", "{}", validation.MissingAttributes},
		{"not json", "{title", "The request body is not a valid JSON object"},
		{"array", "[]", "The request body is not a valid JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/books", tt.body, withHeader("Content-Type", "application/json"))
			requireError(t, rec, http.StatusBadRequest, tt.msg)
		})
	}

	rec := ts.do(t, http.MethodGet, "/books", nil)
	assert.Equal(t, 0, decode[BookPage](t, rec).Count)
}

func TestGetBook(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Dune", "Science Fiction")

	rec := ts.do(t, http.MethodGet, relative(t, book.Self), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, book, decode[BookView](t, rec))
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/books/999999", nil)
	requireError(t, rec, http.StatusNotFound, "No book with this book_id exists")
}

func TestGetBook_InvalidID(t *testing.T) {
	ts := setupTestServer(t)

	for _, raw := range []string{"abc", "0", "-3", "1.5"} {
		rec := ts.do(t, http.MethodGet, "/books/"+raw, nil)
		requireError(t, rec, http.StatusBadRequest, "Invalid book_id")
	}
}

func TestListBooks_FollowNext(t *testing.T) {
	ts := setupTestServer(t)
	for i := range 5 {
		ts.createBook(t, fmt.Sprintf("Book %d", i), "Fiction")
	}

	seen := map[int64]bool{}
	var titles []string
	path := "/books?limit=2&offset=0"
	pages := 0

	for path != "" {
		rec := ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[BookPage](t, rec)

		assert.Equal(t, 5, page.Count)
		assert.LessOrEqual(t, len(page.Books), 2)
		for _, b := range page.Books {
			assert.False(t, seen[b.ID], "book %d returned twice", b.ID)
			seen[b.ID] = true
			titles = append(titles, b.Title)
		}

		pages++
		path = ""
		if page.Next != "" {
			path = relative(t, page.Next)
		}
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"Book 0", "Book 1", "Book 2", "Book 3", "Book 4"}, titles)
}

func TestListBooks_NextFormat(t *testing.T) {
	ts := setupTestServer(t)
	for i := range 3 {
		ts.createBook(t, fmt.Sprintf("Book %d", i), "Fiction")
	}

	page := decode[BookPage](t, ts.do(t, http.MethodGet, "/books?limit=2", nil))
	assert.Equal(t, testRoot+"/books?limit=2&offset=2", page.Next)

	page = decode[BookPage](t, ts.do(t, http.MethodGet, "/books?limit=2&offset=2", nil))
	assert.Empty(t, page.Next)
	assert.Len(t, page.Books, 1)
}

func TestListBooks_DefaultAndCappedLimit(t *testing.T) {
	ts := setupTestServer(t)
	for i := range 7 {
		ts.createBook(t, fmt.Sprintf("Book %d", i), "Fiction")
	}

	page := decode[BookPage](t, ts.do(t, http.MethodGet, "/books", nil))
	assert.Len(t, page.Books, 5)
	assert.Equal(t, testRoot+"/books?limit=5&offset=5", page.Next)

	page = decode[BookPage](t, ts.do(t, http.MethodGet, "/books?limit=0", nil))
	assert.Len(t, page.Books, 5)

	page = decode[BookPage](t, ts.do(t, http.MethodGet, "/books?limit=1000", nil))
	assert.Len(t, page.Books, 7)
	assert.Empty(t, page.Next)
}

func TestListBooks_InvalidPagination(t *testing.T) {
	ts := setupTestServer(t)

	requireError(t, ts.do(t, http.MethodGet, "/books?limit=two", nil), http.StatusBadRequest, "Invalid limit")
	requireError(t, ts.do(t, http.MethodGet, "/books?limit=-1", nil), http.StatusBadRequest, "Invalid limit")
	requireError(t, ts.do(t, http.MethodGet, "/books?offset=-5", nil), http.StatusBadRequest, "Invalid offset")
}

func TestListBooks_OffsetNearMaxInt(t *testing.T) {
	ts := setupTestServer(t)
	for i := range 3 {
		ts.createBook(t, fmt.Sprintf("Book %d", i), "Fiction")
	}

	rec := ts.do(t, http.MethodGet, "/books?offset=9223372036854775807", nil)
	requireError(t, rec, http.StatusBadRequest, "Invalid offset")

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/books?limit=100&offset=%d", store.MaxOffset), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[BookPage](t, rec)
	assert.Empty(t, page.Books)
	assert.Equal(t, 3, page.Count)
	assert.Empty(t, page.Next)
}

func TestListBooks_Filter(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBook(t, "Dune", "Science Fiction")
	ts.createBook(t, "Emma", "Novel")
	ts.createBook(t, "Neuromancer", "Science Fiction")
	ts.createBook(t, "Hyperion", "Science Fiction")

	page := decode[BookPage](t, ts.do(t, http.MethodGet, "/books?genre=Science+Fiction&limit=2", nil))
	assert.Equal(t, 3, page.Count)
	require.Len(t, page.Books, 2)
	assert.Equal(t, "Dune", page.Books[0].Title)
	assert.Equal(t, testRoot+"/books?limit=2&offset=2&genre=Science+Fiction", page.Next)

	page = decode[BookPage](t, ts.do(t, http.MethodGet, relative(t, page.Next), nil))
	require.Len(t, page.Books, 1)
	assert.Equal(t, "Hyperion", page.Books[0].Title)
	assert.Empty(t, page.Next)
}

func TestReplaceBook(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Dune", "Science Fiction")

	rec := ts.do(t, http.MethodPut, relative(t, book.Self), bookBody("Dune Messiah", "Frank Herbert", "SF"))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[BookView](t, rec)
	assert.Equal(t, book.ID, got.ID)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, "SF", got.Genre)
	assert.Equal(t, book.Self, got.Self)
}

func TestReplaceBook_MissingFieldLeavesBookUnchanged(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Dune", "Science Fiction")

	rec := ts.do(t, http.MethodPut, relative(t, book.Self), map[string]string{"title": "Other", "author": "Someone"})
	requireError(t, rec, http.StatusBadRequest, validation.MissingAttributes)

	got := decode[BookView](t, ts.do(t, http.MethodGet, relative(t, book.Self), nil))
	assert.Equal(t, book, got)
}

func TestPatchBook(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Dune", "Science Fiction")

	rec := ts.do(t, http.MethodPatch, relative(t, book.Self), map[string]any{"genre": "Classic", "id": 42, "pages": 412})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[BookView](t, rec)
	assert.Equal(t, book.ID, got.ID)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Classic", got.Genre)
}

func TestPatchBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPatch, "/books/999999", map[string]string{"genre": "x"})
	requireError(t, rec, http.StatusNotFound, "No book with this book_id exists")
}

func TestDeleteBook(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.createBook(t, "Dune", "Science Fiction")

	rec := ts.do(t, http.MethodDelete, relative(t, book.Self), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = ts.do(t, http.MethodGet, relative(t, book.Self), nil)
	requireError(t, rec, http.StatusNotFound, "No book with this book_id exists")

	rec = ts.do(t, http.MethodDelete, relative(t, book.Self), nil)
	requireError(t, rec, http.StatusNotFound, "No book with this book_id exists")
}
