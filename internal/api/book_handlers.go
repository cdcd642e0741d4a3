package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/readinglists-server/internal/domain"
	"github.com/listenupapp/readinglists-server/internal/http/response"
	"github.com/listenupapp/readinglists-server/internal/service"
)

// bookFilter reads the optional equality filters of GET /books and returns
// them along with the query values to carry into the next link.
func bookFilter(q url.Values) (service.BookFilter, url.Values) {
	f := service.BookFilter{
		Title:  q.Get(domain.BookFieldTitle),
		Author: q.Get(domain.BookFieldAuthor),
		Genre:  q.Get(domain.BookFieldGenre),
	}

	carry := url.Values{}
	for _, field := range domain.BookFields {
		if v := q.Get(field); v != "" {
			carry.Set(field, v)
		}
	}
	return f, carry
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePage(q)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	filter, carry := bookFilter(q)

	page, err := s.services.Books.List(r.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, BookPage{
		Books: pageOf(page, s.bookView),
		Count: page.Total,
		Next:  s.nextURL(r, p, page.HasMore, carry),
	}, s.logger)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req service.BookRequest
	if err := decodeBody(r, w, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	book, err := s.services.Books.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, s.bookView(book), s.logger)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.services.Resolver.Book(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.bookView(book), s.logger)
}

func (s *Server) handleReplaceBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.services.Resolver.Book(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req service.BookRequest
	if err := decodeBody(r, w, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	updated, err := s.services.Books.Replace(r.Context(), book, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.bookView(updated), s.logger)
}

func (s *Server) handlePatchBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.services.Resolver.Book(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var patch service.BookPatch
	if err := decodeBody(r, w, &patch); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	updated, err := s.services.Books.Patch(r.Context(), book, patch)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.bookView(updated), s.logger)
}

// handleDeleteBook removes the book and strips it from every reading list.
// The cascade is best effort; the delete succeeds once the book is gone.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.services.Resolver.Book(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	patched, err := s.services.Books.Delete(r.Context(), book)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if s.metrics != nil {
		s.metrics.CascadePatched(patched)
	}

	response.NoContent(w)
}
