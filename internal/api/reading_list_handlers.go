package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/readinglists-server/internal/domain"
	"github.com/listenupapp/readinglists-server/internal/http/response"
	"github.com/listenupapp/readinglists-server/internal/service"
)

// ownedList resolves the list named by the id route parameter, then
// verifies the caller's token, then checks ownership. The order is fixed:
// 400/404 before 401 before 403. On failure the response is already written.
func (s *Server) ownedList(w http.ResponseWriter, r *http.Request) (*domain.ReadingList, bool) {
	list, err := s.services.Resolver.ReadingList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return nil, false
	}
	return list, s.authorizeList(w, r, list)
}

func (s *Server) authorizeList(w http.ResponseWriter, r *http.Request, list *domain.ReadingList) bool {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return false
	}
	if err := s.services.Gate.Authorize(list, identity.Subject); err != nil {
		s.logger.Info("Reading list access denied", "reading_list_id", list.ID, "subject", identity.Subject)
		response.HandleError(w, err, s.logger)
		return false
	}
	return true
}

func (s *Server) handleListReadingLists(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	p, err := parsePage(r.URL.Query())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	page, err := s.services.ReadingLists.ListOwned(r.Context(), identity.Subject, p.Limit, p.Offset)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ReadingListPage{
		ReadingLists: pageOf(page, s.readingListView),
		Count:        page.Total,
		Next:         s.nextURL(r, p, page.HasMore, nil),
	}, s.logger)
}

func (s *Server) handleCreateReadingList(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req service.ReadingListRequest
	if err := decodeBody(r, w, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	list, err := s.services.ReadingLists.Create(r.Context(), identity.Subject, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, s.readingListView(list), s.logger)
}

func (s *Server) handleGetReadingList(w http.ResponseWriter, r *http.Request) {
	list, ok := s.ownedList(w, r)
	if !ok {
		return
	}
	response.Success(w, s.readingListView(list), s.logger)
}

func (s *Server) handleReplaceReadingList(w http.ResponseWriter, r *http.Request) {
	list, ok := s.ownedList(w, r)
	if !ok {
		return
	}

	var req service.ReadingListRequest
	if err := decodeBody(r, w, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	updated, err := s.services.ReadingLists.Replace(r.Context(), list, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.readingListView(updated), s.logger)
}

func (s *Server) handlePatchReadingList(w http.ResponseWriter, r *http.Request) {
	list, ok := s.ownedList(w, r)
	if !ok {
		return
	}

	var patch service.ReadingListPatch
	if err := decodeBody(r, w, &patch); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	updated, err := s.services.ReadingLists.Patch(r.Context(), list, patch)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.readingListView(updated), s.logger)
}

func (s *Server) handleDeleteReadingList(w http.ResponseWriter, r *http.Request) {
	list, ok := s.ownedList(w, r)
	if !ok {
		return
	}

	if err := s.services.ReadingLists.Delete(r.Context(), list); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleListReadingListBooks(w http.ResponseWriter, r *http.Request) {
	list, ok := s.ownedList(w, r)
	if !ok {
		return
	}

	books, err := s.services.ReadingLists.Books(r.Context(), list)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, ReadingListBooks{Books: s.bookViews(books)}, s.logger)
}

// membership resolves both ends of an association route, list first, and
// then authorizes the caller against the list.
func (s *Server) membership(w http.ResponseWriter, r *http.Request) (*domain.ReadingList, *domain.Book, bool) {
	list, err := s.services.Resolver.ReadingList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return nil, nil, false
	}
	book, err := s.services.Resolver.Book(r.Context(), chi.URLParam(r, "book_id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return nil, nil, false
	}
	if !s.authorizeList(w, r, list) {
		return nil, nil, false
	}
	return list, book, true
}

func (s *Server) handleAddBookToReadingList(w http.ResponseWriter, r *http.Request) {
	list, book, ok := s.membership(w, r)
	if !ok {
		return
	}

	if _, err := s.services.Relations.AddBook(r.Context(), list, book); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleRemoveBookFromReadingList(w http.ResponseWriter, r *http.Request) {
	list, book, ok := s.membership(w, r)
	if !ok {
		return
	}

	if _, err := s.services.Relations.RemoveBook(r.Context(), list, book); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}
