package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/readinglists-server/internal/domain"
	"github.com/listenupapp/readinglists-server/internal/store"
	"github.com/listenupapp/readinglists-server/internal/validation"
)

// ReadingListService orchestrates reading list operations.
// Callers resolve and authorize the list before calling item methods.
type ReadingListService struct {
	store     *store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewReadingListService creates a new reading list service.
func NewReadingListService(s *store.Store, logger *slog.Logger) *ReadingListService {
	return &ReadingListService{
		store:     s,
		logger:    logger,
		validator: validation.New(),
	}
}

// ReadingListRequest is the body of POST and PUT on reading lists.
// The description must be present but may be empty.
type ReadingListRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

func (r ReadingListRequest) document() store.Document {
	return store.Document{
		domain.ReadingListFieldName:        r.Name,
		domain.ReadingListFieldDescription: *r.Description,
	}
}

// ReadingListPatch is the body of PATCH on reading lists.
// Owner and books are not patchable, so they have no fields here.
type ReadingListPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Create stores a new empty list owned by subject.
func (s *ReadingListService) Create(ctx context.Context, subject string, req ReadingListRequest) (*domain.ReadingList, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	doc := req.document()
	doc[domain.ReadingListFieldUser] = subject
	doc[domain.ReadingListFieldBooks] = []int64{}

	rl, err := s.store.ReadingLists.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create reading list: %w", err)
	}

	s.logger.Info("reading list created", "id", rl.ID, "user", subject)
	return rl, nil
}

// ListOwned returns one page of the lists owned by subject.
func (s *ReadingListService) ListOwned(ctx context.Context, subject string, limit, offset int) (*store.Page[domain.ReadingList], error) {
	return s.store.ReadingLists.QueryPage(ctx, store.Query[domain.ReadingList]{
		Limit:  limit,
		Offset: offset,
		Filter: func(rl *domain.ReadingList) bool { return rl.IsOwnedBy(subject) },
	})
}

// Replace overwrites name and description.
func (s *ReadingListService) Replace(ctx context.Context, list *domain.ReadingList, req ReadingListRequest) (*domain.ReadingList, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.update(ctx, list.ID, req.document(), false)
}

// Patch overwrites the supplied fields.
func (s *ReadingListService) Patch(ctx context.Context, list *domain.ReadingList, patch ReadingListPatch) (*domain.ReadingList, error) {
	doc := store.Document{}
	setIfPresent(doc, domain.ReadingListFieldName, patch.Name)
	setIfPresent(doc, domain.ReadingListFieldDescription, patch.Description)
	return s.update(ctx, list.ID, doc, true)
}

func (s *ReadingListService) update(ctx context.Context, id int64, doc store.Document, partial bool) (*domain.ReadingList, error) {
	rl, err := s.store.ReadingLists.Update(ctx, store.Key(id), doc, partial)
	if err != nil {
		return nil, mapMissing(err, readingListName)
	}
	return rl, nil
}

// Delete removes the list. Books are not touched.
func (s *ReadingListService) Delete(ctx context.Context, list *domain.ReadingList) error {
	if err := s.store.ReadingLists.Delete(ctx, store.Key(list.ID)); err != nil {
		return fmt.Errorf("delete reading list %d: %w", list.ID, err)
	}
	s.logger.Info("reading list deleted", "id", list.ID)
	return nil
}

// Books returns the full records of the list's books in list order.
// IDs left dangling by an interrupted cascade are skipped.
func (s *ReadingListService) Books(ctx context.Context, list *domain.ReadingList) ([]*domain.Book, error) {
	books := make([]*domain.Book, 0, len(list.Books))
	for _, bookID := range list.Books {
		book, err := resolve(ctx, s.store.Books, bookName, bookID)
		if err != nil {
			if isNotFound(err) {
				s.logger.Debug("skipping dangling book reference", "reading_list_id", list.ID, "book_id", bookID)
				continue
			}
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}
