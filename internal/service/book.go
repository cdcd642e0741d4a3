package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/readinglists-server/internal/domain"
	"github.com/listenupapp/readinglists-server/internal/store"
	"github.com/listenupapp/readinglists-server/internal/validation"
)

// BookService orchestrates book operations.
type BookService struct {
	store     *store.Store
	relations *RelationshipManager
	logger    *slog.Logger
	validator *validation.Validator
}

// NewBookService creates a new book service.
func NewBookService(s *store.Store, relations *RelationshipManager, logger *slog.Logger) *BookService {
	return &BookService{
		store:     s,
		relations: relations,
		logger:    logger,
		validator: validation.New(),
	}
}

// BookRequest is the body of POST and PUT on books.
type BookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	Genre  string `json:"genre" validate:"required"`
}

func (r BookRequest) document() store.Document {
	return store.Document{
		domain.BookFieldTitle:  r.Title,
		domain.BookFieldAuthor: r.Author,
		domain.BookFieldGenre:  r.Genre,
	}
}

// BookPatch is the body of PATCH on books. Absent fields are left alone.
type BookPatch struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Genre  *string `json:"genre"`
}

func (p BookPatch) document() store.Document {
	doc := store.Document{}
	setIfPresent(doc, domain.BookFieldTitle, p.Title)
	setIfPresent(doc, domain.BookFieldAuthor, p.Author)
	setIfPresent(doc, domain.BookFieldGenre, p.Genre)
	return doc
}

// BookFilter selects books by exact field match. Empty fields match anything.
type BookFilter struct {
	Title  string
	Author string
	Genre  string
}

// IsZero reports whether the filter matches every book.
func (f BookFilter) IsZero() bool {
	return f == BookFilter{}
}

func (f BookFilter) match(b *domain.Book) bool {
	return (f.Title == "" || b.Title == f.Title) &&
		(f.Author == "" || b.Author == f.Author) &&
		(f.Genre == "" || b.Genre == f.Genre)
}

// Create validates and stores a new book.
func (s *BookService) Create(ctx context.Context, req BookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.Books.Create(ctx, req.document())
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created", "id", book.ID, "title", book.Title)
	return book, nil
}

// List returns one page of books in creation order.
func (s *BookService) List(ctx context.Context, filter BookFilter, limit, offset int) (*store.Page[domain.Book], error) {
	q := store.Query[domain.Book]{Limit: limit, Offset: offset}
	if !filter.IsZero() {
		q.Filter = filter.match
	}
	return s.store.Books.QueryPage(ctx, q)
}

// Replace overwrites every field of book. The stored book is untouched when
// validation fails.
func (s *BookService) Replace(ctx context.Context, book *domain.Book, req BookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.update(ctx, book.ID, req.document(), false)
}

// Patch overwrites the supplied fields of book.
func (s *BookService) Patch(ctx context.Context, book *domain.Book, patch BookPatch) (*domain.Book, error) {
	return s.update(ctx, book.ID, patch.document(), true)
}

func (s *BookService) update(ctx context.Context, id int64, doc store.Document, partial bool) (*domain.Book, error) {
	book, err := s.store.Books.Update(ctx, store.Key(id), doc, partial)
	if err != nil {
		return nil, mapMissing(err, bookName)
	}
	return book, nil
}

// Delete removes book and then strips it from every reading list.
// Cascade failures are logged and reported only through the returned count.
func (s *BookService) Delete(ctx context.Context, book *domain.Book) (patched int, err error) {
	if err := s.store.Books.Delete(ctx, store.Key(book.ID)); err != nil {
		return 0, fmt.Errorf("delete book %d: %w", book.ID, err)
	}

	patched, cascadeErr := s.relations.CascadeDeleteBook(ctx, book.ID)
	if cascadeErr != nil {
		s.logger.Error("book deleted but cascade incomplete",
			"id", book.ID,
			"patched", patched,
			"error", cascadeErr,
		)
	} else {
		s.logger.Info("book deleted", "id", book.ID, "reading_lists_patched", patched)
	}

	return patched, nil
}

func setIfPresent(doc store.Document, field string, v *string) {
	if v != nil {
		doc[field] = *v
	}
}
