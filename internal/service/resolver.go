// Package service holds the request-independent business logic of the
// reading lists API: resolving IDs, ownership checks, and book membership.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/listenupapp/readinglists-server/internal/domain"
	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/store"
)

// Singular resource names used in client-facing messages.
const (
	bookName        = "book"
	readingListName = "reading_list"
)

// ParseID parses a path ID. IDs are positive integers.
func ParseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domainerrors.Validationf("Invalid %s_id", name)
	}
	return id, nil
}

func notFound(name string) *domainerrors.Error {
	return domainerrors.NotFoundf("No %s with this %s_id exists", name, name)
}

// Resolver turns raw path IDs into stored records.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a new resolver.
func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Book resolves a book ID.
func (r *Resolver) Book(ctx context.Context, raw string) (*domain.Book, error) {
	id, err := ParseID(bookName, raw)
	if err != nil {
		return nil, err
	}
	return resolve(ctx, r.store.Books, bookName, id)
}

// ReadingList resolves a reading list ID.
func (r *Resolver) ReadingList(ctx context.Context, raw string) (*domain.ReadingList, error) {
	id, err := ParseID(readingListName, raw)
	if err != nil {
		return nil, err
	}
	return resolve(ctx, r.store.ReadingLists, readingListName, id)
}

func resolve[T any](ctx context.Context, e *store.Entity[T], name string, id int64) (*T, error) {
	v, err := e.Get(ctx, store.Key(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", name, id, err)
	}
	return v, nil
}

// Gate decides whether a subject may act on a reading list.
type Gate struct{}

// Authorize returns a Forbidden error unless subject owns the list.
func (Gate) Authorize(list *domain.ReadingList, subject string) error {
	if !list.IsOwnedBy(subject) {
		return domainerrors.Forbidden("This reading list belongs to another user")
	}
	return nil
}

// mapMissing converts a store miss into the client-facing not found error.
func mapMissing(err error, name string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(name)
	}
	return fmt.Errorf("update %s: %w", name, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound)
}
