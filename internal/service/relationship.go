package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/listenupapp/readinglists-server/internal/domain"
	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/store"
)

// Membership conflict messages.
const (
	MsgBookAlreadyInList = "Book already in reading list"
	MsgBookNotInList     = "Book is not in the reading list"
)

// readingLists is the slice of the reading list collection the manager
// touches. *store.Entity[domain.ReadingList] satisfies it.
type readingLists interface {
	List(ctx context.Context) iter.Seq2[*domain.ReadingList, error]
	Mutate(ctx context.Context, key string, fn func(*domain.ReadingList) (bool, error)) (*domain.ReadingList, error)
}

// RelationshipManager maintains the books of reading lists.
type RelationshipManager struct {
	lists  readingLists
	logger *slog.Logger
}

// NewRelationshipManager creates a new relationship manager.
func NewRelationshipManager(s *store.Store, logger *slog.Logger) *RelationshipManager {
	return &RelationshipManager{lists: s.ReadingLists, logger: logger}
}

// AddBook appends book to list. Adding a book twice is a conflict.
func (m *RelationshipManager) AddBook(ctx context.Context, list *domain.ReadingList, book *domain.Book) (*domain.ReadingList, error) {
	return m.mutate(ctx, list.ID, func(rl *domain.ReadingList) (bool, error) {
		if !rl.AddBook(book.ID) {
			return false, domainerrors.Conflict(MsgBookAlreadyInList)
		}
		return true, nil
	})
}

// RemoveBook drops book from list. Removing an absent book is a conflict.
func (m *RelationshipManager) RemoveBook(ctx context.Context, list *domain.ReadingList, book *domain.Book) (*domain.ReadingList, error) {
	return m.mutate(ctx, list.ID, func(rl *domain.ReadingList) (bool, error) {
		if !rl.RemoveBook(book.ID) {
			return false, domainerrors.Conflict(MsgBookNotInList)
		}
		return true, nil
	})
}

// mutate re-reads the list inside one transaction so concurrent membership
// changes to the same list never lose each other's writes.
func (m *RelationshipManager) mutate(ctx context.Context, listID int64, fn func(*domain.ReadingList) (bool, error)) (*domain.ReadingList, error) {
	rl, err := m.lists.Mutate(ctx, store.Key(listID), fn)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between resolution and mutation.
		return nil, notFound(readingListName)
	}
	return rl, err
}

// CascadeDeleteBook removes bookID from every reading list that holds it and
// returns how many lists were patched.
//
// Lists are patched one transaction at a time. A failure on one list is logged
// and the scan moves on; all failures come back joined. Lists created or
// changed while the scan runs may keep a dangling ID.
func (m *RelationshipManager) CascadeDeleteBook(ctx context.Context, bookID int64) (int, error) {
	var holders []int64
	for rl, err := range m.lists.List(ctx) {
		if err != nil {
			return 0, fmt.Errorf("scan reading lists: %w", err)
		}
		if rl.ContainsBook(bookID) {
			holders = append(holders, rl.ID)
		}
	}

	var (
		patched int
		errs    []error
	)
	for _, listID := range holders {
		changed := false
		_, err := m.lists.Mutate(ctx, store.Key(listID), func(rl *domain.ReadingList) (bool, error) {
			changed = rl.RemoveBook(bookID)
			return changed, nil
		})
		switch {
		case err == nil:
			if changed {
				patched++
			}
		case errors.Is(err, store.ErrNotFound):
			// List deleted since the scan; nothing left to patch.
		default:
			m.logger.Warn("cascade patch failed",
				"book_id", bookID,
				"reading_list_id", listID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("reading list %d: %w", listID, err))
		}
	}

	return patched, errors.Join(errs...)
}
