package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readinglists-server/internal/domain"
	"github.com/listenupapp/readinglists-server/internal/store"
)

var errPatchFailed = errors.New("transaction conflict")

// flakyLists fails every Mutate on one key and delegates the rest.
type flakyLists struct {
	readingLists
	failKey string
}

func (f flakyLists) Mutate(ctx context.Context, key string, fn func(*domain.ReadingList) (bool, error)) (*domain.ReadingList, error) {
	if key == f.failKey {
		return nil, errPatchFailed
	}
	return f.readingLists.Mutate(ctx, key, fn)
}

type cascadeFixture struct {
	store   *store.Store
	logs    *bytes.Buffer
	book    *domain.Book
	healthy *domain.ReadingList
	broken  *domain.ReadingList
	books   *BookService
	manager *RelationshipManager
}

// setupCascade stores one book held by two lists and wires a manager whose
// patches of the second list always fail.
func setupCascade(t *testing.T) *cascadeFixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.New("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	svc := New(s, logger)

	book, err := svc.Books.Create(ctx, BookRequest{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction"})
	require.NoError(t, err)

	empty := ""
	lists := make([]*domain.ReadingList, 2)
	for i := range lists {
		rl, err := svc.ReadingLists.Create(ctx, "alice", ReadingListRequest{Name: fmt.Sprintf("List %d", i), Description: &empty})
		require.NoError(t, err)
		lists[i], err = svc.Relations.AddBook(ctx, rl, book)
		require.NoError(t, err)
	}

	manager := &RelationshipManager{
		lists:  flakyLists{readingLists: s.ReadingLists, failKey: store.Key(lists[1].ID)},
		logger: logger,
	}

	return &cascadeFixture{
		store:   s,
		logs:    logs,
		book:    book,
		healthy: lists[0],
		broken:  lists[1],
		books:   NewBookService(s, manager, logger),
		manager: manager,
	}
}

func TestCascadeDeleteBook_ContinuesPastFailedPatch(t *testing.T) {
	f := setupCascade(t)
	ctx := context.Background()

	patched, err := f.manager.CascadeDeleteBook(ctx, f.book.ID)

	assert.Equal(t, 1, patched)
	require.Error(t, err)
	assert.ErrorIs(t, err, errPatchFailed)
	assert.Contains(t, err.Error(), fmt.Sprintf("reading list %d", f.broken.ID))

	healthy, err := f.store.ReadingLists.Get(ctx, store.Key(f.healthy.ID))
	require.NoError(t, err)
	assert.Empty(t, healthy.Books)

	assert.Contains(t, f.logs.String(), "cascade patch failed")
}

func TestBookService_DeleteSucceedsWhenCascadeFails(t *testing.T) {
	f := setupCascade(t)
	ctx := context.Background()

	patched, err := f.books.Delete(ctx, f.book)

	require.NoError(t, err)
	assert.Equal(t, 1, patched)

	_, err = f.store.Books.Get(ctx, store.Key(f.book.ID))
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The failed list keeps a dangling reference, which reads skip.
	broken, err := f.store.ReadingLists.Get(ctx, store.Key(f.broken.ID))
	require.NoError(t, err)
	assert.Equal(t, []int64{f.book.ID}, broken.Books)

	assert.Contains(t, f.logs.String(), "book deleted but cascade incomplete")
}
