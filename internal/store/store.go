// Package store provides the document store adapter: typed collections over a
// Badger key-value database holding one JSON document per entity.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/readinglists-server/internal/domain"
)

// sequenceBandwidth is how many IDs a badger.Sequence leases per disk write.
// Unused leased IDs are skipped after a crash, never handed out twice.
const sequenceBandwidth = 100

// Store wraps a Badger database instance and exposes one Entity per collection.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	mu        sync.Mutex
	sequences []*badger.Sequence

	Books        *Entity[domain.Book]
	ReadingLists *Entity[domain.ReadingList]
	Users        *Entity[domain.User]
}

// New opens (or creates) the database at path. An empty path opens an
// in-memory database, which is what tests use.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true       // Survive crashes without losing acknowledged writes
		opts.CompactL0OnClose = true // Faster startup
	}
	opts.Logger = nil // Badger's own logging is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.initEntities(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path, "in_memory", path == "")
	}

	return s, nil
}

// initEntities wires the typed collections.
func (s *Store) initEntities() error {
	bookSeq, err := s.Sequence(domain.BooksKind)
	if err != nil {
		return err
	}
	listSeq, err := s.Sequence(domain.ReadingListsKind)
	if err != nil {
		return err
	}

	s.Books = NewEntity[domain.Book](s, domain.BooksKind).
		WithSequence(bookSeq)

	s.ReadingLists = NewEntity[domain.ReadingList](s, domain.ReadingListsKind).
		WithSequence(listSeq).
		WithImmutable(domain.ReadingListFieldUser, domain.ReadingListFieldBooks)

	// Users are keyed by identity subject, so no sequence.
	s.Users = NewEntity[domain.User](s, domain.UsersKind)

	return nil
}

// Sequence returns a monotonic ID sequence stored under name.
// Sequences are released when the store closes.
func (s *Store) Sequence(name string) (*badger.Sequence, error) {
	seq, err := s.db.GetSequence([]byte("seq:"+name), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s sequence: %w", name, err)
	}

	s.mu.Lock()
	s.sequences = append(s.sequences, seq)
	s.mu.Unlock()

	return seq, nil
}

// Ping verifies the database can serve a read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("database is closed")
	}
	return s.db.View(func(_ *badger.Txn) error { return nil })
}

// Close releases sequences and closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}

	s.mu.Lock()
	for _, seq := range s.sequences {
		if err := seq.Release(); err != nil && s.logger != nil {
			s.logger.Warn("Failed to release sequence", "error", err)
		}
	}
	s.sequences = nil
	s.mu.Unlock()

	return s.db.Close()
}
