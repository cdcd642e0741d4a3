package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides typed CRUD and paginated queries over one collection.
// Every entity is stored as a JSON Document under "<kind>:<key>".
type Entity[T any] struct {
	store     *Store
	kind      string
	prefix    string
	seq       *badger.Sequence
	immutable map[string]bool
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, kind string) *Entity[T] {
	return &Entity[T]{
		store:     s,
		kind:      kind,
		prefix:    kind + ":",
		immutable: make(map[string]bool),
	}
}

// WithSequence enables store-assigned numeric IDs for Create.
func (e *Entity[T]) WithSequence(seq *badger.Sequence) *Entity[T] {
	e.seq = seq
	return e
}

// WithImmutable marks fields that Update never overwrites.
// Typed writes (Put, Mutate) may still change them.
func (e *Entity[T]) WithImmutable(fields ...string) *Entity[T] {
	for _, f := range fields {
		e.immutable[f] = true
	}
	return e
}

// Kind returns the collection name.
func (e *Entity[T]) Kind() string {
	return e.kind
}

// Create stores a new document and returns it as a typed record.
// The ID comes from the collection's sequence and is stamped onto the document's
// own "id" field before the single write, so no follow-up write is needed.
func (e *Entity[T]) Create(ctx context.Context, fields Document) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.seq == nil {
		return nil, fmt.Errorf("create %s: %w", e.kind, ErrNoSequence)
	}

	n, err := e.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate %s id: %w", e.kind, err)
	}
	// Sequences start at zero; IDs start at one.
	id := int64(n) + 1

	doc := fields.Clone()
	stampID(doc, id)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}

	key := []byte(e.prefix + Key(id))
	err = e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}

	if e.store.logger != nil {
		e.store.logger.LogAttrs(ctx, slog.LevelDebug, "entity created",
			slog.String("kind", e.kind),
			slog.Int64("id", id),
		)
	}

	return decodeTyped[T](data)
}

// Insert stores a document under a caller-chosen key if none exists yet.
// It is an idempotent upsert: an existing document is left untouched and
// created is false.
func (e *Entity[T]) Insert(ctx context.Context, key string, fields Document) (created bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	doc := fields.Clone()
	stampID(doc, key)

	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to marshal entity: %w", err)
	}

	k := []byte(e.prefix + key)
	err = e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		created = true
		return txn.Set(k, data)
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

// Get retrieves an entity by key.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, key string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(e.prefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			entity, err = decodeTyped[T](val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// Put replaces an existing entity with the typed record.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Put(ctx context.Context, key string, entity *T) error {
	_, err := e.Mutate(ctx, key, func(current *T) (bool, error) {
		*current = *entity
		return true, nil
	})
	return err
}

// Update overwrites document fields and returns the updated record.
//
// When partial is true only fields already present on the stored document are
// written; unknown keys are dropped silently. When partial is false every
// provided field is written. The "id" field and fields marked immutable are
// never written by Update.
func (e *Entity[T]) Update(ctx context.Context, key string, fields Document, partial bool) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := []byte(e.prefix + key)
	var data []byte

	err := e.store.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get existing key: %w", err)
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read entity: %w", err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return err
		}

		for field, value := range fields {
			if field == IDField || e.immutable[field] {
				continue
			}
			if _, present := doc[field]; partial && !present {
				continue
			}
			doc[field] = value
		}

		data, err = json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal entity: %w", err)
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return nil, err
	}

	return decodeTyped[T](data)
}

// Mutate performs an atomic read-modify-write of one entity.
// fn reports whether it changed the record; unchanged records are not written.
// Returns the record as stored after the call.
func (e *Entity[T]) Mutate(ctx context.Context, key string, fn func(*T) (bool, error)) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := []byte(e.prefix + key)
	var entity *T

	err := e.store.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get existing key: %w", err)
		}

		err = item.Value(func(val []byte) error {
			entity, err = decodeTyped[T](val)
			return err
		})
		if err != nil {
			return err
		}

		changed, err := fn(entity)
		if err != nil || !changed {
			return err
		}

		data, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("failed to marshal entity: %w", err)
		}
		return txn.Set(k, data)
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// Delete deletes an entity by key.
// This operation is idempotent - it does not return an error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(e.prefix + key)); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		return nil
	})
}

// List returns an iterator over all entities in native key order.
// Do not write to the same collection from inside the loop.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		err := e.store.db.View(func(txn *badger.Txn) error {
			prefix := []byte(e.prefix)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}

				var entity *T
				err := it.Item().Value(func(val []byte) error {
					var err error
					entity, err = decodeTyped[T](val)
					return err
				})
				if err != nil {
					return err
				}

				if !yield(entity, nil) {
					return errStopIteration
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopIteration) {
			yield(nil, err)
		}
	}
}

// QueryPage returns one page of entities matching the query's filter.
//
// Total is computed by scanning the whole collection on every call, and the
// offset is applied by skipping matches. Both are linear in collection size.
func (e *Entity[T]) QueryPage(ctx context.Context, q Query[T]) (*Page[T], error) {
	q.Validate()

	page := &Page[T]{Items: make([]*T, 0, q.Limit)}
	end := q.NextOffset()

	for entity, err := range e.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", e.kind, err)
		}
		if q.Filter != nil && !q.Filter(entity) {
			continue
		}

		if page.Total >= q.Offset && page.Total < end {
			page.Items = append(page.Items, entity)
		}
		page.Total++
	}

	page.HasMore = page.Total > end
	return page, nil
}

// errStopIteration ends a List scan when the consumer breaks out early.
var errStopIteration = errors.New("stop iteration")

// decodeTyped converts stored bytes into the collection's record type.
func decodeTyped[T any](data []byte) (*T, error) {
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}
