package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/curatorapp/curator-server/internal/domain"
)

// Entity provides generic CRUD for simple records whose only relations are
// secondary indexes. Users and stacks are stored this way; tags and articles
// need multi-record transactions and are handled by hand.
type Entity[T any] struct {
	store    *Store
	prefix   string
	notFound error
	indexes  []Index[T]
}

// Index defines a secondary index on an entity.
//
// A unique index stores one id per value and rejects duplicates with the
// entity's conflict error. A non-unique index appends ":"+id to the value so
// many records can share it and ListByIndex can scan them.
type Index[T any] struct {
	name            string
	unique          bool
	conflict        error
	keyGen          func(*T) []string
	lookupTransform func(string) string // Optional transformation for lookups
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string, notFound error) *Entity[T] {
	return &Entity[T]{
		store:    s,
		prefix:   prefix,
		notFound: notFound,
	}
}

// WithUniqueIndex adds a unique secondary index. lookupTransform is applied to
// values passed to GetByIndex and may be nil.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) []string, lookupTransform func(string) string, conflict error) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		unique:          true,
		conflict:        conflict,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

// WithIndex adds a non-unique secondary index.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) key(id string) string { return e.prefix + id }

func (e *Entity[T]) indexKey(idx Index[T], value, id string) string {
	k := e.prefix + "idx:" + idx.name + ":" + value
	if !idx.unique {
		k += ":" + id
	}
	return k
}

// Create stores a new entity. Returns ErrAlreadyExists if the id is taken and
// the index's conflict error if a unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		found, err := exists(txn, e.key(id))
		if err != nil {
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		if found {
			return ErrAlreadyExists
		}
		if err := e.checkUnique(txn, entity, nil); err != nil {
			return err
		}
		return e.write(txn, id, entity)
	})
}

// Get retrieves an entity by ID.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	var entity T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, e.key(id), &entity, e.notFound)
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByIndex retrieves an entity by a unique secondary index.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	idx, ok := e.index(indexName)
	if !ok || !idx.unique {
		return nil, fmt.Errorf("no unique index %q on %s", indexName, e.prefix)
	}
	if idx.lookupTransform != nil {
		value = idx.lookupTransform(value)
	}

	var entity T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(e.indexKey(idx, value, "")))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return e.notFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, e.key(string(id)), &entity, e.notFound)
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListByIndex returns every entity whose non-unique index matches value.
func (e *Entity[T]) ListByIndex(ctx context.Context, indexName, value string) ([]*T, error) {
	idx, ok := e.index(indexName)
	if !ok || idx.unique {
		return nil, fmt.Errorf("no non-unique index %q on %s", indexName, e.prefix)
	}

	prefix := e.prefix + "idx:" + idx.name + ":" + value + ":"
	var out []*T
	err := e.store.view(ctx, func(txn *badger.Txn) error {
		return scanKeys(txn, prefix, func(id string) error {
			var entity T
			if err := getJSON(txn, e.key(id), &entity, e.notFound); err != nil {
				return err
			}
			out = append(out, &entity)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces an existing entity, moving its index entries.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		var old T
		if err := getJSON(txn, e.key(id), &old, e.notFound); err != nil {
			return err
		}
		if err := e.checkUnique(txn, entity, &old); err != nil {
			return err
		}
		if err := e.deleteIndexes(txn, id, &old); err != nil {
			return err
		}
		return e.write(txn, id, entity)
	})
}

// Delete removes an entity and its index entries. Deleting a missing entity
// returns the not-found error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		var old T
		if err := getJSON(txn, e.key(id), &old, e.notFound); err != nil {
			return err
		}
		if err := e.deleteIndexes(txn, id, &old); err != nil {
			return err
		}
		return txn.Delete([]byte(e.key(id)))
	})
}

func (e *Entity[T]) index(name string) (Index[T], bool) {
	for _, idx := range e.indexes {
		if idx.name == name {
			return idx, true
		}
	}
	return Index[T]{}, false
}

// checkUnique rejects unique index values already held by another record.
// Values also held by old (the record being replaced) are allowed.
func (e *Entity[T]) checkUnique(txn *badger.Txn, entity, old *T) error {
	for _, idx := range e.indexes {
		if !idx.unique {
			continue
		}
		var oldValues []string
		if old != nil {
			oldValues = idx.keyGen(old)
		}
		for _, v := range idx.keyGen(entity) {
			if slices.Contains(oldValues, v) {
				continue
			}
			found, err := exists(txn, e.indexKey(idx, v, ""))
			if err != nil {
				return fmt.Errorf("failed to check index key: %w", err)
			}
			if found {
				conflict := idx.conflict
				if conflict == nil {
					conflict = ErrAlreadyExists
				}
				return fmt.Errorf("index %s conflict on %s: %w", idx.name, v, conflict)
			}
		}
	}
	return nil
}

func (e *Entity[T]) write(txn *badger.Txn, id string, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if err := txn.Set([]byte(e.key(id)), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	for _, idx := range e.indexes {
		for _, v := range idx.keyGen(entity) {
			if err := txn.Set([]byte(e.indexKey(idx, v, id)), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) deleteIndexes(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, v := range idx.keyGen(entity) {
			if err := deleteKey(txn, e.indexKey(idx, v, id)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}

// sortByKey stably orders items by the string key returns.
func sortByKey[T any](items []*T, key func(*T) string) {
	slices.SortStableFunc(items, func(a, b *T) int {
		return strings.Compare(key(a), key(b))
	})
}

// initUsers configures the Users entity with a case-insensitive email index.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:", ErrUserNotFound).
		WithUniqueIndex("email",
			func(u *domain.User) []string {
				return []string{domain.NormalizeEmail(u.Email)}
			},
			domain.NormalizeEmail,
			ErrEmailTaken,
		)
}

// initStacks configures the Stacks entity with an owner index.
func (s *Store) initStacks() {
	s.Stacks = NewEntity[domain.Stack](s, "stack:", ErrStackNotFound).
		WithIndex("owner", func(st *domain.Stack) []string {
			return []string{st.UserID}
		})
}

// ListStacksByUser returns a user's stacks ordered by name.
func (s *Store) ListStacksByUser(ctx context.Context, userID string) ([]*domain.Stack, error) {
	stacks, err := s.Stacks.ListByIndex(ctx, "owner", userID)
	if err != nil {
		return nil, err
	}
	sortByKey(stacks, func(st *domain.Stack) string { return strings.ToLower(st.Name) })
	return stacks, nil
}
