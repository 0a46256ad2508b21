package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/curatorapp/curator-server/internal/domain"
)

// maxTxnAttempts bounds optimistic retries of a read-write transaction that lost
// a badger conflict.
const maxTxnAttempts = 3

// SearchIndexer keeps the article search index in sync with committed writes.
// Index failures are logged and never fail the write that triggered them.
type SearchIndexer interface {
	IndexArticle(ctx context.Context, article *domain.Article) error
	DeleteArticle(ctx context.Context, articleID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexArticle is a no-op.
func (NoopSearchIndexer) IndexArticle(context.Context, *domain.Article) error { return nil }

// DeleteArticle is a no-op.
func (NoopSearchIndexer) DeleteArticle(context.Context, string) error { return nil }

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Set via SetSearchIndexer after creation; the index is built on top of the store.
	searchIndexer SearchIndexer

	Users  *Entity[domain.User]
	Stacks *Entity[domain.Stack]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		db:            db,
		logger:        logger,
		searchIndexer: NoopSearchIndexer{},
	}
	s.initUsers()
	s.initStacks()

	logger.Info("badger database opened", "path", path)
	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing database connection")
	return s.db.Close()
}

// Ping verifies the database is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("database is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// SetSearchIndexer installs the article search indexer.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	if indexer == nil {
		indexer = NoopSearchIndexer{}
	}
	s.searchIndexer = indexer
}

// update runs fn in a read-write transaction, retrying when badger reports a
// conflict with a concurrently committed transaction. fn must be safe to run
// more than once. After maxTxnAttempts conflicts ErrConflict is returned.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("transaction conflict, retrying", "attempt", attempt)
	}
	return ErrConflict.WithCause(err)
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// getJSON loads key into dest. Returns notFound when the key is absent.
func getJSON(txn *badger.Txn, key string, dest any, notFound error) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// setJSON marshals value under key.
func setJSON(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set([]byte(key), data)
}

// exists reports whether key is present.
func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// deleteKey removes key, ignoring absence.
func deleteKey(txn *badger.Txn, key string) error {
	if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return nil
}

// scanKeys calls fn with the suffix of every key under prefix. Values are not
// fetched. Suffixes are copied and safe to keep.
func scanKeys(txn *badger.Txn, prefix string, fn func(suffix string) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		key := string(it.Item().KeyCopy(nil))
		if err := fn(key[len(prefix):]); err != nil {
			return err
		}
	}
	return nil
}

// indexArticle pushes a committed article to the search index.
func (s *Store) indexArticle(ctx context.Context, a *domain.Article) {
	if err := s.searchIndexer.IndexArticle(ctx, a); err != nil {
		s.logger.Warn("failed to index article", "article_id", a.ID, "error", err)
	}
}

// unindexArticle removes a deleted article from the search index.
func (s *Store) unindexArticle(ctx context.Context, articleID string) {
	if err := s.searchIndexer.DeleteArticle(ctx, articleID); err != nil {
		s.logger.Warn("failed to remove article from index", "article_id", articleID, "error", err)
	}
}
