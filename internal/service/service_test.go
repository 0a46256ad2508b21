package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/auth"
	"github.com/curatorapp/curator-server/internal/keylock"
	"github.com/curatorapp/curator-server/internal/search"
	"github.com/curatorapp/curator-server/internal/sse"
	"github.com/curatorapp/curator-server/internal/store"
	"github.com/curatorapp/curator-server/internal/validation"
)

var ctx = context.Background()

// recordingEmitter keeps every emitted event for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) ofType(t sse.EventType) []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sse.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testServices struct {
	store      *store.Store
	index      *search.SearchIndex
	events     *recordingEmitter
	locks      *keylock.Locker
	tags       *TagService
	articles   *ArticleService
	highlights *HighlightService
	stacks     *StackService
	bulk       *BulkService
	auth       *AuthService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "curator-service-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)

	index, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	s.SetSearchIndexer(index)

	t.Cleanup(func() {
		_ = index.Close()
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	locks := keylock.New()
	v := validation.New()
	events := &recordingEmitter{}

	tags := NewTagService(s, locks, events, logger)
	articles := NewArticleService(s, tags, locks, index, v, events, logger)

	return &testServices{
		store:      s,
		index:      index,
		events:     events,
		locks:      locks,
		tags:       tags,
		articles:   articles,
		highlights: NewHighlightService(s, v, events, logger),
		stacks:     NewStackService(s, articles, v, logger),
		bulk:       NewBulkService(s, tags, events, 4, logger),
		auth:       NewAuthService(s, tokens, v, logger),
	}
}

func (ts *testServices) createTag(t *testing.T, userID, name string) string {
	t.Helper()
	tag, err := ts.tags.CreateTag(ctx, userID, name, "")
	require.NoError(t, err)
	return tag.ID
}

func (ts *testServices) createArticle(t *testing.T, userID, title string, tagIDs ...string) string {
	t.Helper()
	view, err := ts.articles.CreateArticle(ctx, userID, CreateArticleInput{
		URL:    "https://example.com/" + title,
		Title:  title,
		TagIDs: tagIDs,
	})
	require.NoError(t, err)
	return view.ID
}
