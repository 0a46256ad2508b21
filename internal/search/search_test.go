package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/domain"
)

func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	index, err := NewSearchIndex(Options{InMemory: true})
	require.NoError(t, err)

	return index, func() { _ = index.Close() }
}

func testArticle(id, userID, title, content string) *domain.Article {
	return &domain.Article{
		Owned:   domain.Owned{ID: id, UserID: userID, CreatedAt: time.Now()},
		URL:     "https://example.com/" + id,
		Title:   title,
		Content: content,
		Status:  domain.StatusInbox,
	}
}

func TestNewSearchIndex_OnDisk(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	index, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	require.NoError(t, index.Close())

	// Reopening finds the version file and keeps the index.
	index, err = NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	require.NoError(t, index.Close())
}

func TestMatchArticles_ScopedToUser(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, index.IndexArticle(ctx, testArticle("art-1", "usr-1", "Understanding Kubernetes", "pods and nodes")))
	require.NoError(t, index.IndexArticle(ctx, testArticle("art-2", "usr-1", "Baking bread", "flour water salt")))
	require.NoError(t, index.IndexArticle(ctx, testArticle("art-3", "usr-2", "Kubernetes at scale", "")))

	ids, err := index.MatchArticles(ctx, "usr-1", "kubernetes")
	require.NoError(t, err)
	assert.Equal(t, []string{"art-1"}, ids)

	ids, err = index.MatchArticles(ctx, "usr-1", "flour")
	require.NoError(t, err)
	assert.Equal(t, []string{"art-2"}, ids)

	ids, err = index.MatchArticles(ctx, "usr-1", "kubernetes flour")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMatchArticles_EmptyQuery(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ids, err := index.MatchArticles(context.Background(), "usr-1", "   ")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestDeleteArticle_RemovesFromResults(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, index.IndexArticle(ctx, testArticle("art-1", "usr-1", "Go generics", "")))
	require.NoError(t, index.DeleteArticle(ctx, "art-1"))

	ids, err := index.MatchArticles(ctx, "usr-1", "generics")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReindexAndRebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	ctx := context.Background()

	articles := []*domain.Article{
		testArticle("art-1", "usr-1", "One", ""),
		testArticle("art-2", "usr-1", "Two", ""),
		testArticle("art-3", "usr-1", "Three", ""),
	}
	require.NoError(t, index.Reindex(ctx, articles))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	require.NoError(t, index.Rebuild())
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
