package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/id"
	"github.com/curatorapp/curator-server/internal/store"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "store-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func createTestTag(t *testing.T, s *store.Store, userID, name string) *domain.Tag {
	t.Helper()

	tag := &domain.Tag{
		Owned: domain.Owned{ID: id.MustGenerate(id.PrefixTag), UserID: userID},
		Name:  name,
	}
	tag.InitTimestamps()
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return tag
}

func createTestTagErr(s *store.Store, userID, name string) error {
	tag := &domain.Tag{
		Owned: domain.Owned{ID: id.MustGenerate(id.PrefixTag), UserID: userID},
		Name:  name,
	}
	tag.InitTimestamps()
	return s.CreateTag(context.Background(), tag)
}

func createTestArticle(t *testing.T, s *store.Store, userID, title string, tagIDs ...string) *domain.Article {
	t.Helper()

	a := &domain.Article{
		Owned:  domain.Owned{ID: id.MustGenerate(id.PrefixArticle), UserID: userID},
		URL:    "https://example.com/" + title,
		Title:  title,
		Status: domain.StatusInbox,
		Tags:   tagIDs,
	}
	a.InitTimestamps()
	// Back-date so a later Touch is observable.
	a.UpdatedAt = a.UpdatedAt.Add(-time.Minute)
	require.NoError(t, s.CreateArticle(context.Background(), a))
	return a
}

func TestStore_Ping(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, s.Ping(context.Background()))
}
