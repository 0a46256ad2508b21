package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/store"
)

func TestCreateArticle_RejectsDanglingTag(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	theirs := createTestTag(t, s, "usr-2", "react")

	a := &domain.Article{
		Owned:  domain.Owned{ID: "art-1", UserID: "usr-1"},
		Title:  "Dangling",
		Status: domain.StatusInbox,
		Tags:   []string{"tag-missing"},
	}
	require.ErrorIs(t, s.CreateArticle(ctx, a), store.ErrDanglingTag)

	a.Tags = []string{theirs.ID}
	require.ErrorIs(t, s.CreateArticle(ctx, a), store.ErrDanglingTag)

	_, err := s.GetArticle(ctx, "art-1")
	require.ErrorIs(t, err, store.ErrArticleNotFound)
}

func TestCreateArticle_DeduplicatesTags(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	tag := createTestTag(t, s, "usr-1", "react")
	a := createTestArticle(t, s, "usr-1", "a1", tag.ID, tag.ID)

	got, err := s.GetArticle(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, got.Tags)
}

func TestListArticlesWithTags_NewestFirstAndScoped(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tag := createTestTag(t, s, "usr-1", "go")
	createTestTag(t, s, "usr-2", "rust")
	older := createTestArticle(t, s, "usr-1", "older", tag.ID)
	time.Sleep(2 * time.Millisecond)
	newer := createTestArticle(t, s, "usr-1", "newer")
	createTestArticle(t, s, "usr-2", "someone-else")

	snap, err := s.ListArticlesWithTags(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, snap.Articles, 2)
	assert.Equal(t, newer.ID, snap.Articles[0].ID)
	assert.Equal(t, older.ID, snap.Articles[1].ID)
	require.Len(t, snap.Tags, 1)
	assert.Equal(t, tag.ID, snap.Tags[0].ID)
}

func TestLoadArticlesWithTags(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doomed := createTestTag(t, s, "usr-1", "doomed")
	kept := createTestTag(t, s, "usr-1", "kept")
	a1 := createTestArticle(t, s, "usr-1", "a1", doomed.ID, kept.ID)
	a2 := createTestArticle(t, s, "usr-1", "a2")
	theirs := createTestArticle(t, s, "usr-2", "theirs")

	snap, err := s.LoadArticlesWithTags(ctx, "usr-1", a2.ID, "art-missing", theirs.ID, a1.ID)
	require.NoError(t, err)
	require.Len(t, snap.Articles, 2, "missing and foreign ids are skipped")
	assert.Equal(t, a2.ID, snap.Articles[0].ID)
	assert.Equal(t, a1.ID, snap.Articles[1].ID)
	assert.Len(t, snap.Tags, 2)

	_, err = s.DeleteTag(ctx, "usr-1", doomed.ID)
	require.NoError(t, err)

	snap, err = s.LoadArticlesWithTags(ctx, "usr-1", a1.ID)
	require.NoError(t, err)
	require.Len(t, snap.Articles, 1)
	assert.Equal(t, []string{kept.ID}, snap.Articles[0].Tags)
	require.Len(t, snap.Tags, 1)
	assert.Equal(t, kept.ID, snap.Tags[0].ID)
}

func TestListAllArticles_SpansUsers(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a1 := createTestArticle(t, s, "usr-1", "mine")
	a2 := createTestArticle(t, s, "usr-2", "theirs")

	articles, err := s.ListAllArticles(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	assert.ElementsMatch(t, []string{a1.ID, a2.ID}, ids)
}

func TestMutateArticle_UnchangedSkipsWrite(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	a := createTestArticle(t, s, "usr-1", "a1")

	got, changed, err := s.MutateArticle(ctx, "usr-1", a.ID, func(a *domain.Article) (bool, error) {
		return a.SetFavorite(true), nil
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, got.IsFavorite)

	_, changed, err = s.MutateArticle(ctx, "usr-1", a.ID, func(a *domain.Article) (bool, error) {
		return a.SetFavorite(true), nil
	})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMutateArticle_RejectsDanglingTagAndForeignOwner(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	a := createTestArticle(t, s, "usr-1", "a1")

	_, _, err := s.MutateArticle(ctx, "usr-1", a.ID, func(a *domain.Article) (bool, error) {
		return a.AddTag("tag-missing"), nil
	})
	require.ErrorIs(t, err, store.ErrDanglingTag)

	_, _, err = s.MutateArticle(ctx, "usr-2", a.ID, func(a *domain.Article) (bool, error) {
		return a.SetFavorite(true), nil
	})
	require.ErrorIs(t, err, store.ErrNotOwner)
}

func TestDeleteArticle_CascadesHighlightsNotTags(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tag := createTestTag(t, s, "usr-1", "react")
	a := createTestArticle(t, s, "usr-1", "a1", tag.ID)
	h := createTestHighlight(t, s, a, 0, 4)

	deleted, err := s.DeleteArticle(ctx, "usr-1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{h.ID}, deleted)

	_, err = s.GetArticle(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrArticleNotFound)
	_, err = s.GetHighlight(ctx, h.ID)
	require.ErrorIs(t, err, store.ErrHighlightNotFound)

	_, err = s.GetTag(ctx, tag.ID)
	require.NoError(t, err, "article deletion must not delete tags")

	_, err = s.DeleteArticle(ctx, "usr-1", a.ID)
	require.ErrorIs(t, err, store.ErrArticleNotFound)
}

type recordingIndexer struct {
	indexed []string
	deleted []string
}

func (r *recordingIndexer) IndexArticle(_ context.Context, a *domain.Article) error {
	r.indexed = append(r.indexed, a.ID)
	return nil
}

func (r *recordingIndexer) DeleteArticle(_ context.Context, articleID string) error {
	r.deleted = append(r.deleted, articleID)
	return nil
}

func TestSearchIndexer_FollowsCommittedWrites(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	idx := &recordingIndexer{}
	s.SetSearchIndexer(idx)

	a := createTestArticle(t, s, "usr-1", "a1")
	_, _, err := s.MutateArticle(ctx, "usr-1", a.ID, func(a *domain.Article) (bool, error) {
		return a.SetStatus(domain.StatusDaily), nil
	})
	require.NoError(t, err)
	_, err = s.DeleteArticle(ctx, "usr-1", a.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID, a.ID}, idx.indexed)
	assert.Equal(t, []string{a.ID}, idx.deleted)
}
