package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/store"
)

func TestAttachTag_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tag := createTestTag(t, s, "usr-1", "react")
	a := createTestArticle(t, s, "usr-1", "a1")

	got, changed, err := s.AttachTag(ctx, "usr-1", a.ID, tag.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{tag.ID}, got.Tags)
	firstUpdate := got.UpdatedAt

	got, changed, err = s.AttachTag(ctx, "usr-1", a.ID, tag.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{tag.ID}, got.Tags)

	stored, err := s.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, firstUpdate.Equal(stored.UpdatedAt), "second attach must not advance updated_at")
}

func TestAttachTag_MissingOrForeign(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mine := createTestTag(t, s, "usr-1", "react")
	theirs := createTestTag(t, s, "usr-2", "react")
	a := createTestArticle(t, s, "usr-1", "a1")
	foreignArticle := createTestArticle(t, s, "usr-2", "b1")

	_, _, err := s.AttachTag(ctx, "usr-1", a.ID, "tag-missing")
	require.ErrorIs(t, err, store.ErrTagNotFound)

	_, _, err = s.AttachTag(ctx, "usr-1", "art-missing", mine.ID)
	require.ErrorIs(t, err, store.ErrArticleNotFound)

	_, _, err = s.AttachTag(ctx, "usr-1", a.ID, theirs.ID)
	require.ErrorIs(t, err, store.ErrTagNotOwned)

	_, _, err = s.AttachTag(ctx, "usr-1", foreignArticle.ID, mine.ID)
	require.ErrorIs(t, err, store.ErrArticleNotOwned)
}

func TestDetachTag_StaleIDIsNoop(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	a := createTestArticle(t, s, "usr-1", "a1")

	got, changed, err := s.DetachTag(ctx, "usr-1", a.ID, "tag-never-existed")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, got.Tags)
}

func TestDetachThenAttach_RoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	react := createTestTag(t, s, "usr-1", "react")
	design := createTestTag(t, s, "usr-1", "design")
	a1 := createTestArticle(t, s, "usr-1", "a1", react.ID, design.ID)
	a2 := createTestArticle(t, s, "usr-1", "a2", react.ID)

	_, changed, err := s.DetachTag(ctx, "usr-1", a1.ID, react.ID)
	require.NoError(t, err)
	require.True(t, changed)

	// The tag is intact and still on the other article.
	_, err = s.GetTag(ctx, react.ID)
	require.NoError(t, err)
	other, err := s.GetArticle(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{react.ID}, other.Tags)

	_, changed, err = s.AttachTag(ctx, "usr-1", a1.ID, react.ID)
	require.NoError(t, err)
	require.True(t, changed)

	got, err := s.GetArticle(ctx, a1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{react.ID, design.ID}, got.Tags)
}

func TestDeleteTag_CascadesToEveryArticle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	react := createTestTag(t, s, "usr-1", "react")
	design := createTestTag(t, s, "usr-1", "design")
	a1 := createTestArticle(t, s, "usr-1", "a1", react.ID, design.ID)
	a2 := createTestArticle(t, s, "usr-1", "a2", react.ID)
	a3 := createTestArticle(t, s, "usr-1", "a3", design.ID)

	stripped, err := s.DeleteTag(ctx, "usr-1", react.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a1.ID, a2.ID}, stripped)

	_, err = s.GetTag(ctx, react.ID)
	require.ErrorIs(t, err, store.ErrTagNotFound)

	got1, err := s.GetArticle(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{design.ID}, got1.Tags)

	got2, err := s.GetArticle(ctx, a2.ID)
	require.NoError(t, err)
	assert.Empty(t, got2.Tags)

	got3, err := s.GetArticle(ctx, a3.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{design.ID}, got3.Tags)

	// Name index is released.
	createTestTag(t, s, "usr-1", "React")
}

func TestDeleteTag_MissingOrForeign(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	theirs := createTestTag(t, s, "usr-2", "react")
	b := createTestArticle(t, s, "usr-2", "b1", theirs.ID)

	_, err := s.DeleteTag(ctx, "usr-1", "tag-missing")
	require.ErrorIs(t, err, store.ErrTagNotFound)

	_, err = s.DeleteTag(ctx, "usr-1", theirs.ID)
	require.ErrorIs(t, err, store.ErrNotOwner)

	// Nothing changed for the owner.
	got, err := s.GetArticle(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{theirs.ID}, got.Tags)
}

func TestDeleteTag_ConcurrentAttachNeverDangles(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for round := range 5 {
		tag := createTestTag(t, s, "usr-1", fmt.Sprintf("racy-%d", round))
		var articleIDs []string
		for i := range 10 {
			a := createTestArticle(t, s, "usr-1", fmt.Sprintf("r%d-a%d", round, i))
			articleIDs = append(articleIDs, a.ID)
		}

		var wg sync.WaitGroup
		for _, articleID := range articleIDs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Attach may lose the race; any error is acceptable here.
				_, _, _ = s.AttachTag(ctx, "usr-1", articleID, tag.ID)
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := s.DeleteTag(ctx, "usr-1", tag.ID)
				if !errors.Is(err, store.ErrConflict) {
					return
				}
			}
		}()
		wg.Wait()

		_, err := s.GetTag(ctx, tag.ID)
		tagExists := err == nil
		for _, articleID := range articleIDs {
			a, err := s.GetArticle(ctx, articleID)
			require.NoError(t, err)
			if a.HasTag(tag.ID) {
				assert.True(t, tagExists, "article %s references deleted tag %s", articleID, tag.ID)
			}
		}
	}
}
