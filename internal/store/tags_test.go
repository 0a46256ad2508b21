package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/store"
)

func TestCreateTag_NameUniquePerUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestTag(t, s, "usr-1", "React")

	dup := createTestTagErr(s, "usr-1", "  react ")
	require.ErrorIs(t, dup, store.ErrTagNameTaken)

	// Another user may use the same name.
	other := createTestTag(t, s, "usr-2", "react")
	assert.Equal(t, "usr-2", other.UserID)

	tags, err := s.ListTagsByUser(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "React", tags[0].Name)
}

func TestGetTagByName_Normalized(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tag := createTestTag(t, s, "usr-1", "Machine Learning")

	got, err := s.GetTagByName(ctx, "usr-1", "  machine   LEARNING")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, got.ID)

	_, err = s.GetTagByName(ctx, "usr-2", "machine learning")
	require.ErrorIs(t, err, store.ErrTagNotFound)
}

func TestUpdateTag_RenameMovesNameIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tag := createTestTag(t, s, "usr-1", "golang")
	createTestTag(t, s, "usr-1", "rust")

	tag.Name = "Go"
	require.NoError(t, s.UpdateTag(ctx, tag))

	_, err := s.GetTagByName(ctx, "usr-1", "golang")
	require.ErrorIs(t, err, store.ErrTagNotFound)
	got, err := s.GetTagByName(ctx, "usr-1", "go")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, got.ID)

	// The old name is free again.
	createTestTag(t, s, "usr-1", "golang")

	tag.Name = "RUST"
	require.ErrorIs(t, s.UpdateTag(ctx, tag), store.ErrTagNameTaken)
}

func TestUpdateTag_RecolorKeepsName(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tag := createTestTag(t, s, "usr-1", "design")
	tag.Color = "#ff00aa"
	require.NoError(t, s.UpdateTag(ctx, tag))

	got, err := s.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ff00aa", got.Color)
}

func TestCountTagUsage(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	react := createTestTag(t, s, "usr-1", "react")
	design := createTestTag(t, s, "usr-1", "design")
	createTestArticle(t, s, "usr-1", "a1", react.ID, design.ID)
	createTestArticle(t, s, "usr-1", "a2", react.ID)
	createTestArticle(t, s, "usr-1", "a3")

	counts, err := s.CountTagUsage(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[react.ID])
	assert.Equal(t, 1, counts[design.ID])
}
