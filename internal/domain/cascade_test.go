package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTag(t *testing.T) {
	ctx := context.Background()
	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	article := func(id string, tags ...string) *Article {
		return &Article{
			Owned: Owned{ID: id, CreatedAt: past, UpdatedAt: past},
			Tags:  tags,
		}
	}

	t.Run("removes the tag only where present", func(t *testing.T) {
		a1 := article("art-1", "tag-9", "tag-3")
		a2 := article("art-2", "tag-9")
		a3 := article("art-3", "tag-3")

		changed, err := StripTag(ctx, []*Article{a1, a2, a3}, "tag-9")
		require.NoError(t, err)

		require.Len(t, changed, 2)
		assert.Equal(t, "art-1", changed[0].ID)
		assert.Equal(t, "art-2", changed[1].ID)
		assert.Equal(t, []string{"tag-3"}, a1.Tags)
		assert.Empty(t, a2.Tags)
		assert.True(t, a1.UpdatedAt.After(past))

		assert.Equal(t, []string{"tag-3"}, a3.Tags)
		assert.Equal(t, past, a3.UpdatedAt, "untouched article keeps its timestamp")
	})

	t.Run("no carriers", func(t *testing.T) {
		changed, err := StripTag(ctx, []*Article{article("art-1", "tag-1")}, "tag-9")
		require.NoError(t, err)
		assert.Empty(t, changed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		a := article("art-1", "tag-9")
		_, err := StripTag(cancelled, []*Article{a}, "tag-9")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"tag-9"}, a.Tags)
	})
}
