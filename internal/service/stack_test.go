package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/errors"
)

func TestCreateStack_RejectsUnknownFilters(t *testing.T) {
	ts := setupServices(t)

	_, err := ts.stacks.CreateStack(ctx, "usr-1", CreateStackInput{
		Name:    "Weekend",
		Filters: map[string]string{"mood": "calm"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = ts.stacks.CreateStack(ctx, "usr-1", CreateStackInput{
		Name:    "Tagged",
		Filters: map[string]string{"tag": "tag-missing"},
	})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = ts.stacks.CreateStack(ctx, "usr-1", CreateStackInput{Name: "  "})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestStackArticles_CombinesQueryAndFilters(t *testing.T) {
	ts := setupServices(t)
	goTag := ts.createTag(t, "usr-1", "go")

	for _, in := range []CreateArticleInput{
		{URL: "https://example.com/1", Title: "Go channels explained", TagIDs: []string{goTag}, IsFavorite: true},
		{URL: "https://example.com/2", Title: "Go generics", TagIDs: []string{goTag}},
		{URL: "https://example.com/3", Title: "Channels in Kotlin", IsFavorite: true},
	} {
		_, err := ts.articles.CreateArticle(ctx, "usr-1", in)
		require.NoError(t, err)
	}

	stack, err := ts.stacks.CreateStack(ctx, "usr-1", CreateStackInput{
		Name:    "Favorite Go channels",
		Query:   "channels",
		Filters: map[string]string{"tag": goTag, "favorite": "true"},
	})
	require.NoError(t, err)

	views, err := ts.stacks.StackArticles(ctx, "usr-1", stack.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Go channels explained", views[0].Title)

	_, err = ts.stacks.StackArticles(ctx, "usr-2", stack.ID)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestStacks_ListAndDelete(t *testing.T) {
	ts := setupServices(t)

	for _, name := range []string{"beta", "Alpha"} {
		_, err := ts.stacks.CreateStack(ctx, "usr-1", CreateStackInput{Name: name})
		require.NoError(t, err)
	}

	stacks, err := ts.stacks.ListStacks(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, stacks, 2)
	assert.Equal(t, "Alpha", stacks[0].Name)

	require.NoError(t, ts.stacks.DeleteStack(ctx, "usr-1", stacks[0].ID))
	err = ts.stacks.DeleteStack(ctx, "usr-1", stacks[0].ID)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))

	empty, err := ts.stacks.ListStacks(ctx, "usr-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
