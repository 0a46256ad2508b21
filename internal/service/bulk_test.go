package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/keylock"
	"github.com/curatorapp/curator-server/internal/sse"
)

func TestBulkTag_DuplicateNamesCreateOneTag(t *testing.T) {
	ts := setupServices(t)
	a1 := ts.createArticle(t, "usr-1", "a1")
	a2 := ts.createArticle(t, "usr-1", "a2")

	result, err := ts.bulk.BulkTag(ctx, "usr-1", []string{a1, a2}, []string{"design", "design"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.TagIDs, 1)

	tags, err := ts.tags.ListTags(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "design", tags[0].Name)
	assert.Equal(t, 2, tags[0].ArticleCount)

	for _, articleID := range []string{a1, a2} {
		got, err := ts.articles.GetArticle(ctx, "usr-1", articleID)
		require.NoError(t, err)
		assert.Equal(t, result.TagIDs, got.Tags)
	}
}

func TestBulkTag_TagDeletedWhileResolvingIsRecreated(t *testing.T) {
	ts := setupServices(t)
	a1 := ts.createArticle(t, "usr-1", "a1")
	stale := ts.createTag(t, "usr-1", "design")

	// Holding the tag's lock parks the bulk call between resolving the name
	// and locking the tag it resolved to.
	release := ts.locks.Lock(keylock.TagKey(stale))

	type outcome struct {
		result *domain.BulkResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := ts.bulk.BulkTag(ctx, "usr-1", []string{a1}, []string{"design"})
		done <- outcome{result, err}
	}()

	require.Eventually(t, func() bool { return ts.locks.Len() == 2 }, time.Second, time.Millisecond)
	_, err := ts.store.DeleteTag(ctx, "usr-1", stale)
	require.NoError(t, err)
	release()

	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, 1, got.result.Succeeded)
	assert.Equal(t, 0, got.result.Failed)
	require.Len(t, got.result.TagIDs, 1)
	assert.NotEqual(t, stale, got.result.TagIDs[0])

	view, err := ts.articles.GetArticle(ctx, "usr-1", a1)
	require.NoError(t, err)
	assert.Equal(t, got.result.TagIDs, view.Tags)

	tags, err := ts.tags.ListTags(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "design", tags[0].Name)
}

func TestCreateArticle_ResolvesNamesAndKeepsExplicitTags(t *testing.T) {
	ts := setupServices(t)
	existing := ts.createTag(t, "usr-1", "existing")

	view, err := ts.articles.CreateArticle(ctx, "usr-1", CreateArticleInput{
		URL:      "https://example.com/named",
		TagIDs:   []string{existing},
		TagNames: []string{"fresh", "Existing"},
	})
	require.NoError(t, err)
	require.Len(t, view.Tags, 2)
	assert.Equal(t, existing, view.Tags[0])
	assert.Zero(t, ts.locks.Len())
}

func TestBulkTag_ReusesExistingTagAndSkipsTaggedArticles(t *testing.T) {
	ts := setupServices(t)
	design := ts.createTag(t, "usr-1", "Design")
	tagged := ts.createArticle(t, "usr-1", "a1", design)
	fresh := ts.createArticle(t, "usr-1", "a2")

	result, err := ts.bulk.BulkTag(ctx, "usr-1", []string{tagged, fresh}, []string{" design ", "", "UX"})
	require.NoError(t, err)
	require.Len(t, result.TagIDs, 2)
	assert.Equal(t, design, result.TagIDs[0])

	o, ok := result.Outcome(tagged)
	require.True(t, ok)
	assert.True(t, o.OK)
	assert.True(t, o.Changed, "UX is new on the tagged article")

	got, err := ts.articles.GetArticle(ctx, "usr-1", fresh)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Design", "UX"}, got.TagNames)
}

func TestBulkTag_EmptyNamesAbort(t *testing.T) {
	ts := setupServices(t)
	a1 := ts.createArticle(t, "usr-1", "a1")

	_, err := ts.bulk.BulkTag(ctx, "usr-1", []string{a1}, []string{"  ", ""})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	tags, err := ts.tags.ListTags(ctx, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestBulkAdvanceStatus(t *testing.T) {
	ts := setupServices(t)
	inbox := ts.createArticle(t, "usr-1", "a1")
	archived := ts.createArticle(t, "usr-1", "a2")
	_, err := ts.articles.UpdateArticle(ctx, "usr-1", archived, UpdateArticleInput{Status: ptr("archived")})
	require.NoError(t, err)

	result, err := ts.bulk.BulkAdvanceStatus(ctx, "usr-1", []string{inbox, archived})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)

	o, _ := result.Outcome(inbox)
	assert.True(t, o.Changed)
	o, _ = result.Outcome(archived)
	assert.True(t, o.OK)
	assert.False(t, o.Changed)

	got, err := ts.articles.GetArticle(ctx, "usr-1", inbox)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDaily, got.Status)

	got, err = ts.articles.GetArticle(ctx, "usr-1", archived)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, got.Status)
}

func TestBulkFavorite_PartialFailure(t *testing.T) {
	ts := setupServices(t)
	mine := ts.createArticle(t, "usr-1", "a1")
	theirs := ts.createArticle(t, "usr-2", "b1")

	result, err := ts.bulk.BulkFavorite(ctx, "usr-1", []string{mine, "art-missing", theirs, mine})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3, "duplicate ids collapse")
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)

	o, _ := result.Outcome("art-missing")
	assert.False(t, o.OK)
	assert.Equal(t, errors.CodeNotFound, o.Code)
	o, _ = result.Outcome(theirs)
	assert.Equal(t, errors.CodeNotFound, o.Code)

	got, err := ts.store.GetArticle(ctx, theirs)
	require.NoError(t, err)
	assert.False(t, got.IsFavorite)

	completed := ts.events.ofType(sse.EventBulkCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "usr-1", completed[0].UserID)

	// Unfavorite flips it back.
	result, err = ts.bulk.BulkUnfavorite(ctx, "usr-1", []string{mine})
	require.NoError(t, err)
	o, _ = result.Outcome(mine)
	assert.True(t, o.Changed)
}

func TestBulk_AbortsWholeCall(t *testing.T) {
	ts := setupServices(t)
	a1 := ts.createArticle(t, "usr-1", "a1")

	_, err := ts.bulk.BulkFavorite(ctx, "usr-1", nil)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = ts.bulk.BulkFavorite(ctx, "", []string{a1})
	assert.Equal(t, errors.CodeUnauthorized, errors.CodeOf(err))

	_, err = ts.bulk.BulkStatusChange(ctx, "usr-1", []string{a1}, "someday")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestBulkStatusChange(t *testing.T) {
	ts := setupServices(t)
	a1 := ts.createArticle(t, "usr-1", "a1")
	a2 := ts.createArticle(t, "usr-1", "a2")

	result, err := ts.bulk.BulkStatusChange(ctx, "usr-1", []string{a1, a2}, "Continue")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)

	views, err := ts.articles.ListArticles(ctx, "usr-1", ListArticlesOptions{
		Filter: domain.ArticleFilter{Status: domain.StatusContinue},
	})
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestBulkDelete_LeavesTags(t *testing.T) {
	ts := setupServices(t)
	tagID := ts.createTag(t, "usr-1", "keep")
	a1 := ts.createArticle(t, "usr-1", "a1", tagID)
	a2 := ts.createArticle(t, "usr-1", "a2", tagID)
	_, err := ts.highlights.CreateHighlight(ctx, "usr-1", a1, CreateHighlightInput{
		Text:     "x",
		Position: domain.Position{Start: 0, End: 1},
	})
	require.NoError(t, err)

	result, err := ts.bulk.BulkDelete(ctx, "usr-1", []string{a1, a2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)

	_, err = ts.articles.GetArticle(ctx, "usr-1", a1)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))

	tag, err := ts.tags.GetTag(ctx, "usr-1", tagID)
	require.NoError(t, err)
	assert.Equal(t, 0, tag.ArticleCount)

	assert.Len(t, ts.events.ofType(sse.EventArticleDeleted), 2)
}

func ptr[T any](v T) *T { return &v }
