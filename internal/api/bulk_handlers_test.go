package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/domain"
)

func TestBulkTag_CollapsesRepeatedNames(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, authHeader := ts.createUser(t, "reader@example.com")

	a1 := ts.postArticle(t, authHeader, map[string]any{"url": "https://example.com/a1"})
	a2 := ts.postArticle(t, authHeader, map[string]any{"url": "https://example.com/a2"})

	resp := ts.api.Post("/api/v1/bulk/tag", authHeader, map[string]any{
		"article_ids": []string{a1.ID, a2.ID},
		"tag_names":   []string{"design", "design"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[domain.BulkResult](t, resp)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)
	require.Len(t, result.TagIDs, 1)

	resp = ts.api.Get("/api/v1/tags", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	tags := decode[ListTagsResponse](t, resp).Tags
	require.Len(t, tags, 1)
	assert.Equal(t, "design", tags[0].Name)
	assert.Equal(t, 2, tags[0].ArticleCount)
}

func TestBulkAdvance_ArchivedStaysPut(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, authHeader := ts.createUser(t, "reader@example.com")

	archived := ts.postArticle(t, authHeader, map[string]any{"url": "https://example.com/old", "status": "archived"})
	fresh := ts.postArticle(t, authHeader, map[string]any{"url": "https://example.com/new"})

	resp := ts.api.Post("/api/v1/bulk/advance", authHeader, map[string]any{
		"article_ids": []string{archived.ID, fresh.ID},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[domain.BulkResult](t, resp)
	assert.Equal(t, 2, result.Succeeded)

	o, ok := result.Outcome(archived.ID)
	require.True(t, ok)
	assert.True(t, o.OK)
	assert.False(t, o.Changed)

	o, ok = result.Outcome(fresh.ID)
	require.True(t, ok)
	assert.True(t, o.Changed)

	resp = ts.api.Get("/api/v1/articles/"+fresh.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "daily", decode[ArticleResponse](t, resp).Status)
}

func TestBulkFavorite_PartialFailure(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, owner := ts.createUser(t, "owner@example.com")
	_, other := ts.createUser(t, "other@example.com")

	mine := ts.postArticle(t, owner, map[string]any{"url": "https://example.com/mine"})
	theirs := ts.postArticle(t, other, map[string]any{"url": "https://example.com/theirs"})

	resp := ts.api.Post("/api/v1/bulk/favorite", owner, map[string]any{
		"article_ids": []string{mine.ID, theirs.ID, "art-missing"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[domain.BulkResult](t, resp)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)

	o, _ := result.Outcome(theirs.ID)
	assert.False(t, o.OK)
	assert.Equal(t, "NOT_FOUND", string(o.Code))

	// The other user's article is untouched.
	resp = ts.api.Get("/api/v1/articles/"+theirs.ID, other)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[ArticleResponse](t, resp).IsFavorite)
}

func TestBulkStatus_InvalidStatusAbortsCall(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, authHeader := ts.createUser(t, "reader@example.com")

	article := ts.postArticle(t, authHeader, map[string]any{"url": "https://example.com/post"})

	resp := ts.api.Post("/api/v1/bulk/status", authHeader, map[string]any{
		"article_ids": []string{article.ID},
		"status":      "someday",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[APIError](t, resp).Code)

	resp = ts.api.Post("/api/v1/bulk/status", authHeader, map[string]any{
		"article_ids": []string{article.ID},
		"status":      "continue",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, decode[domain.BulkResult](t, resp).Succeeded)
}

func TestBulkDelete_KeepsTags(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, authHeader := ts.createUser(t, "reader@example.com")

	tag := ts.postTag(t, authHeader, "keep")
	article := ts.postArticle(t, authHeader, map[string]any{
		"url":     "https://example.com/post",
		"tag_ids": []string{tag.ID},
	})

	resp := ts.api.Post("/api/v1/bulk/delete", authHeader, map[string]any{
		"article_ids": []string{article.ID},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 1, decode[domain.BulkResult](t, resp).Succeeded)

	resp = ts.api.Get("/api/v1/tags/"+tag.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Zero(t, decode[TagResponse](t, resp).ArticleCount)
}

func TestBulk_EmptySelectionRejected(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, authHeader := ts.createUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/bulk/favorite", authHeader, map[string]any{
		"article_ids": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
