// Package search keeps a Bleve full-text index of articles so saved-search
// stacks can match free-text queries against titles, excerpts and content.
package search

import (
	"github.com/curatorapp/curator-server/internal/domain"
)

// ArticleDocument is the indexed form of an article. Every document carries
// its owner so queries can be scoped to one user.
type ArticleDocument struct {
	ID        string
	UserID    string
	Title     string
	Excerpt   string
	Content   string
	URL       string
	Status    string
	Favorite  bool
	Tags      []string
	CreatedAt int64 // Unix millis
}

// NewArticleDocument converts an article for indexing.
func NewArticleDocument(a *domain.Article) *ArticleDocument {
	return &ArticleDocument{
		ID:        a.ID,
		UserID:    a.UserID,
		Title:     a.Title,
		Excerpt:   a.Excerpt,
		Content:   a.Content,
		URL:       a.URL,
		Status:    string(a.Status),
		Favorite:  a.IsFavorite,
		Tags:      a.Tags,
		CreatedAt: a.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
// Bleve would otherwise use the capitalized Go field names.
func (d *ArticleDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"user_id":    d.UserID,
		"title":      d.Title,
		"url":        d.URL,
		"status":     d.Status,
		"favorite":   d.Favorite,
		"created_at": d.CreatedAt,
	}
	if d.Excerpt != "" {
		m["excerpt"] = d.Excerpt
	}
	if d.Content != "" {
		m["content"] = d.Content
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
