// Package sse fans out per-user change events over Server-Sent Events so
// clients can keep tag and article lists current without polling.
package sse

import (
	"time"

	"github.com/curatorapp/curator-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	EventTagCreated EventType = "tag.created"
	EventTagUpdated EventType = "tag.updated"
	// EventTagDeleted is sent once the cascade has committed. It lists every
	// article that lost the tag so clients can patch cached copies.
	EventTagDeleted EventType = "tag.deleted"

	EventArticleCreated EventType = "article.created"
	EventArticleUpdated EventType = "article.updated"
	EventArticleDeleted EventType = "article.deleted"

	EventHighlightCreated EventType = "highlight.created"
	EventHighlightDeleted EventType = "highlight.deleted"

	// EventBulkCompleted summarizes a bulk operation.
	EventBulkCompleted EventType = "bulk.completed"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID routes the event. Events without one are heartbeats and go to everyone.
	UserID string `json:"-"`
}

// TagEventData is the payload for tag.created and tag.updated.
type TagEventData struct {
	Tag *domain.Tag `json:"tag"`
}

// TagDeletedEventData is the payload for tag.deleted.
type TagDeletedEventData struct {
	TagID      string   `json:"tag_id"`
	ArticleIDs []string `json:"article_ids"`
}

// ArticleEventData is the payload for article.created and article.updated.
type ArticleEventData struct {
	Article *domain.ArticleView `json:"article"`
}

// ArticleDeletedEventData is the payload for article.deleted.
type ArticleDeletedEventData struct {
	ArticleID    string   `json:"article_id"`
	HighlightIDs []string `json:"highlight_ids,omitempty"`
}

// HighlightEventData is the payload for highlight.created.
type HighlightEventData struct {
	Highlight *domain.Highlight `json:"highlight"`
}

// HighlightDeletedEventData is the payload for highlight.deleted.
type HighlightDeletedEventData struct {
	HighlightID string `json:"highlight_id"`
	ArticleID   string `json:"article_id"`
}

// BulkCompletedEventData is the payload for bulk.completed.
type BulkCompletedEventData struct {
	Action    domain.BulkAction `json:"action"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newUserEvent(userID string, t EventType, data any) Event {
	return Event{Type: t, Data: data, UserID: userID, Timestamp: time.Now()}
}

// NewTagCreatedEvent creates a tag.created event for the tag's owner.
func NewTagCreatedEvent(tag *domain.Tag) Event {
	return newUserEvent(tag.UserID, EventTagCreated, TagEventData{Tag: tag})
}

// NewTagUpdatedEvent creates a tag.updated event for the tag's owner.
func NewTagUpdatedEvent(tag *domain.Tag) Event {
	return newUserEvent(tag.UserID, EventTagUpdated, TagEventData{Tag: tag})
}

// NewTagDeletedEvent creates a tag.deleted event.
func NewTagDeletedEvent(userID, tagID string, articleIDs []string) Event {
	if articleIDs == nil {
		articleIDs = []string{}
	}
	return newUserEvent(userID, EventTagDeleted, TagDeletedEventData{TagID: tagID, ArticleIDs: articleIDs})
}

// NewArticleCreatedEvent creates an article.created event.
func NewArticleCreatedEvent(view *domain.ArticleView) Event {
	return newUserEvent(view.UserID, EventArticleCreated, ArticleEventData{Article: view})
}

// NewArticleUpdatedEvent creates an article.updated event.
func NewArticleUpdatedEvent(view *domain.ArticleView) Event {
	return newUserEvent(view.UserID, EventArticleUpdated, ArticleEventData{Article: view})
}

// NewArticleDeletedEvent creates an article.deleted event.
func NewArticleDeletedEvent(userID, articleID string, highlightIDs []string) Event {
	return newUserEvent(userID, EventArticleDeleted, ArticleDeletedEventData{ArticleID: articleID, HighlightIDs: highlightIDs})
}

// NewHighlightCreatedEvent creates a highlight.created event.
func NewHighlightCreatedEvent(h *domain.Highlight) Event {
	return newUserEvent(h.UserID, EventHighlightCreated, HighlightEventData{Highlight: h})
}

// NewHighlightDeletedEvent creates a highlight.deleted event.
func NewHighlightDeletedEvent(h *domain.Highlight) Event {
	return newUserEvent(h.UserID, EventHighlightDeleted, HighlightDeletedEventData{HighlightID: h.ID, ArticleID: h.ArticleID})
}

// NewBulkCompletedEvent creates a bulk.completed event.
func NewBulkCompletedEvent(userID string, r *domain.BulkResult) Event {
	return newUserEvent(userID, EventBulkCompleted, BulkCompletedEventData{Action: r.Action, Succeeded: r.Succeeded, Failed: r.Failed})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Data: HeartbeatEventData{ServerTime: now}, Timestamp: now}
}
