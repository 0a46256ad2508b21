package domain

import (
	"slices"
	"strings"

	"github.com/curatorapp/curator-server/internal/errors"
)

// Status is the reading queue an article currently sits in.
type Status string

// Reading queues, in advance order.
const (
	StatusInbox       Status = "inbox"
	StatusDaily       Status = "daily"
	StatusContinue    Status = "continue"
	StatusRediscovery Status = "rediscovery"
	StatusArchived    Status = "archived"
)

// queueOrder is the fixed order BulkAdvanceStatus walks. Archived is terminal.
var queueOrder = []Status{
	StatusInbox,
	StatusDaily,
	StatusContinue,
	StatusRediscovery,
	StatusArchived,
}

// Statuses returns every valid status in queue order.
func Statuses() []Status {
	return slices.Clone(queueOrder)
}

// Valid reports whether s is one of the known queues.
func (s Status) Valid() bool {
	return slices.Contains(queueOrder, s)
}

// Next returns the queue after s. For archived (and unknown values) it returns s
// itself and false.
func (s Status) Next() (Status, bool) {
	i := slices.Index(queueOrder, s)
	if i < 0 || i == len(queueOrder)-1 {
		return s, false
	}
	return queueOrder[i+1], true
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(strings.ToLower(raw)))
	if !s.Valid() {
		return "", errors.Validationf("invalid status %q", raw)
	}
	return s, nil
}

// WordsPerMinute is the reading speed used for ReadingMinutes.
const WordsPerMinute = 200

// Article is a saved piece of content owned by one user.
//
// Tags holds tag ids only; tags keep no list of their articles. Every id in Tags
// must reference an existing tag of the same user whenever the article is readable.
type Article struct {
	Owned
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Excerpt        string   `json:"excerpt,omitempty"`
	Content        string   `json:"content,omitempty"`
	ReadingMinutes int      `json:"reading_minutes,omitempty"`
	Status         Status   `json:"status"`
	IsFavorite     bool     `json:"is_favorite"`
	Tags           []string `json:"tags"`
}

// HasTag reports whether tagID is in the article's tag set.
func (a *Article) HasTag(tagID string) bool {
	return slices.Contains(a.Tags, tagID)
}

// AddTag adds tagID to the tag set. Returns false, and leaves UpdatedAt alone,
// when the tag was already present.
func (a *Article) AddTag(tagID string) bool {
	if a.HasTag(tagID) {
		return false
	}
	a.Tags = append(a.Tags, tagID)
	a.Touch()
	return true
}

// RemoveTag drops tagID from the tag set. Returns false when it was absent.
func (a *Article) RemoveTag(tagID string) bool {
	i := slices.Index(a.Tags, tagID)
	if i < 0 {
		return false
	}
	a.Tags = slices.Delete(a.Tags, i, i+1)
	a.Touch()
	return true
}

// SetFavorite sets IsFavorite and reports whether it changed.
func (a *Article) SetFavorite(v bool) bool {
	if a.IsFavorite == v {
		return false
	}
	a.IsFavorite = v
	a.Touch()
	return true
}

// SetStatus moves the article to s and reports whether it changed.
func (a *Article) SetStatus(s Status) bool {
	if a.Status == s {
		return false
	}
	a.Status = s
	a.Touch()
	return true
}

// Advance moves the article one queue forward. Archived articles stay put.
func (a *Article) Advance() bool {
	next, ok := a.Status.Next()
	if !ok {
		return false
	}
	return a.SetStatus(next)
}

// SetContent replaces the content and recomputes ReadingMinutes.
func (a *Article) SetContent(content string) {
	a.Content = content
	a.ReadingMinutes = ReadingMinutes(content)
}

// ReadingMinutes estimates reading time at WordsPerMinute, rounding up, with a
// minimum of one minute for any non-empty content.
func ReadingMinutes(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return max(1, (words+WordsPerMinute-1)/WordsPerMinute)
}

// DedupeIDs returns ids with blanks and repeats removed, keeping first-seen order.
func DedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ArticleView is an article as clients read it: tag ids plus their display
// names, aligned by index. A name equals its id when the reference did not resolve.
type ArticleView struct {
	*Article
	TagNames []string `json:"tag_names"`
}
