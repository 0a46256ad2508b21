package domain

import (
	"sort"
	"strconv"
	"strings"

	"github.com/curatorapp/curator-server/internal/errors"
)

// Stack filter names.
const (
	FilterStatus   = "status"
	FilterFavorite = "favorite"
	FilterTag      = "tag"
)

// Stack is a saved search: a free-text query plus exact-match filters.
type Stack struct {
	Owned
	Name    string            `json:"name"`
	Query   string            `json:"query"`
	Filters map[string]string `json:"filters"`
}

// ArticleFilter selects articles by exact field values. Zero fields match everything.
type ArticleFilter struct {
	Status   Status
	Favorite *bool
	TagID    string
}

// Matches reports whether a passes every set criterion.
func (f ArticleFilter) Matches(a *Article) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Favorite != nil && a.IsFavorite != *f.Favorite {
		return false
	}
	if f.TagID != "" && !a.HasTag(f.TagID) {
		return false
	}
	return true
}

// ParseFilters turns a stack's filter map into an ArticleFilter. Unknown filter
// names and malformed values are validation errors.
func ParseFilters(filters map[string]string) (ArticleFilter, error) {
	var f ArticleFilter
	var unknown []string
	for name, raw := range filters {
		value := strings.TrimSpace(raw)
		switch name {
		case FilterStatus:
			s, err := ParseStatus(value)
			if err != nil {
				return ArticleFilter{}, err
			}
			f.Status = s
		case FilterFavorite:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return ArticleFilter{}, errors.Validationf("favorite filter must be true or false, got %q", raw)
			}
			f.Favorite = &b
		case FilterTag:
			if value == "" {
				return ArticleFilter{}, errors.Validation("tag filter must not be empty")
			}
			f.TagID = value
		default:
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return ArticleFilter{}, errors.ValidationWithDetails("unknown stack filter", map[string]any{"filters": unknown})
	}
	return f, nil
}
