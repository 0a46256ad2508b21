package domain

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/curatorapp/curator-server/internal/errors"
)

// Tag name and color limits.
const (
	MaxTagNameLength  = 50
	MaxTagColorLength = 20
)

// Tag is a user-scoped label attached to articles.
// Tags hold no article ids; membership is computed by scanning the owner's articles.
type Tag struct {
	Owned
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// TagWithCount pairs a tag with the number of the owner's articles carrying it.
// The count is derived on read and never stored.
type TagWithCount struct {
	*Tag
	ArticleCount int `json:"article_count"`
}

var folder = cases.Fold()

// NormalizeTagName returns the key under which tag names are compared:
// surrounding whitespace trimmed, inner runs collapsed to one space, NFKC
// composed and case folded. "  Machine   Learning " and "machine learning"
// normalize identically.
func NormalizeTagName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	return folder.String(norm.NFKC.String(collapsed))
}

// CleanTagName trims and collapses whitespace while keeping the display casing.
func CleanTagName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ValidateTagName checks a display name after cleaning.
func ValidateTagName(name string) error {
	cleaned := CleanTagName(name)
	if cleaned == "" {
		return errors.Validation("tag name must not be empty")
	}
	if utf8.RuneCountInString(cleaned) > MaxTagNameLength {
		return errors.Validationf("tag name must be at most %d characters", MaxTagNameLength)
	}
	return nil
}

// CleanTagNames trims every name, discards empties and drops names whose
// normalized form was already seen. The first spelling of each name wins and
// input order is kept.
func CleanTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		cleaned := CleanTagName(n)
		if cleaned == "" {
			continue
		}
		key := NormalizeTagName(cleaned)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

// TagCatalog maps tag ids to display names for read-side resolution.
type TagCatalog map[string]string

// NewTagCatalog indexes tags by id.
func NewTagCatalog(tags []*Tag) TagCatalog {
	c := make(TagCatalog, len(tags))
	for _, t := range tags {
		c[t.ID] = t.Name
	}
	return c
}

// ResolveTagNames maps each article's tag ids to display names.
//
// An id missing from the catalog is a broken reference; it is returned verbatim
// in place of a name so the read path keeps working, and it is also reported
// in unresolved (each id once, in first-seen order) so callers can log it.
func ResolveTagNames(articleTagIDs [][]string, catalog TagCatalog) (names [][]string, unresolved []string) {
	names = make([][]string, len(articleTagIDs))
	seen := make(map[string]struct{})
	for i, ids := range articleTagIDs {
		resolved := make([]string, len(ids))
		for j, tagID := range ids {
			name, ok := catalog[tagID]
			if !ok {
				name = tagID
				if _, dup := seen[tagID]; !dup {
					seen[tagID] = struct{}{}
					unresolved = append(unresolved, tagID)
				}
			}
			resolved[j] = name
		}
		names[i] = resolved
	}
	return names, unresolved
}

// SortTagsByUsage orders tags by article count descending, then by name.
func SortTagsByUsage(tags []TagWithCount) {
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].ArticleCount != tags[j].ArticleCount {
			return tags[i].ArticleCount > tags[j].ArticleCount
		}
		return NormalizeTagName(tags[i].Name) < NormalizeTagName(tags[j].Name)
	})
}
