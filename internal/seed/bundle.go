// Package seed imports a working seed dataset into the store. An import only
// runs when the working copy is at parity with the base copy, and only after
// every tag reference in it resolves.
package seed

import (
	"encoding/json"
	"fmt"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/parity"
)

// TagRecord is one entry of the "tags" export.
type TagRecord struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ArticleRecord is one entry of the "articles" export. Tags holds tag names,
// each of which must appear in the "tags" export.
type ArticleRecord struct {
	URL        string   `json:"url"`
	Title      string   `json:"title,omitempty"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Content    string   `json:"content,omitempty"`
	Status     string   `json:"status,omitempty"`
	IsFavorite bool     `json:"is_favorite,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Bundle is the decoded content of a seed dataset.
type Bundle struct {
	Tags     []TagRecord     `json:"tags"`
	Articles []ArticleRecord `json:"articles"`
}

// Decode converts a loaded dataset into a Bundle. Values go through JSON so
// that TOML and JSON datasets decode the same way.
func Decode(ds parity.Dataset) (*Bundle, error) {
	normalized, err := parity.Normalize(ds)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid seed dataset")
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode seed dataset: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "seed dataset has the wrong shape")
	}
	return &b, nil
}

// Problem describes one integrity violation in a bundle.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validate checks referential integrity: tag names are valid and unique by
// normalized form, and every article tag names a tag in the bundle.
func (b *Bundle) Validate() error {
	var problems []Problem
	known := make(map[string]bool, len(b.Tags))

	for i, t := range b.Tags {
		path := fmt.Sprintf("tags[%d]", i)
		name := domain.CleanTagName(t.Name)
		if err := domain.ValidateTagName(name); err != nil {
			problems = append(problems, Problem{Path: path, Message: err.Error()})
			continue
		}
		key := domain.NormalizeTagName(name)
		if known[key] {
			problems = append(problems, Problem{Path: path, Message: fmt.Sprintf("duplicate tag %q", t.Name)})
			continue
		}
		known[key] = true
	}

	for i, a := range b.Articles {
		path := fmt.Sprintf("articles[%d]", i)
		if a.URL == "" {
			problems = append(problems, Problem{Path: path + ".url", Message: "url is required"})
		}
		if a.Status != "" {
			if _, err := domain.ParseStatus(a.Status); err != nil {
				problems = append(problems, Problem{Path: path + ".status", Message: err.Error()})
			}
		}
		for j, name := range a.Tags {
			if !known[domain.NormalizeTagName(domain.CleanTagName(name))] {
				problems = append(problems, Problem{
					Path:    fmt.Sprintf("%s.tags[%d]", path, j),
					Message: fmt.Sprintf("unknown tag %q", name),
				})
			}
		}
	}

	if len(problems) > 0 {
		return errors.ValidationWithDetails(
			fmt.Sprintf("seed dataset has %d integrity problem(s)", len(problems)), problems)
	}
	return nil
}
