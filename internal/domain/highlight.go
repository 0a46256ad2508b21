package domain

import (
	"unicode/utf8"

	"github.com/curatorapp/curator-server/internal/errors"
)

// Annotations are the user's notes on a highlight. Note is nullable.
type Annotations struct {
	Title string  `json:"title"`
	Note  *string `json:"note"`
}

// Position is a half-open range of character offsets into the article content.
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Highlight is a marked passage of an article. It is owned by the article and
// deleted with it.
type Highlight struct {
	Owned
	ArticleID   string      `json:"article_id"`
	Text        string      `json:"text"`
	Annotations Annotations `json:"annotations"`
	Color       string      `json:"color,omitempty"`
	Position    Position    `json:"position"`
}

// Validate checks the offsets against the article content. When content is
// empty only 0 <= start < end is enforced.
func (p Position) Validate(content string) error {
	if p.Start < 0 {
		return errors.Validation("position start must not be negative")
	}
	if p.Start >= p.End {
		return errors.Validation("position start must be before end")
	}
	if content == "" {
		return nil
	}
	if n := utf8.RuneCountInString(content); p.End > n {
		return errors.Validationf("position end %d exceeds content length %d", p.End, n)
	}
	return nil
}
