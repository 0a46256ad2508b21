// Package content normalizes article bodies: HTML is converted to markdown and
// a plain excerpt is derived when the client sends none.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// ExcerptLength is the rune budget of a derived excerpt.
const ExcerptLength = 280

// htmlTagPattern matches common block and inline tags. Text that merely uses
// angle brackets ("<stdin>", "2 > 1") does not match.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote|pre|code|article|section|img|table)[\s>/]`)

// markdownNoise matches the markup stripped when deriving an excerpt.
var markdownNoise = regexp.MustCompile("\\]\\([^)]*\\)|!\\[|[#*_>`\\[\\]]+")

// ContainsHTML reports whether s appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// ToMarkdown converts HTML to markdown. Input without HTML is returned trimmed
// and otherwise unchanged.
func ToMarkdown(html string) (string, error) {
	if html == "" || !ContainsHTML(html) {
		return strings.TrimSpace(html), nil
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}

// Excerpt returns the first ExcerptLength runes of markdown with markup
// stripped and whitespace collapsed. Cut text ends with an ellipsis on a word
// boundary.
func Excerpt(markdown string) string {
	plain := strings.Join(strings.Fields(markdownNoise.ReplaceAllString(markdown, " ")), " ")
	if utf8.RuneCountInString(plain) <= ExcerptLength {
		return plain
	}
	runes := []rune(plain)[:ExcerptLength]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > ExcerptLength/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
