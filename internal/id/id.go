// Package id generates prefixed, URL-safe identifiers for stored entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes. The prefix makes raw ids self-describing in logs and in
// unresolved tag references surfaced to clients.
const (
	PrefixUser      = "usr"
	PrefixTag       = "tag"
	PrefixArticle   = "art"
	PrefixHighlight = "hl"
	PrefixStack     = "stk"
	PrefixToken     = "tok"
	PrefixClient    = "sse"
)

// Generate creates an id of the form prefix-nanoid, e.g. "tag-V1StGXR8_Z5jdHi6B-myT".
// The nanoid part is 21 characters from the URL-safe alphabet.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
