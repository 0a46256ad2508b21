package store

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Page size bounds for listings.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// ErrInvalidCursor is returned for a cursor that does not decode or no
// longer points into the listing.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationParams selects one page of a listing.
type PaginationParams struct {
	Limit  int    // Items per page; 0 means DefaultPageLimit
	Cursor string // Opaque cursor from the previous page; empty for the first
}

// PaginatedResult is one page of an ordered listing.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// Validate clamps the limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

// EncodeCursor creates an opaque cursor from an item key.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor decodes a cursor back to an item key.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return string(decoded), nil
}

// Paginate returns the page of items that follows the cursor. items must
// already be in listing order; keyOf identifies an item. A cursor naming an
// item that is no longer in the listing is ErrInvalidCursor.
func Paginate[T any](items []T, params PaginationParams, keyOf func(T) string) (*PaginatedResult[T], error) {
	params.Validate()

	after, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	start := 0
	if after != "" {
		start = -1
		for i, item := range items {
			if keyOf(item) == after {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, fmt.Errorf("%w: %q is not in the listing", ErrInvalidCursor, after)
		}
	}

	end := min(start+params.Limit, len(items))
	page := &PaginatedResult[T]{
		Items: items[start:end],
		Total: len(items),
	}
	if end < len(items) {
		page.HasMore = true
		page.NextCursor = EncodeCursor(keyOf(items[end-1]))
	}
	return page, nil
}
