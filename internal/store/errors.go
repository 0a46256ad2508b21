package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error with an HTTP status code hint.
// Services translate these into domain errors; the code only documents intent.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel a copy was derived from, so ErrConflict.WithCause(x)
// still satisfies errors.Is(err, ErrConflict).
// Every per-entity ownership error also matches ErrNotOwner.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == ErrNotOwner {
		return e.Code == http.StatusForbidden
	}
	return e.Code == t.Code && e.Message == t.Message
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors.
var (
	ErrNotFound          = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	ErrUserNotFound      = &Error{Code: http.StatusNotFound, Message: "user not found"}
	ErrTagNotFound       = &Error{Code: http.StatusNotFound, Message: "tag not found"}
	ErrArticleNotFound   = &Error{Code: http.StatusNotFound, Message: "article not found"}
	ErrHighlightNotFound = &Error{Code: http.StatusNotFound, Message: "highlight not found"}
	ErrStackNotFound     = &Error{Code: http.StatusNotFound, Message: "stack not found"}

	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
	ErrTagNameTaken  = &Error{Code: http.StatusConflict, Message: "tag name already in use"}
	ErrEmailTaken    = &Error{Code: http.StatusConflict, Message: "email already registered"}

	// ErrNotOwner means the entity exists but belongs to another user.
	// The per-entity variants say which record it was.
	ErrNotOwner          = &Error{Code: http.StatusForbidden, Message: "entity belongs to another user"}
	ErrTagNotOwned       = &Error{Code: http.StatusForbidden, Message: "tag belongs to another user"}
	ErrArticleNotOwned   = &Error{Code: http.StatusForbidden, Message: "article belongs to another user"}
	ErrHighlightNotOwned = &Error{Code: http.StatusForbidden, Message: "highlight belongs to another user"}

	// ErrConflict means a read-write transaction kept losing to concurrent writers.
	ErrConflict = &Error{Code: http.StatusConflict, Message: "concurrent modification, retry"}

	// ErrDanglingTag means an article write referenced a tag that does not exist
	// for the article's owner.
	ErrDanglingTag = &Error{Code: http.StatusBadRequest, Message: "article references an unknown tag"}
)
