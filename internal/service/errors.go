package service

import (
	"context"
	"net/http"

	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/store"
)

// ownership decides how an entity belonging to another user is reported.
type ownership int

const (
	// hideForeign reports a foreign entity as missing.
	hideForeign ownership = iota
	// revealForeign reports a foreign entity as Forbidden.
	revealForeign
)

// storeError converts store sentinels into domain errors. Errors that are
// already domain errors pass through unchanged.
func storeError(err error, foreign ownership) error {
	if err == nil {
		return nil
	}

	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch {
	// Dangling wraps a not-found cause, so it is checked first.
	case errors.Is(err, store.ErrDanglingTag):
		return errors.Validation(err.Error())
	case errors.Is(err, store.ErrConflict):
		return errors.ErrConflict.WithCause(err)
	case errors.Is(err, store.ErrTagNameTaken):
		return errors.AlreadyExistsf("a tag with that name already exists")
	case errors.Is(err, store.ErrEmailTaken):
		return errors.AlreadyExistsf("email already registered")
	case errors.Is(err, store.ErrAlreadyExists):
		return errors.AlreadyExistsf("resource already exists")
	case errors.Is(err, store.ErrNotOwner):
		return notOwned(err, foreign)
	}

	var se *store.Error
	if errors.As(err, &se) && se.HTTPCode() == http.StatusNotFound {
		return errors.NotFoundf("%s", se.Message)
	}
	return errors.Wrap(err, errors.CodeInternal, "internal error")
}

func notOwned(err error, foreign ownership) error {
	entity := "resource"
	switch {
	case errors.Is(err, store.ErrTagNotOwned):
		entity = "tag"
	case errors.Is(err, store.ErrArticleNotOwned):
		entity = "article"
	case errors.Is(err, store.ErrHighlightNotOwned):
		entity = "highlight"
	}
	if foreign == revealForeign {
		return errors.Forbiddenf("%s belongs to another user", entity)
	}
	return errors.NotFoundf("%s not found", entity)
}

func requireUser(userID string) error {
	if userID == "" {
		return errors.Unauthorized("authentication required")
	}
	return nil
}
