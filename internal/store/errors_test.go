package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/curatorapp/curator-server/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("Transaction Conflict. Please retry")
	err := store.ErrConflict.WithCause(cause)

	assert.Contains(t, err.Error(), "concurrent modification")
	assert.Contains(t, err.Error(), "Transaction Conflict")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_IsMatchesDerivedSentinel(t *testing.T) {
	err := fmt.Errorf("attach: %w", store.ErrConflict.WithCause(errors.New("boom")))

	assert.ErrorIs(t, err, store.ErrConflict)
	assert.NotErrorIs(t, err, store.ErrTagNotFound)
}

func TestError_DistinctNotFoundSentinels(t *testing.T) {
	assert.NotErrorIs(t, store.ErrTagNotFound, store.ErrArticleNotFound)
	assert.Equal(t, http.StatusNotFound, store.ErrTagNotFound.HTTPCode())
	assert.Equal(t, http.StatusForbidden, store.ErrNotOwner.HTTPCode())
}

func TestError_OwnershipVariantsMatchNotOwner(t *testing.T) {
	err := fmt.Errorf("attach: %w", store.ErrTagNotOwned)

	assert.ErrorIs(t, err, store.ErrNotOwner)
	assert.ErrorIs(t, err, store.ErrTagNotOwned)
	assert.NotErrorIs(t, err, store.ErrArticleNotOwned)
}
