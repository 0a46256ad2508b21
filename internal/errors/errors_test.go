package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("tag %s not found", "tag-1")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrForbidden))
	assert.Equal(t, "tag tag-1 not found", err.Error())
}

func TestError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("delete tag: %w", Forbiddenf("tag belongs to another user"))

	assert.True(t, Is(wrapped, ErrForbidden))
	assert.Equal(t, CodeForbidden, CodeOf(wrapped))
}

func TestError_WithCause(t *testing.T) {
	cause := stderrors.New("badger: transaction conflict")
	err := ErrConflict.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "conflict: badger: transaction conflict", err.Error())
	assert.Equal(t, "conflict", ErrConflict.Error(), "sentinel must not be mutated")
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(stderrors.New("boom")))
}
