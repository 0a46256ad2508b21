package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/curatorapp/curator-server/internal/errors"
)

func TestPosition_Validate(t *testing.T) {
	content := "héllo world" // 11 runes, 12 bytes

	tests := []struct {
		name    string
		pos     Position
		content string
		wantErr bool
	}{
		{"valid range", Position{Start: 0, End: 5}, content, false},
		{"end at content length", Position{Start: 6, End: 11}, content, false},
		{"end past content", Position{Start: 6, End: 12}, content, true},
		{"negative start", Position{Start: -1, End: 3}, content, true},
		{"empty range", Position{Start: 3, End: 3}, content, true},
		{"reversed range", Position{Start: 4, End: 2}, content, true},
		{"no content only checks order", Position{Start: 100, End: 200}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pos.Validate(tt.content)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}
