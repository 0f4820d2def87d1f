package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("Missing text"), http.StatusBadRequest},
		{"not found", NotFound("Note not found"), http.StatusNotFound},
		{"storage", Storage("Failed to fetch notes", cause), http.StatusInternalServerError},
		{"index", Index("Failed to delete note", cause), http.StatusInternalServerError},
		{"inference", Inference("Failed to process chat message", cause), http.StatusInternalServerError},
		{"plain", cause, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("handler: %w", Validation("Missing text")), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := Storage("Failed to fetch notes", errors.New("pq: password authentication failed"))

	assert.Equal(t, "Failed to fetch notes", PublicMessage(err))
	assert.Contains(t, err.Error(), "password authentication failed")
}

func TestWithMessageKeepsKindAndCause(t *testing.T) {
	cause := errors.New("timeout")
	err := WithMessage(Inference("embedding failed", cause), "Failed to process chat message")

	assert.True(t, IsKind(err, KindInference))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to process chat message", PublicMessage(err))

	plain := WithMessage(cause, "Failed to delete note")
	assert.True(t, IsKind(plain, KindStorage))
}
