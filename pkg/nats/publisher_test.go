package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "rag_notes.NOTE_CREATED", Subject("NOTE_CREATED"))
}
