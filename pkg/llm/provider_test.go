package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]Message{
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleSystem, Content: "Relevant context:\n- a"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	})

	assert.Equal(t, "rules\n\nRelevant context:\n- a", system)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, rest)
}

func TestApplyOptions(t *testing.T) {
	got := ApplyOptions(Options{Model: "base", MaxTokens: 10}, WithModel("override"), WithTemperature(0.2))
	assert.Equal(t, "override", got.Model)
	assert.Equal(t, 10, got.MaxTokens)
	assert.Equal(t, 0.2, got.Temperature)
}
