package prompt

import (
	"strings"

	"rag-notes-be/pkg/llm"
)

// Builder assembles the message list for one chat turn: the fixed system
// instruction, an optional context block, prior history, then the new message.
type Builder struct {
	SystemPrompt  string
	ContextHeader string
}

func NewBuilder(systemPrompt, contextHeader string) *Builder {
	return &Builder{
		SystemPrompt:  systemPrompt,
		ContextHeader: contextHeader,
	}
}

// ContextBlock renders notes as "<header>\n- a\n- b". Empty when there are no notes.
func (b *Builder) ContextBlock(notes []string) string {
	if len(notes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(b.ContextHeader)
	for _, note := range notes {
		sb.WriteString("\n- ")
		sb.WriteString(note)
	}
	return sb.String()
}

// Build expects history in chronological order.
func (b *Builder) Build(contextNotes []string, history []llm.Message, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+3)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: b.SystemPrompt})

	if block := b.ContextBlock(contextNotes); block != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: block})
	}

	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return messages
}
