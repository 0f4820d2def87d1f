package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// ChatSystemPrompt is always the first message of a chat turn.
const ChatSystemPrompt = `You are a helpful AI assistant. When answering:
1. Use the provided context when relevant
2. Keep responses clear and concise
3. If unsure, acknowledge uncertainty
4. Maintain a friendly, professional tone`

const ChatContextHeader = "Relevant context:"

// Public error messages.
const (
	ErrFetchNotes       = "Failed to fetch notes"
	ErrCreateNote       = "Failed to create note or generate embedding"
	ErrDeleteNote       = "Failed to delete note"
	ErrFetchChatHistory = "Failed to fetch chat history"
	ErrSaveChatMessage  = "Failed to save chat message"
	ErrProcessChat      = "Failed to process chat message"
	ErrInvalidNoteId    = "Invalid note id"
)
