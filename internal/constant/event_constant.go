package constant

// Domain event types published to NATS.
const (
	EventNoteCreated       = "NOTE_CREATED"
	EventNoteDeleted       = "NOTE_DELETED"
	EventChatTurnCompleted = "CHAT_TURN_COMPLETED"
)

// Metric label values.
const (
	OutcomeOk    = "ok"
	OutcomeError = "error"
)

const (
	VectorCleanupMaxAttempts = 5
)
