package domain

// MessageRole identifies who authored a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ChatMessage is one immutable turn of a session conversation.
// Seq is assigned by the store on insert and guarantees replay order even
// when two messages share the same second-granularity timestamp.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      MessageRole
	Content   string
	Timestamp int64 // epoch seconds
	Seq       int64
}
