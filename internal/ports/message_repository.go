package ports

import (
	"context"

	"buildboard/internal/domain"
)

// MessageRepository persists and replays chat messages. Append assigns the
// store-side sequence number and returns it on the message.
type MessageRepository interface {
	Append(ctx context.Context, message domain.ChatMessage) (*domain.ChatMessage, error)
	// Recent returns up to limit messages for the session, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
	// ListBySession returns all messages in replay order (timestamp, seq asc).
	ListBySession(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}
