package ports

import (
	"context"

	"buildboard/internal/domain"
)

// Provider is one external completion service in the fallback chain.
type Provider interface {
	// Name identifies the provider in logs and /api/test-keys.
	Name() string
	// Configured reports whether credentials are present; unconfigured
	// providers are skipped without counting as failures worth logging.
	Configured() bool
	// Complete returns the assistant reply for the given context messages.
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}
