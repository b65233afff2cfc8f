package ports

import (
	"context"

	"buildboard/internal/domain"
)

// SessionReader reads session rows
type SessionReader interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
}

// SessionWriter creates sessions and mutates their lifecycle state
type SessionWriter interface {
	Create(ctx context.Context, session domain.Session) error
	UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, updatedAt int64) error
}

// SessionRepository is the composite interface
type SessionRepository interface {
	SessionReader
	SessionWriter
}
