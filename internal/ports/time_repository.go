package ports

import (
	"context"

	"buildboard/internal/domain"
)

// TimeLedgerRepository manages the single-timer ledger. StartEntry inserts
// atomically against the ≤1-open-row invariant: when an open entry already
// exists (including one raced in concurrently) it returns that entry and
// created=false instead of inserting.
type TimeLedgerRepository interface {
	Open(ctx context.Context) (*domain.TimeEntry, error)
	Entry(ctx context.Context, id string) (*domain.TimeEntry, error)
	StartEntry(ctx context.Context, entry domain.TimeEntry) (*domain.TimeEntry, bool, error)
	// CloseEntry returns domain.ErrEntryClosed when the row is already
	// closed, so a racing Stop cannot report a close that never happened.
	CloseEntry(ctx context.Context, id string, endedAt, seconds int64, costUSD float64) error
	// StartedSince lists entries with started_at >= since, oldest first.
	StartedSince(ctx context.Context, since int64) ([]domain.TimeEntry, error)
}
