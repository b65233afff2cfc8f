package domain

// TimeEntry is one interval of the billable-time ledger. An entry with
// EndedAt == nil is open; the store guarantees at most one open entry exists.
type TimeEntry struct {
	ID        string
	StartedAt int64 // epoch seconds
	EndedAt   *int64
	Seconds   *int64   // set on close
	CostUSD   *float64 // set on close, derived from Seconds
	Note      string
}

// Open reports whether the entry is still running.
func (e TimeEntry) Open() bool { return e.EndedAt == nil }
