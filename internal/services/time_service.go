package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"buildboard/internal/domain"
	"buildboard/internal/logging"
	"buildboard/internal/ports"
)

// TimeService is the billable-time ledger: a single global timer plus
// derived cost rollups. The ≤1-open-entry invariant lives in the store.
type TimeService struct {
	ledger ports.TimeLedgerRepository
	rate   float64
	now    func() time.Time
}

// NewTimeService creates a new TimeService with the fixed hourly rate
func NewTimeService(ledger ports.TimeLedgerRepository, rate float64) *TimeService {
	return &TimeService{
		ledger: ledger,
		rate:   rate,
		now:    time.Now,
	}
}

// Start opens the timer. When an entry is already open (including one raced
// in concurrently) it is returned as-is; no second entry is created.
func (s *TimeService) Start(ctx context.Context) (*TimerState, error) {
	entry := domain.TimeEntry{
		ID:        uuid.New().String(),
		StartedAt: s.now().Unix(),
	}

	stored, created, err := s.ledger.StartEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	if created {
		logging.Logger.Info("timer started", "entry_id", stored.ID, "started_at", stored.StartedAt)
	}

	return &TimerState{Running: true, StartedAt: stored.StartedAt}, nil
}

// Stop closes the open entry, deriving seconds and cost. With no open entry
// it reports running=false and mutates nothing.
func (s *TimeService) Stop(ctx context.Context) (*StopResult, error) {
	open, err := s.ledger.Open(ctx)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return &StopResult{Running: false}, nil
	}

	endedAt := s.now().Unix()
	seconds := endedAt - open.StartedAt
	if seconds < 0 {
		seconds = 0
	}
	cost := s.cost(seconds)

	err = s.ledger.CloseEntry(ctx, open.ID, endedAt, seconds, cost)
	if errors.Is(err, domain.ErrEntryClosed) {
		// A racing Stop closed it first; report that close, not ours.
		closed, readErr := s.ledger.Entry(ctx, open.ID)
		if readErr != nil {
			return nil, readErr
		}
		result := &StopResult{Running: false}
		if closed.Seconds != nil {
			result.Seconds = *closed.Seconds
		}
		if closed.CostUSD != nil {
			result.CostUSD = *closed.CostUSD
		}
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("timer stopped", "entry_id", open.ID, "seconds", seconds, "cost_usd", cost)

	return &StopResult{Running: false, Seconds: seconds, CostUSD: cost}, nil
}

// Status reports the open entry's live elapsed time and today / this-week /
// this-month rollups. Closed entries contribute their stored seconds, the
// open entry its live elapsed, so an in-progress session shows up without
// requiring Stop first. The open entry is fetched on its own: one started
// before the current week or month still reports running, it just no longer
// counts toward any window.
func (s *TimeService) Status(ctx context.Context) (*TimerStatus, error) {
	now := s.now()
	nowUnix := now.Unix()

	todayStart := startOfDay(now)
	weekStart := startOfWeek(now)
	monthStart := startOfMonth(now)

	earliest := monthStart
	if weekStart < earliest {
		earliest = weekStart
	}

	status := &TimerStatus{
		Aggregates: TimeAggregates{RatePerHour: s.rate},
	}

	open, err := s.ledger.Open(ctx)
	if err != nil {
		return nil, err
	}
	if open != nil {
		elapsed := nowUnix - open.StartedAt
		if elapsed < 0 {
			elapsed = 0
		}
		status.Running = true
		status.StartedAt = open.StartedAt
		status.Seconds = elapsed
	}

	entries, err := s.ledger.StartedSince(ctx, earliest)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		var seconds int64
		if entry.Open() {
			seconds = nowUnix - entry.StartedAt
			if seconds < 0 {
				seconds = 0
			}
		} else if entry.Seconds != nil {
			seconds = *entry.Seconds
		}

		if entry.StartedAt >= todayStart {
			status.Aggregates.TodaySeconds += seconds
		}
		if entry.StartedAt >= weekStart {
			status.Aggregates.WeekSeconds += seconds
		}
		if entry.StartedAt >= monthStart {
			status.Aggregates.MonthSeconds += seconds
		}
	}

	status.Aggregates.TodayCost = s.cost(status.Aggregates.TodaySeconds)
	status.Aggregates.WeekCost = s.cost(status.Aggregates.WeekSeconds)
	status.Aggregates.MonthCost = s.cost(status.Aggregates.MonthSeconds)

	return status, nil
}

// cost derives USD from seconds at the fixed hourly rate; cost is never
// stored independently of seconds.
func (s *TimeService) cost(seconds int64) float64 {
	return float64(seconds) / 3600.0 * s.rate
}

func startOfDay(t time.Time) int64 {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).Unix()
}

// startOfWeek returns midnight of the most recent Monday
func startOfWeek(t time.Time) int64 {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	year, month, day := t.AddDate(0, 0, -(weekday - 1)).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).Unix()
}

func startOfMonth(t time.Time) int64 {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).Unix()
}
