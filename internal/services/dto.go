package services

import "buildboard/internal/domain"

// CreateSessionParams contains parameters for creating a new session
type CreateSessionParams struct {
	AppSpec     string
	FeatureList []string
	ProjectName string
}

// SendMessageResult contains the persisted assistant reply for a chat call
type SendMessageResult struct {
	MessageID string
	Response  string
}

// TimerState reports the ledger after Start or for the open entry
type TimerState struct {
	Running   bool
	StartedAt int64
}

// StopResult reports the closed interval after Stop
type StopResult struct {
	Running bool
	Seconds int64
	CostUSD float64
}

// TimeAggregates are the rolling window totals reported by Status
type TimeAggregates struct {
	TodaySeconds int64
	WeekSeconds  int64
	MonthSeconds int64
	TodayCost    float64
	WeekCost     float64
	MonthCost    float64
	RatePerHour  float64
}

// TimerStatus is the full Status report
type TimerStatus struct {
	Running    bool
	StartedAt  int64
	Seconds    int64 // live elapsed of the open entry, not persisted
	Aggregates TimeAggregates
}

// ImageEntry pairs a blob object with its sidecar metadata, nil when absent
type ImageEntry struct {
	Object   domain.BlobObject
	Metadata *domain.ImageMeta
}

// UpsertMetadataParams carries the optional metadata fields; nil means
// "leave the stored value unchanged"
type UpsertMetadataParams struct {
	Alt   *string
	Tags  []string
	Title *string
}
