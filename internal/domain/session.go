package domain

// SessionStatus represents the lifecycle state of an agent session
type SessionStatus string

const (
	StatusInitializing SessionStatus = "initializing"
	StatusCoding       SessionStatus = "coding"
	// completed/error are part of the model but no in-scope operation
	// transitions into them; an external execution loop would.
	StatusCompleted SessionStatus = "completed"
	StatusError     SessionStatus = "error"
)

// Session represents one project's agent-assisted build attempt (domain entity)
type Session struct {
	ID                string
	ProjectName       string
	Status            SessionStatus
	CurrentFeature    string
	FeaturesCompleted int
	FeaturesTotal     int
	AppSpec           string
	FeatureList       []string // enriched from the blob store, nil when absent
	CreatedAt         int64    // epoch seconds
	UpdatedAt         int64
}
