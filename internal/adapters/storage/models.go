package storage

// AgentSessionModel is the GORM model for the agent_sessions table
type AgentSessionModel struct {
	AppSpec           string `gorm:"default:''"`
	CreatedAt         int64  `gorm:"not null;index:idx_sessions_created_at"`
	CurrentFeature    string `gorm:"default:''"`
	FeaturesCompleted int    `gorm:"not null;default:0"`
	FeaturesTotal     int    `gorm:"not null;default:0"`
	ID                string `gorm:"primaryKey"`
	ProjectName       string `gorm:"not null"`
	Status            string `gorm:"not null;default:'initializing';check:status IN ('initializing','coding','completed','error')"`
	UpdatedAt         int64  `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (AgentSessionModel) TableName() string { return "agent_sessions" }

// ChatMessageModel is the GORM model for chat messages. Seq is the rowid and
// provides store-guaranteed insertion order under equal timestamps.
type ChatMessageModel struct {
	Content   string `gorm:"not null"`
	ID        string `gorm:"not null;uniqueIndex:idx_messages_id"`
	Role      string `gorm:"not null;check:role IN ('user','assistant','system')"`
	Seq       int64  `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"not null;index:idx_messages_session"`
	Timestamp int64  `gorm:"not null;index:idx_messages_timestamp"`
}

// TableName specifies the table name for GORM
func (ChatMessageModel) TableName() string { return "chat_messages" }

// TimeEntryModel is the GORM model for the time ledger
type TimeEntryModel struct {
	CostUSD   *float64 `gorm:"default:null"`
	EndedAt   *int64   `gorm:"default:null"`
	ID        string   `gorm:"primaryKey"`
	Note      string   `gorm:"default:''"`
	Seconds   *int64   `gorm:"default:null"`
	StartedAt int64    `gorm:"not null;index:idx_time_entries_started_at"`
}

// TableName specifies the table name for GORM
func (TimeEntryModel) TableName() string { return "time_entries" }

// ImageMetaModel is the GORM model for image sidecar metadata
type ImageMetaModel struct {
	Alt       string `gorm:"default:''"`
	Key       string `gorm:"primaryKey;column:key"`
	Tags      string `gorm:"not null;default:'[]'"` // JSON array
	Title     string `gorm:"default:''"`
	UpdatedAt int64  `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (ImageMetaModel) TableName() string { return "image_meta" }
