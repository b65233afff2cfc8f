package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"buildboard/internal/domain"
	"buildboard/internal/logging"
	"buildboard/internal/ports"
)

// SQLiteRepository implements the relational-store ports using GORM
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var (
	_ ports.SessionRepository    = (*SQLiteRepository)(nil)
	_ ports.MessageRepository    = (*SQLiteRepository)(nil)
	_ ports.TimeLedgerRepository = (*SQLiteRepository)(nil)
	_ ports.ImageMetaRepository  = (*SQLiteRepository)(nil)
)

// gormLogger wraps the buildboard logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("BUILDBOARD_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteRepository opens (creating if needed) the buildboard database
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for concurrent access
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	return &SQLiteRepository{db: db}, nil
}

// Migrate applies the schema. Safe to call repeatedly; /api/init re-runs it.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&AgentSessionModel{},
		&ChatMessageModel{},
		&TimeEntryModel{},
		&ImageMetaModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Partial unique index enforcing the single-open-timer invariant: every
	// open row indexes the same constant value, so at most one can exist.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_single_open
		ON time_entries ((1)) WHERE ended_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("failed to create single-open-timer index: %w", err)
	}

	return nil
}

// Ping verifies the underlying connection is usable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB exposes the underlying handle for migration re-runs.
func (r *SQLiteRepository) DB() *gorm.DB { return r.db }

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- Sessions ---

// Create implements SessionWriter.Create
func (r *SQLiteRepository) Create(ctx context.Context, session domain.Session) error {
	return withRetry(func() error {
		model := domainToSessionModel(session)
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	}, 3)
}

// Get implements SessionReader.Get
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var model AgentSessionModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	}, 3)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	session := sessionModelToDomain(model)
	return &session, nil
}

// List implements SessionReader.List, newest first
func (r *SQLiteRepository) List(ctx context.Context) ([]domain.Session, error) {
	var models []AgentSessionModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, len(models))
	for i, m := range models {
		sessions[i] = sessionModelToDomain(m)
	}
	return sessions, nil
}

// UpdateStatus implements SessionWriter.UpdateStatus
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, updatedAt int64) error {
	return withRetry(func() error {
		result := r.db.WithContext(ctx).Model(&AgentSessionModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":     string(status),
				"updated_at": updatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update session status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrSessionNotFound
		}
		return nil
	}, 3)
}

// --- Chat messages ---

// Append implements MessageRepository.Append; the store assigns Seq
func (r *SQLiteRepository) Append(ctx context.Context, message domain.ChatMessage) (*domain.ChatMessage, error) {
	model := domainToMessageModel(message)

	err := withRetry(func() error {
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
		return nil
	}, 3)
	if err != nil {
		return nil, err
	}

	stored := messageModelToDomain(model)
	return &stored, nil
}

// Recent implements MessageRepository.Recent, newest first
func (r *SQLiteRepository) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	var models []ChatMessageModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Where("session_id = ?", sessionID).
			Order("timestamp DESC, seq DESC").
			Limit(limit).
			Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, len(models))
	for i, m := range models {
		messages[i] = messageModelToDomain(m)
	}
	return messages, nil
}

// ListBySession implements MessageRepository.ListBySession in replay order
func (r *SQLiteRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	var models []ChatMessageModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Where("session_id = ?", sessionID).
			Order("timestamp ASC, seq ASC").
			Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, len(models))
	for i, m := range models {
		messages[i] = messageModelToDomain(m)
	}
	return messages, nil
}

// --- Time ledger ---

// Open implements TimeLedgerRepository.Open
func (r *SQLiteRepository) Open(ctx context.Context) (*domain.TimeEntry, error) {
	var model TimeEntryModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Where("ended_at IS NULL").First(&model).Error
	}, 3)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entry := timeEntryModelToDomain(model)
	return &entry, nil
}

// Entry implements TimeLedgerRepository.Entry
func (r *SQLiteRepository) Entry(ctx context.Context, id string) (*domain.TimeEntry, error) {
	var model TimeEntryModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	}, 3)
	if err != nil {
		return nil, err
	}

	entry := timeEntryModelToDomain(model)
	return &entry, nil
}

// StartEntry implements TimeLedgerRepository.StartEntry. The insert races
// against the partial unique index instead of trusting the prior read: a
// concurrent start loses the insert and is handed the winner's entry.
func (r *SQLiteRepository) StartEntry(ctx context.Context, entry domain.TimeEntry) (*domain.TimeEntry, bool, error) {
	existing, err := r.Open(ctx)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	model := domainToTimeEntryModel(entry)
	err = withRetry(func() error {
		return r.db.WithContext(ctx).Create(&model).Error
	}, 3)
	if err != nil {
		if isUniqueConstraintErr(err) {
			winner, openErr := r.Open(ctx)
			if openErr != nil {
				return nil, false, openErr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to start time entry: %w", err)
	}

	started := timeEntryModelToDomain(model)
	return &started, true, nil
}

// CloseEntry implements TimeLedgerRepository.CloseEntry
func (r *SQLiteRepository) CloseEntry(ctx context.Context, id string, endedAt, seconds int64, costUSD float64) error {
	return withRetry(func() error {
		result := r.db.WithContext(ctx).Model(&TimeEntryModel{}).
			Where("id = ? AND ended_at IS NULL", id).
			Updates(map[string]any{
				"ended_at": endedAt,
				"seconds":  seconds,
				"cost_usd": costUSD,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to close time entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrEntryClosed
		}
		return nil
	}, 3)
}

// StartedSince implements TimeLedgerRepository.StartedSince
func (r *SQLiteRepository) StartedSince(ctx context.Context, since int64) ([]domain.TimeEntry, error) {
	var models []TimeEntryModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).
			Where("started_at >= ?", since).
			Order("started_at ASC").
			Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.TimeEntry, len(models))
	for i, m := range models {
		entries[i] = timeEntryModelToDomain(m)
	}
	return entries, nil
}

// --- Image metadata ---

// Upsert implements ImageMetaRepository.Upsert
func (r *SQLiteRepository) Upsert(ctx context.Context, meta domain.ImageMeta) error {
	model, err := domainToImageMetaModel(meta)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	return withRetry(func() error {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "alt", "tags", "updated_at"}),
		}).Create(&model).Error
		if err != nil {
			return fmt.Errorf("failed to upsert image metadata: %w", err)
		}
		return nil
	}, 3)
}

// GetByKeys implements ImageMetaRepository.GetByKeys
func (r *SQLiteRepository) GetByKeys(ctx context.Context, keys []string) (map[string]domain.ImageMeta, error) {
	result := make(map[string]domain.ImageMeta, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	var models []ImageMetaModel
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Where("key IN ?", keys).Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}

	for _, m := range models {
		result[m.Key] = imageMetaModelToDomain(m)
	}
	return result, nil
}

// withRetry retries fn on transient sqlite busy/locked errors
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}

// isUniqueConstraintErr reports whether err is a sqlite unique violation
func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
