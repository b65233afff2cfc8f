package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"buildboard/internal/domain"
	"buildboard/internal/logging"
	"buildboard/internal/ports"
)

// SessionService handles agent-session lifecycle: creation, listing,
// feature-list enrichment, and the run trigger.
type SessionService struct {
	sessions ports.SessionRepository
	blobs    ports.BlobStore
	now      func() int64
}

// NewSessionService creates a new SessionService
func NewSessionService(sessions ports.SessionRepository, blobs ports.BlobStore) *SessionService {
	return &SessionService{
		sessions: sessions,
		blobs:    blobs,
		now:      func() int64 { return time.Now().Unix() },
	}
}

// featureListKey is the blob key owning a session's feature list
func featureListKey(sessionID string) string { return sessionID }

// CreateSession persists a new session with status=initializing and returns
// its id. A non-empty feature list is written to the blob store under the
// session id; that write is best-effort and not transactional with the row.
func (s *SessionService) CreateSession(ctx context.Context, params CreateSessionParams) (string, error) {
	if strings.TrimSpace(params.ProjectName) == "" {
		return "", fmt.Errorf("%w: project_name is required", domain.ErrValidation)
	}

	now := s.now()
	session := domain.Session{
		ID:            uuid.New().String(),
		ProjectName:   params.ProjectName,
		Status:        domain.StatusInitializing,
		AppSpec:       params.AppSpec,
		FeaturesTotal: len(params.FeatureList),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}

	if len(params.FeatureList) > 0 {
		data, err := json.Marshal(params.FeatureList)
		if err == nil {
			err = s.blobs.Put(ctx, featureListKey(session.ID), data)
		}
		if err != nil {
			logging.Logger.Warn("failed to store feature list",
				"session_id", session.ID,
				"error", err)
		}
	}

	logging.Logger.Info("session created",
		"session_id", session.ID,
		"project_name", session.ProjectName,
		"features_total", session.FeaturesTotal)

	return session.ID, nil
}

// ListSessions returns all sessions, newest first
func (s *SessionService) ListSessions(ctx context.Context) ([]domain.Session, error) {
	return s.sessions.List(ctx)
}

// GetSession returns the session enriched with its feature list. Blob fetch
// or parse failures degrade to a nil feature list instead of failing the read.
func (s *SessionService) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.blobs.Get(ctx, featureListKey(id))
	if err != nil {
		logging.Logger.Debug("feature list unavailable", "session_id", id, "error", err)
		return session, nil
	}

	var featureList []string
	if err := json.Unmarshal(data, &featureList); err != nil {
		logging.Logger.Warn("feature list blob is corrupt", "session_id", id, "error", err)
		return session, nil
	}

	session.FeatureList = featureList
	return session, nil
}

// RunSession flips the session to coding and refreshes updated_at. It is
// idempotent when the session is already coding and performs no build work
// itself; completed/error remain unreachable from here.
func (s *SessionService) RunSession(ctx context.Context, id string) error {
	if err := s.sessions.UpdateStatus(ctx, id, domain.StatusCoding, s.now()); err != nil {
		return err
	}

	logging.Logger.Info("session run triggered", "session_id", id)
	return nil
}
