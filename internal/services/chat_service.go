package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"buildboard/internal/domain"
	"buildboard/internal/logging"
	"buildboard/internal/ports"
)

// contextWindow bounds how many prior messages are sent to a provider,
// regardless of conversation length.
const contextWindow = 10

// PlaceholderReply is persisted and returned when every provider in the
// chain fails. The call still reports success to the caller.
const PlaceholderReply = "I'm unable to reach any AI provider right now. Your message has been saved; please try again."

// ChatService orchestrates per-session conversations over an ordered
// provider fallback chain.
type ChatService struct {
	sessions       ports.SessionReader
	messages       ports.MessageRepository
	chain          []ports.Provider
	attemptTimeout time.Duration
	now            func() int64
}

// NewChatService creates a new ChatService. Providers are attempted in the
// given order; attemptTimeout bounds each attempt so one slow provider
// cannot block the whole chain.
func NewChatService(sessions ports.SessionReader, messages ports.MessageRepository, chain []ports.Provider, attemptTimeout time.Duration) *ChatService {
	return &ChatService{
		sessions:       sessions,
		messages:       messages,
		chain:          chain,
		attemptTimeout: attemptTimeout,
		now:            func() int64 { return time.Now().Unix() },
	}
}

// SendMessage persists the user message, asks the provider chain for a
// reply, persists the assistant message, and returns it. Provider failures
// fall through silently; a total failure yields the fixed placeholder and
// the call still succeeds.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, message string) (*SendMessageResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMessage := domain.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   message,
		Timestamp: s.now(),
	}

	// Persist the user turn and load prior context concurrently; the two
	// touch disjoint rows.
	var history []domain.ChatMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.messages.Append(gctx, userMessage)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.messages.Recent(gctx, sessionID, contextWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	promptContext := buildContext(session, history, userMessage)
	reply := s.complete(ctx, promptContext)

	assistantMessage := domain.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		Timestamp: s.now(),
	}
	if _, err := s.messages.Append(ctx, assistantMessage); err != nil {
		return nil, err
	}

	return &SendMessageResult{
		MessageID: assistantMessage.ID,
		Response:  reply,
	}, nil
}

// ListMessages returns the session's conversation in replay order
func (s *ChatService) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.messages.ListBySession(ctx, sessionID)
}

// complete folds the chain left to right, short-circuiting on the first
// success. Errors are logged, never surfaced.
func (s *ChatService) complete(ctx context.Context, messages []domain.ChatMessage) string {
	for _, provider := range s.chain {
		if !provider.Configured() {
			logging.Logger.Debug("provider not configured, skipping", "provider", provider.Name())
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		reply, err := provider.Complete(attemptCtx, messages)
		cancel()

		if err != nil {
			logging.Logger.Warn("provider attempt failed",
				"provider", provider.Name(),
				"error", err)
			continue
		}

		logging.Logger.Debug("provider answered", "provider", provider.Name())
		return reply
	}

	logging.Logger.Warn("all providers failed, using placeholder reply")
	return PlaceholderReply
}

// buildContext assembles the provider prompt: an optional system message
// derived from the session's app spec, the recent history reversed to
// chronological order, and the new user message. history arrives newest
// first and may already contain the user message if its insert won the race;
// the duplicate is dropped by id.
func buildContext(session *domain.Session, history []domain.ChatMessage, userMessage domain.ChatMessage) []domain.ChatMessage {
	var result []domain.ChatMessage

	if session.AppSpec != "" {
		result = append(result, domain.ChatMessage{
			Role:    domain.RoleSystem,
			Content: fmt.Sprintf("You are the build assistant for project %q. Project specification:\n\n%s", session.ProjectName, session.AppSpec),
		})
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ID == userMessage.ID {
			continue
		}
		result = append(result, history[i])
	}

	return append(result, userMessage)
}
