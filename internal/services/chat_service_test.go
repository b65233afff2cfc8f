package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildboard/internal/adapters/blob"
	"buildboard/internal/adapters/storage"
	"buildboard/internal/domain"
	"buildboard/internal/ports"
)

// stubProvider is a scriptable chain element
type stubProvider struct {
	name       string
	configured bool
	reply      string
	err        error
	calls      int
	seen       []domain.ChatMessage
}

func (p *stubProvider) Name() string     { return p.name }
func (p *stubProvider) Configured() bool { return p.configured }

func (p *stubProvider) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	p.calls++
	p.seen = messages
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func newChatFixture(t *testing.T, chain ...ports.Provider) (*ChatService, *storage.SQLiteRepository, string) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	blobStore, err := blob.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	sessionSvc := NewSessionService(repo, blobStore)
	id, err := sessionSvc.CreateSession(context.Background(), CreateSessionParams{
		ProjectName: "demo",
		AppSpec:     "build a todo app",
	})
	require.NoError(t, err)

	return NewChatService(repo, repo, chain, time.Second), repo, id
}

func TestSendMessageRejectsEmptyMessage(t *testing.T) {
	svc, repo, sessionID := newChatFixture(t, &stubProvider{name: "p", configured: true, reply: "hi"})
	ctx := context.Background()

	for _, msg := range []string{"", "  "} {
		_, err := svc.SendMessage(ctx, sessionID, msg)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	messages, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendMessageUnknownSession(t *testing.T) {
	svc, _, _ := newChatFixture(t, &stubProvider{name: "p", configured: true, reply: "hi"})

	_, err := svc.SendMessage(context.Background(), "missing", "hello")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSendMessagePersistsBothTurns(t *testing.T) {
	provider := &stubProvider{name: "p", configured: true, reply: "hello there"}
	svc, repo, sessionID := newChatFixture(t, provider)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, sessionID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", result.Response)
	assert.NotEmpty(t, result.MessageID)

	messages, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, messages[1].Role)
	assert.Equal(t, "hello there", messages[1].Content)
	assert.Equal(t, result.MessageID, messages[1].ID)
}

func TestSendMessageAlternatingReplayAfterManyCalls(t *testing.T) {
	provider := &stubProvider{name: "p", configured: true, reply: "ack"}
	svc, repo, sessionID := newChatFixture(t, provider)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		_, err := svc.SendMessage(ctx, sessionID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	messages, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2*n)
	for i, m := range messages {
		if i%2 == 0 {
			assert.Equal(t, domain.RoleUser, m.Role, "position %d", i)
		} else {
			assert.Equal(t, domain.RoleAssistant, m.Role, "position %d", i)
		}
	}
}

func TestSendMessageFallsThroughToNextProvider(t *testing.T) {
	failing := &stubProvider{name: "edge", configured: true, err: errors.New("edge down")}
	backup := &stubProvider{name: "backup", configured: true, reply: "from backup"}
	svc, repo, sessionID := newChatFixture(t, failing, backup)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, sessionID, "hi")
	require.NoError(t, err, "provider failure must not surface")
	assert.Equal(t, "from backup", result.Response)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, backup.calls)

	messages, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2, "assistant reply persisted exactly once")
	assert.Equal(t, "from backup", messages[1].Content)
}

func TestSendMessageShortCircuitsOnFirstSuccess(t *testing.T) {
	first := &stubProvider{name: "edge", configured: true, reply: "from edge"}
	second := &stubProvider{name: "backup", configured: true, reply: "unused"}
	svc, _, sessionID := newChatFixture(t, first, second)

	result, err := svc.SendMessage(context.Background(), sessionID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "from edge", result.Response)
	assert.Equal(t, 0, second.calls)
}

func TestSendMessageSkipsUnconfiguredProviders(t *testing.T) {
	unconfigured := &stubProvider{name: "edge", configured: false, reply: "never"}
	configured := &stubProvider{name: "backup", configured: true, reply: "ok"}
	svc, _, sessionID := newChatFixture(t, unconfigured, configured)

	result, err := svc.SendMessage(context.Background(), sessionID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Response)
	assert.Equal(t, 0, unconfigured.calls)
}

func TestSendMessageAllProvidersFailUsesPlaceholder(t *testing.T) {
	a := &stubProvider{name: "a", configured: true, err: errors.New("down")}
	b := &stubProvider{name: "b", configured: true, err: errors.New("down")}
	c := &stubProvider{name: "c", configured: true, err: errors.New("down")}
	svc, repo, sessionID := newChatFixture(t, a, b, c)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, sessionID, "hi")
	require.NoError(t, err, "total chain failure still reports success")
	assert.Equal(t, PlaceholderReply, result.Response)

	messages, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, PlaceholderReply, messages[1].Content)
}

func TestSendMessageContextIsBounded(t *testing.T) {
	provider := &stubProvider{name: "p", configured: true, reply: "ack"}
	svc, _, sessionID := newChatFixture(t, provider)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := svc.SendMessage(ctx, sessionID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	// system prompt + up to contextWindow history turns + the new message
	assert.LessOrEqual(t, len(provider.seen), 1+contextWindow+1)

	last := provider.seen[len(provider.seen)-1]
	assert.Equal(t, domain.RoleUser, last.Role)
	assert.Equal(t, "message 14", last.Content)
}

func TestSendMessageIncludesAppSpecSystemPrompt(t *testing.T) {
	provider := &stubProvider{name: "p", configured: true, reply: "ack"}
	svc, _, sessionID := newChatFixture(t, provider)

	_, err := svc.SendMessage(context.Background(), sessionID, "hi")
	require.NoError(t, err)

	require.NotEmpty(t, provider.seen)
	assert.Equal(t, domain.RoleSystem, provider.seen[0].Role)
	assert.Contains(t, provider.seen[0].Content, "build a todo app")
}

func TestSendMessageContextIsChronological(t *testing.T) {
	provider := &stubProvider{name: "p", configured: true, reply: "ack"}
	svc, _, sessionID := newChatFixture(t, provider)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, sessionID, "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, sessionID, "second")
	require.NoError(t, err)

	var contents []string
	for _, m := range provider.seen {
		if m.Role != domain.RoleSystem {
			contents = append(contents, m.Content)
		}
	}
	assert.Equal(t, []string{"first", "ack", "second"}, contents)
}

func TestListMessagesUnknownSession(t *testing.T) {
	svc, _, _ := newChatFixture(t, &stubProvider{name: "p", configured: true, reply: "hi"})

	_, err := svc.ListMessages(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
