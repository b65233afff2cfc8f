package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildboard/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestSessionCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	session := domain.Session{
		ID:            "sess-1",
		ProjectName:   "demo",
		Status:        domain.StatusInitializing,
		AppSpec:       "build a todo app",
		FeaturesTotal: 3,
		CreatedAt:     1000,
		UpdatedAt:     1000,
	}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.ProjectName)
	assert.Equal(t, domain.StatusInitializing, got.Status)
	assert.Equal(t, 3, got.FeaturesTotal)
	assert.Nil(t, got.FeatureList, "feature list comes from the blob store, not the row")
}

func TestSessionGetNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Create(ctx, domain.Session{
			ID:          id,
			ProjectName: id,
			Status:      domain.StatusInitializing,
			CreatedAt:   int64(1000 + i),
			UpdatedAt:   int64(1000 + i),
		}))
	}

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "old", sessions[2].ID)
}

func TestSessionUpdateStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.Session{
		ID:          "sess-1",
		ProjectName: "demo",
		Status:      domain.StatusInitializing,
		CreatedAt:   1000,
		UpdatedAt:   1000,
	}))

	require.NoError(t, repo.UpdateStatus(ctx, "sess-1", domain.StatusCoding, 2000))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCoding, got.Status)
	assert.Equal(t, int64(2000), got.UpdatedAt)

	// Re-applying the same transition is allowed
	require.NoError(t, repo.UpdateStatus(ctx, "sess-1", domain.StatusCoding, 3000))
}

func TestSessionUpdateStatusNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusCoding, 2000)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMessageAppendAssignsIncreasingSeq(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Same timestamp on purpose: seq must still order the replay
	first, err := repo.Append(ctx, domain.ChatMessage{
		ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "hi", Timestamp: 1000,
	})
	require.NoError(t, err)
	second, err := repo.Append(ctx, domain.ChatMessage{
		ID: "m2", SessionID: "s1", Role: domain.RoleAssistant, Content: "hello", Timestamp: 1000,
	})
	require.NoError(t, err)

	assert.Greater(t, second.Seq, first.Seq)

	messages, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID, "user message sorts before its reply")
	assert.Equal(t, "m2", messages[1].ID)
}

func TestMessageRecentNewestFirstBounded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e"}
	for i, id := range ids {
		_, err := repo.Append(ctx, domain.ChatMessage{
			ID: id, SessionID: "s1", Role: domain.RoleUser, Content: id, Timestamp: int64(1000 + i),
		})
		require.NoError(t, err)
	}

	recent, err := repo.Recent(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "e", recent[0].ID)
	assert.Equal(t, "c", recent[2].ID)
}

func TestMessageListScopedToSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, domain.ChatMessage{ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "hi", Timestamp: 1000})
	require.NoError(t, err)
	_, err = repo.Append(ctx, domain.ChatMessage{ID: "m2", SessionID: "s2", Role: domain.RoleUser, Content: "yo", Timestamp: 1000})
	require.NoError(t, err)

	messages, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
}

func TestTimeLedgerStartEntryIsAtomicallyExclusive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, created, err := repo.StartEntry(ctx, domain.TimeEntry{ID: "t1", StartedAt: 1000})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "t1", first.ID)

	// Second start returns the existing open entry without inserting
	second, created, err := repo.StartEntry(ctx, domain.TimeEntry{ID: "t2", StartedAt: 2000})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "t1", second.ID)

	entries, err := repo.StartedSince(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "exactly one open row")
}

func TestTimeLedgerUniqueOpenIndexBlocksDirectInsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.StartEntry(ctx, domain.TimeEntry{ID: "t1", StartedAt: 1000})
	require.NoError(t, err)

	// Bypass StartEntry's read to exercise the store-level invariant itself
	model := TimeEntryModel{ID: "t2", StartedAt: 2000}
	err = repo.DB().Create(&model).Error
	require.Error(t, err)
	assert.True(t, isUniqueConstraintErr(err), "expected a unique constraint violation, got %v", err)
}

func TestTimeLedgerCloseThenStartAgain(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.StartEntry(ctx, domain.TimeEntry{ID: "t1", StartedAt: 1000})
	require.NoError(t, err)
	require.NoError(t, repo.CloseEntry(ctx, "t1", 1005, 5, 5.0/3600*60))

	open, err := repo.Open(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)

	_, created, err := repo.StartEntry(ctx, domain.TimeEntry{ID: "t2", StartedAt: 2000})
	require.NoError(t, err)
	assert.True(t, created)

	entries, err := repo.StartedSince(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Seconds)
	assert.Equal(t, int64(5), *entries[0].Seconds)
	require.NotNil(t, entries[0].CostUSD)
}

func TestTimeLedgerStartedSinceFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.StartEntry(ctx, domain.TimeEntry{ID: "t1", StartedAt: 100})
	require.NoError(t, err)
	require.NoError(t, repo.CloseEntry(ctx, "t1", 200, 100, 1.0))
	_, _, err = repo.StartEntry(ctx, domain.TimeEntry{ID: "t2", StartedAt: 5000})
	require.NoError(t, err)

	entries, err := repo.StartedSince(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t2", entries[0].ID)
}

func TestTimeLedgerCloseEntryAlreadyClosed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.StartEntry(ctx, domain.TimeEntry{ID: "t1", StartedAt: 1000})
	require.NoError(t, err)
	require.NoError(t, repo.CloseEntry(ctx, "t1", 1005, 5, 5.0/3600*60))

	// A second close of the same row is a no-op and says so
	err = repo.CloseEntry(ctx, "t1", 1010, 10, 10.0/3600*60)
	assert.ErrorIs(t, err, domain.ErrEntryClosed)

	entry, err := repo.Entry(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, entry.Seconds)
	assert.Equal(t, int64(5), *entry.Seconds, "the first close's values are kept")
}

func TestImageMetaUpsertUpdatesNotDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, domain.ImageMeta{
		Key: "hero.png", Title: "Hero", Tags: []string{"home"}, UpdatedAt: 1000,
	}))
	require.NoError(t, repo.Upsert(ctx, domain.ImageMeta{
		Key: "hero.png", Title: "Hero v2", Alt: "hero banner", Tags: []string{"home", "banner"}, UpdatedAt: 2000,
	}))

	var count int64
	require.NoError(t, repo.DB().Model(&ImageMetaModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	metas, err := repo.GetByKeys(ctx, []string{"hero.png"})
	require.NoError(t, err)
	meta, ok := metas["hero.png"]
	require.True(t, ok)
	assert.Equal(t, "Hero v2", meta.Title)
	assert.Equal(t, "hero banner", meta.Alt)
	assert.Equal(t, []string{"home", "banner"}, meta.Tags)
	assert.GreaterOrEqual(t, meta.UpdatedAt, int64(1000))
}

func TestImageMetaGetByKeysBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, domain.ImageMeta{Key: "a.png", Title: "A", UpdatedAt: 1}))
	require.NoError(t, repo.Upsert(ctx, domain.ImageMeta{Key: "b.png", Title: "B", UpdatedAt: 1}))

	metas, err := repo.GetByKeys(ctx, []string{"a.png", "missing.png"})
	require.NoError(t, err)
	assert.Len(t, metas, 1)
	assert.Contains(t, metas, "a.png")
	assert.NotContains(t, metas, "missing.png")
}

func TestImageMetaGetByKeysEmpty(t *testing.T) {
	repo := newTestRepo(t)

	metas, err := repo.GetByKeys(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, Migrate(repo.DB()))
	require.NoError(t, Migrate(repo.DB()))
}

func TestIsUniqueConstraintErrOtherErrors(t *testing.T) {
	assert.False(t, isUniqueConstraintErr(errors.New("boom")))
	assert.False(t, isUniqueConstraintErr(nil))
}
