package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counsel-ai/memory-engine/internal/model"
)

func record(id, owner, session string, lastActive time.Time) *model.ConversationRecord {
	return &model.ConversationRecord{
		ID:           id,
		OwnerID:      owner,
		SessionID:    session,
		CreatedAt:    lastActive.Add(-time.Hour),
		LastActiveAt: lastActive,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "hello from " + id, CreatedAt: lastActive},
		},
	}
}

func TestLoadCandidatesFilterOrderLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Now()

	require.NoError(t, s.PutRecord(ctx, record("a", "o1", "s-a", now.Add(-3*time.Hour))))
	require.NoError(t, s.PutRecord(ctx, record("b", "o1", "s-b", now.Add(-1*time.Hour))))
	require.NoError(t, s.PutRecord(ctx, record("c", "o1", "s-c", now.Add(-2*time.Hour))))
	require.NoError(t, s.PutRecord(ctx, record("cur", "o1", "current", now)))
	require.NoError(t, s.PutRecord(ctx, record("other", "o2", "s-x", now)))
	require.NoError(t, s.PutRecord(ctx, record("old", "o1", "s-old", now.Add(-60*24*time.Hour))))

	got, err := s.LoadCandidates(ctx, "o1", "current", now.Add(-30*24*time.Hour), 10)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "a", got[2].ID)

	capped, err := s.LoadCandidates(ctx, "o1", "current", now.Add(-30*24*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
	assert.Equal(t, "b", capped[0].ID)
}

func TestLoadCandidatesReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Now()
	require.NoError(t, s.PutRecord(ctx, record("a", "o1", "s-a", now)))

	got, err := s.LoadCandidates(ctx, "o1", "other", now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Mutating the loaded copy must not leak into the store.
	got[0].IsSummarized = true
	got[0].Summary = "mutated"

	stored, err := s.GetRecord(ctx, "o1", "a")
	require.NoError(t, err)
	assert.False(t, stored.IsSummarized)
	assert.Empty(t, stored.Summary)
}

func TestSaveSummaryUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Now()
	require.NoError(t, s.PutRecord(ctx, record("a", "o1", "s-a", now)))

	require.NoError(t, s.SaveSummary(ctx, "o1", "a", "first summary", 10))
	require.NoError(t, s.SaveSummary(ctx, "o1", "a", "second summary", 12))

	got, err := s.GetRecord(ctx, "o1", "a")
	require.NoError(t, err)
	assert.True(t, got.IsSummarized)
	assert.Equal(t, "second summary", got.Summary, "last writer wins")
	assert.Equal(t, 12, got.TokenCount)

	assert.ErrorIs(t, s.SaveSummary(ctx, "o1", "missing", "s", 1), ErrNotFound)
}

func TestAppendMessageInvalidatesTokenCount(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Now()

	rec := record("a", "o1", "s-a", now)
	rec.TokenCount = 99
	require.NoError(t, s.PutRecord(ctx, rec))

	updated, err := s.AppendMessage(ctx, "o1", "a", model.Message{
		Role:      model.RoleAssistant,
		Content:   "a reply",
		CreatedAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	assert.Len(t, updated.Messages, 2)
	assert.Equal(t, 0, updated.TokenCount, "cached count cleared on append")
	assert.Equal(t, now.Add(time.Minute), updated.LastActiveAt)

	_, err = s.AppendMessage(ctx, "o1", "missing", model.Message{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRecordNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.GetRecord(context.Background(), "o1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
