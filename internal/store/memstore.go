package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/counsel-ai/memory-engine/internal/model"
)

// MemStore is a mutex-guarded in-memory RecordStore. Reads return copies so
// callers mutating candidates cannot bypass SaveSummary.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*model.ConversationRecord
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]*model.ConversationRecord),
	}
}

func key(ownerID, recordID string) string {
	return ownerID + "/" + recordID
}

func clone(rec *model.ConversationRecord) *model.ConversationRecord {
	cp := *rec
	cp.Messages = append([]model.Message(nil), rec.Messages...)
	return &cp
}

// LoadCandidates returns the owner's records excluding the given session,
// active since the cutoff, most recent first, capped at limit.
func (s *MemStore) LoadCandidates(ctx context.Context, ownerID, excludeSessionID string, since time.Time, limit int) ([]*model.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.ConversationRecord
	for _, rec := range s.records {
		if rec.OwnerID != ownerID || rec.SessionID == excludeSessionID {
			continue
		}
		if rec.LastActiveAt.Before(since) {
			continue
		}
		out = append(out, clone(rec))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActiveAt.After(out[j].LastActiveAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveSummary upserts the engine-owned summary fields, last writer wins.
func (s *MemStore) SaveSummary(ctx context.Context, ownerID, recordID, summary string, tokenCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key(ownerID, recordID)]
	if !ok {
		return ErrNotFound
	}
	rec.Summary = summary
	rec.IsSummarized = summary != ""
	rec.TokenCount = tokenCount
	return nil
}

// PutRecord stores or replaces a record.
func (s *MemStore) PutRecord(ctx context.Context, rec *model.ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key(rec.OwnerID, rec.ID)] = clone(rec)
	return nil
}

// GetRecord fetches one record by owner and id.
func (s *MemStore) GetRecord(ctx context.Context, ownerID, recordID string) (*model.ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key(ownerID, recordID)]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(rec), nil
}

// AppendMessage appends a message to a record and returns the updated copy.
func (s *MemStore) AppendMessage(ctx context.Context, ownerID, recordID string, msg model.Message) (*model.ConversationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key(ownerID, recordID)]
	if !ok {
		return nil, ErrNotFound
	}
	rec.AppendMessage(msg)
	return clone(rec), nil
}
