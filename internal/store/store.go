// Package store defines the conversation record store consumed by the
// memory engine, plus an in-process implementation for tests and local
// development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/counsel-ai/memory-engine/internal/model"
)

// ErrNotFound is returned when a record does not exist for the owner.
var ErrNotFound = errors.New("record not found")

// RecordStore is the persistence boundary for conversation records.
//
// LoadCandidates and SaveSummary are the engine-facing contract: candidates
// are the owner's past conversations excluding the current session, ordered
// by last activity descending; SaveSummary is a last-writer-wins upsert of
// the engine-owned fields (summary, is_summarized, cached token count).
// The remaining methods are the record plumbing used by the HTTP surface.
type RecordStore interface {
	LoadCandidates(ctx context.Context, ownerID, excludeSessionID string, since time.Time, limit int) ([]*model.ConversationRecord, error)
	SaveSummary(ctx context.Context, ownerID, recordID, summary string, tokenCount int) error

	PutRecord(ctx context.Context, rec *model.ConversationRecord) error
	GetRecord(ctx context.Context, ownerID, recordID string) (*model.ConversationRecord, error)
	AppendMessage(ctx context.Context, ownerID, recordID string, msg model.Message) (*model.ConversationRecord, error)
}
