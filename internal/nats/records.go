package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/counsel-ai/memory-engine/internal/model"
	"github.com/counsel-ai/memory-engine/internal/store"
)

const (
	// BucketName is the KV bucket holding conversation records.
	BucketName = "conversation_records"

	// keySep joins owner and record id in KV keys: <owner>.<record>.
	keySep = "."
)

// RecordBucket is a JetStream KV backed store.RecordStore. Keys are
// partitioned by owner so candidate loading can list one owner's records.
// Writes are whole-record puts: the KV bucket's last write wins, which is
// exactly the convergent upsert SaveSummary requires.
type RecordBucket struct {
	client *Client
	kv     jetstream.KeyValue
}

// NewRecordBucket binds to the record bucket, creating it if missing.
func NewRecordBucket(ctx context.Context, client *Client) (*RecordBucket, error) {
	js := client.JetStream()

	kv, err := js.KeyValue(ctx, BucketName)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      BucketName,
			Description: "Conversation records and cached summaries",
			Storage:     jetstream.FileStorage,
			History:     1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open record bucket: %w", err)
	}

	return &RecordBucket{client: client, kv: kv}, nil
}

func recordKey(ownerID, recordID string) string {
	return ownerID + keySep + recordID
}

// LoadCandidates lists the owner's records, excluding the current session,
// filtered to the lookback window and ordered by last activity descending.
func (b *RecordBucket) LoadCandidates(ctx context.Context, ownerID, excludeSessionID string, since time.Time, limit int) ([]*model.ConversationRecord, error) {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list record keys: %w", err)
	}
	defer lister.Stop()

	prefix := ownerID + keySep
	var out []*model.ConversationRecord
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rec, err := b.get(ctx, key)
		if err != nil {
			// Skip records that vanish or fail to decode mid-listing.
			continue
		}
		if rec.SessionID == excludeSessionID || rec.LastActiveAt.Before(since) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActiveAt.After(out[j].LastActiveAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveSummary rewrites the engine-owned fields of a record. Concurrent
// writers for the same record converge on the last write.
func (b *RecordBucket) SaveSummary(ctx context.Context, ownerID, recordID, summary string, tokenCount int) error {
	key := recordKey(ownerID, recordID)
	rec, err := b.get(ctx, key)
	if err != nil {
		return err
	}

	rec.Summary = summary
	rec.IsSummarized = summary != ""
	rec.TokenCount = tokenCount
	return b.put(ctx, key, rec)
}

// PutRecord stores or replaces a record.
func (b *RecordBucket) PutRecord(ctx context.Context, rec *model.ConversationRecord) error {
	return b.put(ctx, recordKey(rec.OwnerID, rec.ID), rec)
}

// GetRecord fetches one record by owner and id.
func (b *RecordBucket) GetRecord(ctx context.Context, ownerID, recordID string) (*model.ConversationRecord, error) {
	return b.get(ctx, recordKey(ownerID, recordID))
}

// AppendMessage appends a message to a record and returns the updated
// record.
func (b *RecordBucket) AppendMessage(ctx context.Context, ownerID, recordID string, msg model.Message) (*model.ConversationRecord, error) {
	key := recordKey(ownerID, recordID)
	rec, err := b.get(ctx, key)
	if err != nil {
		return nil, err
	}

	rec.AppendMessage(msg)
	if err := b.put(ctx, key, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *RecordBucket) get(ctx context.Context, key string) (*model.ConversationRecord, error) {
	entry, err := b.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}

	var rec model.ConversationRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", key, err)
	}
	return &rec, nil
}

func (b *RecordBucket) put(ctx context.Context, key string, rec *model.ConversationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}
	if _, err := b.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to put record %s: %w", key, err)
	}
	return nil
}
