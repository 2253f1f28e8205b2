// Package service provides business logic for the record plumbing surface.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/counsel-ai/memory-engine/internal/model"
	"github.com/counsel-ai/memory-engine/internal/store"
	"github.com/counsel-ai/memory-engine/pkg/logger"
	"github.com/counsel-ai/memory-engine/pkg/metrics"
)

// RecordService handles conversation record operations. The memory engine
// only reads records and writes summaries; message appends come from the
// chat pipeline through this service.
type RecordService struct {
	store  store.RecordStore
	logger *logger.Logger
}

// NewRecordService creates a new record service.
func NewRecordService(st store.RecordStore, log *logger.Logger) *RecordService {
	return &RecordService{
		store:  st,
		logger: log,
	}
}

// Create opens a new conversation record for a session.
func (s *RecordService) Create(ctx context.Context, ownerID string, req *model.CreateRecordRequest) (*model.ConversationRecord, error) {
	now := time.Now()

	rec := &model.ConversationRecord{
		ID:           uuid.Must(uuid.NewV7()).String(),
		OwnerID:      ownerID,
		SessionID:    req.SessionID,
		CreatedAt:    now,
		LastActiveAt: now,
	}

	if err := s.store.PutRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store record: %w", err)
	}

	s.logger.Info("conversation record created",
		zap.String("record_id", rec.ID),
		zap.String("owner_id", ownerID),
		zap.String("session_id", req.SessionID),
	)
	metrics.RecordsTotal.WithLabelValues(ownerID).Inc()

	return rec, nil
}

// Get retrieves a record owned by the caller.
func (s *RecordService) Get(ctx context.Context, ownerID, recordID string) (*model.ConversationRecord, error) {
	return s.store.GetRecord(ctx, ownerID, recordID)
}

// Append adds a message to a record and returns the updated record.
func (s *RecordService) Append(ctx context.Context, ownerID, recordID string, req *model.AppendMessageRequest) (*model.ConversationRecord, error) {
	msg := model.Message{
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	rec, err := s.store.AppendMessage(ctx, ownerID, recordID, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return rec, nil
}
