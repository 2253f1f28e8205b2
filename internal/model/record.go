// Package model defines data structures for the memory engine.
package model

import (
	"strings"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single message within a conversation record.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationRecord is one past conversation belonging to an owner.
//
// Messages are append-only while the session is active and frozen once it
// ends. Summary is a derived, cached view written by the compaction engine;
// it never replaces Messages.
type ConversationRecord struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	SessionID    string    `json:"session_id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	// TokenCount is a cached estimate. Zero means not yet computed; callers
	// recompute lazily against Messages (or Summary once summarized).
	TokenCount int `json:"token_count"`

	IsSummarized bool   `json:"is_summarized"`
	Summary      string `json:"summary,omitempty"`
}

// AppendMessage adds a message and bumps LastActiveAt. The cached token
// count is invalidated so the next reader recomputes it.
func (r *ConversationRecord) AppendMessage(msg Message) {
	r.Messages = append(r.Messages, msg)
	r.LastActiveAt = msg.CreatedAt
	r.TokenCount = 0
}

// RenderTranscript renders the messages as plain text, one line per message,
// prefixed with the uppercased role. This is the representation fed to the
// summarizer and emitted for records that were never summarized.
func (r *ConversationRecord) RenderTranscript() string {
	var sb strings.Builder
	for i, msg := range r.Messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.ToUpper(string(msg.Role)))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
	}
	return sb.String()
}

// Representation returns the record's current textual form: the summary if
// the record has been summarized, otherwise the rendered transcript.
func (r *ConversationRecord) Representation() string {
	if r.IsSummarized && r.Summary != "" {
		return r.Summary
	}
	return r.RenderTranscript()
}

// DateRange returns the record's activity span for display labels.
func (r *ConversationRecord) DateRange() (time.Time, time.Time) {
	start := r.CreatedAt
	end := r.LastActiveAt
	if end.Before(start) {
		end = start
	}
	return start, end
}

// CreateRecordRequest is the request to open a new conversation record.
type CreateRecordRequest struct {
	SessionID string `json:"session_id"`
}

// AppendMessageRequest is the request to append a message to a record.
type AppendMessageRequest struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// MemoryResponse is the response for the assembled-memory endpoint.
type MemoryResponse struct {
	Memory   string `json:"memory"`
	Degraded bool   `json:"degraded,omitempty"`
}
