// Package memory implements the tiered conversational memory compaction
// engine: token estimation, the per-conversation and global compaction
// policy, and the manager facade consumed by the response pipeline.
package memory

import "github.com/counsel-ai/memory-engine/internal/model"

// charsPerToken is the ~4 chars/token heuristic. Good enough for threshold
// comparison, not billing-accurate.
const charsPerToken = 4

// messageOverheadTokens accounts for role markers and separators per message.
const messageOverheadTokens = 4

// EstimateTokens estimates the token count of arbitrary text. Deterministic,
// monotonic in text length, zero for empty input.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimateMessageTokens estimates total tokens across a message sequence,
// including a small fixed overhead per message.
func EstimateMessageTokens(messages []model.Message) int {
	total := 0
	for _, m := range messages {
		total += messageOverheadTokens + EstimateTokens(m.Content)
	}
	return total
}

// RecordTokens returns the record's current token count, recomputing the
// cached value when it is absent. Summarized records are measured against
// their summary; everything else against the raw messages.
func RecordTokens(rec *model.ConversationRecord) int {
	if rec.TokenCount > 0 {
		return rec.TokenCount
	}
	if rec.IsSummarized && rec.Summary != "" {
		return EstimateTokens(rec.Summary)
	}
	return EstimateMessageTokens(rec.Messages)
}
