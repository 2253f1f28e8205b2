package memory

import "context"

// SummarizeMode selects the structured-output schema for a summarization
// call.
type SummarizeMode string

const (
	// ModePerConversation compresses a single oversized conversation.
	ModePerConversation SummarizeMode = "per_conversation"

	// ModeComprehensive compresses many older conversations into one
	// longitudinal overview.
	ModeComprehensive SummarizeMode = "comprehensive"

	// ModeContinuity connects past summaries to a current query.
	ModeContinuity SummarizeMode = "continuity"
)

// SummarizeRequest is a single summarization call.
type SummarizeRequest struct {
	Text         string
	TargetTokens int
	Mode         SummarizeMode

	// Query carries the current user query for ModeContinuity.
	Query string
}

// SummaryResult is the outcome of a summarization call. Degraded marks
// results produced by the truncation fallback rather than the external
// text-generation call.
type SummaryResult struct {
	Text     string
	Degraded bool
}

// Summarizer produces compressed representations of conversation text.
// Implementations convert ordinary failures (timeouts, provider errors)
// into degraded results; an error return signals a contract violation.
type Summarizer interface {
	Summarize(ctx context.Context, req SummarizeRequest) (SummaryResult, error)
}
