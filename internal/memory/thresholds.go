package memory

import (
	"errors"
	"fmt"
)

// Thresholds configures when conversations are summarized and when the
// aggregate memory is globally compacted.
type Thresholds struct {
	// SingleConversationTokenLimit triggers per-conversation summarization
	// when an individual past conversation exceeds it.
	SingleConversationTokenLimit int

	// SingleConversationMessageLimit is the alternative per-conversation
	// trigger, OR'd with the token limit.
	SingleConversationMessageLimit int

	// SingleSummaryTargetTokens is the requested length of a
	// per-conversation summary.
	SingleSummaryTargetTokens int

	// TotalMemoryTokenLimit triggers global compaction when the aggregate
	// across all candidates exceeds it.
	TotalMemoryTokenLimit int

	// TotalMemorySummaryTargetTokens is the requested length of the
	// comprehensive cross-conversation summary.
	TotalMemorySummaryTargetTokens int

	// RecentWindowCount is the number of most-recent past conversations
	// exempted from comprehensive compaction.
	RecentWindowCount int

	// LookbackDays bounds how far back candidate conversations are
	// retrieved.
	LookbackDays int

	// MaxCandidates caps the number of past conversations retrieved.
	MaxCandidates int
}

// DefaultThresholds mirrors the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SingleConversationTokenLimit:   2000,
		SingleConversationMessageLimit: 30,
		SingleSummaryTargetTokens:      500,
		TotalMemoryTokenLimit:          8000,
		TotalMemorySummaryTargetTokens: 2000,
		RecentWindowCount:              2,
		LookbackDays:                   30,
		MaxCandidates:                  10,
	}
}

// Validate fails fast on configurations that cannot gate anything sensibly.
func (t Thresholds) Validate() error {
	var errs []error
	if t.SingleConversationTokenLimit <= 0 {
		errs = append(errs, fmt.Errorf("single conversation token limit must be positive, got %d", t.SingleConversationTokenLimit))
	}
	if t.SingleConversationMessageLimit <= 0 {
		errs = append(errs, fmt.Errorf("single conversation message limit must be positive, got %d", t.SingleConversationMessageLimit))
	}
	if t.SingleSummaryTargetTokens <= 0 {
		errs = append(errs, fmt.Errorf("single summary target tokens must be positive, got %d", t.SingleSummaryTargetTokens))
	}
	if t.TotalMemoryTokenLimit <= 0 {
		errs = append(errs, fmt.Errorf("total memory token limit must be positive, got %d", t.TotalMemoryTokenLimit))
	}
	if t.TotalMemorySummaryTargetTokens <= 0 {
		errs = append(errs, fmt.Errorf("total memory summary target tokens must be positive, got %d", t.TotalMemorySummaryTargetTokens))
	}
	if t.RecentWindowCount < 0 {
		errs = append(errs, fmt.Errorf("recent window count must not be negative, got %d", t.RecentWindowCount))
	}
	if t.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("lookback days must be positive, got %d", t.LookbackDays))
	}
	if t.MaxCandidates <= 0 {
		errs = append(errs, fmt.Errorf("max candidates must be positive, got %d", t.MaxCandidates))
	}
	return errors.Join(errs...)
}
