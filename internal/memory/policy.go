package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/counsel-ai/memory-engine/internal/model"
	"github.com/counsel-ai/memory-engine/pkg/logger"
	"github.com/counsel-ai/memory-engine/pkg/metrics"
)

// PlanKind distinguishes the two compaction outcomes.
type PlanKind int

const (
	// PlanPassThrough emits every candidate's current representation.
	PlanPassThrough PlanKind = iota

	// PlanGlobalCompaction emits the recent window verbatim followed by a
	// single comprehensive overview of everything older.
	PlanGlobalCompaction
)

// String implements fmt.Stringer for metrics labels.
func (k PlanKind) String() string {
	if k == PlanGlobalCompaction {
		return "global_compaction"
	}
	return "pass_through"
}

// MemoryBlock is one labeled entry in the assembled memory blob.
type MemoryBlock struct {
	RecordID   string
	Label      string
	Title      string
	Text       string
	Summarized bool
}

// SummaryUpdate is a per-record summary produced during normalization,
// destined for write-back through the store adapter.
type SummaryUpdate struct {
	OwnerID    string
	RecordID   string
	Summary    string
	TokenCount int
}

// MemoryPlan is the policy's decision for one assembly request.
//
// Kind selects the emission path: pass-through plans carry every candidate
// in Blocks; global-compaction plans carry only the recent window in Blocks
// plus the synthetic Overview, which always follows the recent entries in
// emission order. The overview is never persisted; Updates holds only the
// per-record summaries from normalization.
type MemoryPlan struct {
	Kind         PlanKind
	Blocks       []MemoryBlock
	Overview     *MemoryBlock
	Updates      []SummaryUpdate
	TotalTokens  int
	Degraded     bool
	GatewayCalls int
}

// Policy is the memory compaction decision engine.
type Policy struct {
	thresholds Thresholds
	summarizer Summarizer
	logger     *logger.Logger
}

// NewPolicy creates a compaction policy. Thresholds are validated here so
// misconfiguration fails at construction, not mid-request.
func NewPolicy(t Thresholds, s Summarizer, log *logger.Logger) (*Policy, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid memory thresholds: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	return &Policy{
		thresholds: t,
		summarizer: s,
		logger:     log,
	}, nil
}

// Thresholds returns the configured thresholds.
func (p *Policy) Thresholds() Thresholds {
	return p.thresholds
}

// BuildPlan produces a memory plan for the given candidates. Candidates
// must already be filtered to the owner, exclude the current session, and
// be ordered most-recent-first. The records are mutated in place by the
// normalization step; corresponding write-backs are collected in Updates.
//
// BuildPlan never fails: summarizer degradation flows into the plan as
// degraded (truncated) text and a Degraded flag.
func (p *Policy) BuildPlan(ctx context.Context, candidates []*model.ConversationRecord) MemoryPlan {
	plan := MemoryPlan{Kind: PlanPassThrough}
	if len(candidates) == 0 {
		return plan
	}

	p.normalize(ctx, candidates, &plan)

	total := 0
	for _, rec := range candidates {
		total += RecordTokens(rec)
	}
	plan.TotalTokens = total

	window := p.thresholds.RecentWindowCount
	if total <= p.thresholds.TotalMemoryTokenLimit || len(candidates) <= window {
		plan.Blocks = make([]MemoryBlock, 0, len(candidates))
		for _, rec := range candidates {
			plan.Blocks = append(plan.Blocks, recordBlock(rec))
		}
		metrics.CompactionRuns.WithLabelValues(plan.Kind.String()).Inc()
		return plan
	}

	plan.Kind = PlanGlobalCompaction
	recent, older := candidates[:window], candidates[window:]

	plan.Blocks = make([]MemoryBlock, 0, window)
	for _, rec := range recent {
		plan.Blocks = append(plan.Blocks, recordBlock(rec))
	}
	plan.Overview = p.compactOlder(ctx, older, &plan)

	metrics.CompactionRuns.WithLabelValues(plan.Kind.String()).Inc()
	return plan
}

// normalize applies the per-record thresholds. A record already summarized
// is never re-summarized; its cached summary and token count are reused.
func (p *Policy) normalize(ctx context.Context, candidates []*model.ConversationRecord, plan *MemoryPlan) {
	for _, rec := range candidates {
		if rec.IsSummarized {
			continue
		}
		if RecordTokens(rec) <= p.thresholds.SingleConversationTokenLimit &&
			len(rec.Messages) <= p.thresholds.SingleConversationMessageLimit {
			continue
		}

		res, err := p.summarizer.Summarize(ctx, SummarizeRequest{
			Text:         rec.RenderTranscript(),
			TargetTokens: p.thresholds.SingleSummaryTargetTokens,
			Mode:         ModePerConversation,
		})
		plan.GatewayCalls++
		if err != nil {
			// Contract violation from our own request; leave the record raw.
			p.logger.Error("per-conversation summarization rejected",
				zap.String("record_id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		if res.Text == "" {
			continue
		}

		rec.IsSummarized = true
		rec.Summary = res.Text
		rec.TokenCount = EstimateTokens(res.Text)
		plan.Degraded = plan.Degraded || res.Degraded
		plan.Updates = append(plan.Updates, SummaryUpdate{
			OwnerID:    rec.OwnerID,
			RecordID:   rec.ID,
			Summary:    rec.Summary,
			TokenCount: rec.TokenCount,
		})
	}
}

// compactOlder concatenates the older records' current representations and
// asks for one comprehensive overview. The result lives only in the plan;
// it is intentionally not attributed to (or cached on) any single record,
// so repeat calls recompute it.
func (p *Policy) compactOlder(ctx context.Context, older []*model.ConversationRecord, plan *MemoryPlan) *MemoryBlock {
	var sb strings.Builder
	for i, rec := range older {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(recordLabel(rec))
		sb.WriteString("]\n")
		sb.WriteString(rec.Representation())
	}

	res, err := p.summarizer.Summarize(ctx, SummarizeRequest{
		Text:         sb.String(),
		TargetTokens: p.thresholds.TotalMemorySummaryTargetTokens,
		Mode:         ModeComprehensive,
	})
	plan.GatewayCalls++
	if err != nil {
		// Should not happen with validated thresholds; degrade rather
		// than fail the request.
		p.logger.Error("comprehensive summarization rejected", zap.Error(err))
		res = SummaryResult{Text: sb.String(), Degraded: true}
	}
	plan.Degraded = plan.Degraded || res.Degraded

	oldest, _ := older[len(older)-1].DateRange()
	_, newest := older[0].DateRange()
	return &MemoryBlock{
		Label:      spanLabel(oldest, newest),
		Title:      "Earlier history",
		Text:       res.Text,
		Summarized: true,
	}
}

// Format renders a plan into the final memory blob. The two plan kinds are
// handled exhaustively; an empty plan renders as an empty string.
func Format(plan MemoryPlan) string {
	var blocks []MemoryBlock
	switch plan.Kind {
	case PlanPassThrough:
		blocks = plan.Blocks
	case PlanGlobalCompaction:
		blocks = append(blocks, plan.Blocks...)
		if plan.Overview != nil {
			blocks = append(blocks, *plan.Overview)
		}
	}
	if len(blocks) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(b.Label)
		sb.WriteString("] ")
		sb.WriteString(b.Title)
		sb.WriteString("\n")
		sb.WriteString(b.Text)
	}
	return sb.String()
}

func recordBlock(rec *model.ConversationRecord) MemoryBlock {
	title := "Past conversation"
	if rec.IsSummarized {
		title = "Conversation summary"
	}
	return MemoryBlock{
		RecordID:   rec.ID,
		Label:      recordLabel(rec),
		Title:      title,
		Text:       rec.Representation(),
		Summarized: rec.IsSummarized,
	}
}

func recordLabel(rec *model.ConversationRecord) string {
	start, end := rec.DateRange()
	return spanLabel(start, end)
}

func spanLabel(start, end time.Time) string {
	const day = "2006-01-02"
	if start.Format(day) == end.Format(day) {
		return start.Format(day)
	}
	return start.Format(day) + " to " + end.Format(day)
}
