package memory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counsel-ai/memory-engine/internal/model"
	"github.com/counsel-ai/memory-engine/pkg/logger"
)

// fakeSummarizer records every request and answers with a canned summary.
type fakeSummarizer struct {
	calls    []SummarizeRequest
	degraded bool
	text     string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req SummarizeRequest) (SummaryResult, error) {
	f.calls = append(f.calls, req)
	text := f.text
	if text == "" {
		text = fmt.Sprintf("summary of %d chars", len(req.Text))
	}
	return SummaryResult{Text: text, Degraded: f.degraded}, nil
}

func (f *fakeSummarizer) callsByMode(mode SummarizeMode) []SummarizeRequest {
	var out []SummarizeRequest
	for _, c := range f.calls {
		if c.Mode == mode {
			out = append(out, c)
		}
	}
	return out
}

func testRecord(id string, lastActive time.Time, tokens int, messages ...string) *model.ConversationRecord {
	rec := &model.ConversationRecord{
		ID:           id,
		OwnerID:      "owner-1",
		SessionID:    "session-" + id,
		CreatedAt:    lastActive.Add(-time.Hour),
		LastActiveAt: lastActive,
		TokenCount:   tokens,
	}
	for i, content := range messages {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		rec.Messages = append(rec.Messages, model.Message{
			Role:      role,
			Content:   content,
			CreatedAt: lastActive.Add(time.Duration(i) * time.Minute),
		})
	}
	return rec
}

func newTestPolicy(t *testing.T, th Thresholds, fake *fakeSummarizer) *Policy {
	t.Helper()
	p, err := NewPolicy(th, fake, logger.NewNop())
	require.NoError(t, err)
	return p
}

func TestNewPolicyRejectsInvalidThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.TotalMemoryTokenLimit = -1

	_, err := NewPolicy(th, &fakeSummarizer{}, logger.NewNop())
	assert.Error(t, err)
}

func TestBuildPlanEmptyCandidates(t *testing.T) {
	fake := &fakeSummarizer{}
	p := newTestPolicy(t, DefaultThresholds(), fake)

	plan := p.BuildPlan(context.Background(), nil)

	assert.Equal(t, PlanPassThrough, plan.Kind)
	assert.Empty(t, plan.Blocks)
	assert.Nil(t, plan.Overview)
	assert.Empty(t, fake.calls)
	assert.Equal(t, "", Format(plan))
}

func TestBuildPlanUnderThresholdsIssuesNoCalls(t *testing.T) {
	fake := &fakeSummarizer{}
	p := newTestPolicy(t, DefaultThresholds(), fake)

	now := time.Now()
	candidates := []*model.ConversationRecord{
		testRecord("a", now, 500, "hello", "hi there"),
		testRecord("b", now.Add(-time.Hour), 600, "question", "answer"),
	}

	plan := p.BuildPlan(context.Background(), candidates)

	assert.Equal(t, PlanPassThrough, plan.Kind)
	assert.Len(t, plan.Blocks, 2)
	assert.Empty(t, fake.calls, "no gateway calls expected under thresholds")
	assert.Empty(t, plan.Updates)
	assert.False(t, plan.Degraded)
}

func TestBuildPlanSummarizesOversizedRecord(t *testing.T) {
	fake := &fakeSummarizer{text: "Chief Issue: short summary"}
	p := newTestPolicy(t, DefaultThresholds(), fake)

	big := testRecord("big", time.Now(), 0, strings.Repeat("x", 12000))
	plan := p.BuildPlan(context.Background(), []*model.ConversationRecord{big})

	require.Len(t, fake.calls, 1)
	assert.Equal(t, ModePerConversation, fake.calls[0].Mode)
	assert.Equal(t, 500, fake.calls[0].TargetTokens)

	assert.True(t, big.IsSummarized)
	assert.Equal(t, "Chief Issue: short summary", big.Summary)
	assert.Equal(t, EstimateTokens(big.Summary), big.TokenCount)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "big", plan.Updates[0].RecordID)
	assert.Equal(t, big.Summary, plan.Updates[0].Summary)
}

func TestBuildPlanMessageCountTrigger(t *testing.T) {
	fake := &fakeSummarizer{text: "summary"}
	p := newTestPolicy(t, DefaultThresholds(), fake)

	msgs := make([]string, 31)
	for i := range msgs {
		msgs[i] = "short"
	}
	rec := testRecord("chatty", time.Now(), 0, msgs...)

	p.BuildPlan(context.Background(), []*model.ConversationRecord{rec})

	require.Len(t, fake.calls, 1)
	assert.True(t, rec.IsSummarized)
}

func TestBuildPlanAlreadySummarizedIsNotResummarized(t *testing.T) {
	fake := &fakeSummarizer{}
	p := newTestPolicy(t, DefaultThresholds(), fake)

	rec := testRecord("done", time.Now(), 0, strings.Repeat("x", 12000))
	rec.IsSummarized = true
	rec.Summary = "cached summary"
	rec.TokenCount = EstimateTokens(rec.Summary)

	plan := p.BuildPlan(context.Background(), []*model.ConversationRecord{rec})

	assert.Empty(t, fake.calls)
	assert.Empty(t, plan.Updates)
	assert.Equal(t, "cached summary", rec.Summary)
}

// The scenario from the design review: 10 past conversations of 1200 tokens
// each, all individually under the per-record limits, with a recent window
// of 2. Expect no per-conversation calls, one comprehensive call over the
// oldest 8, and a blob of 2 verbatim blocks plus 1 overview.
func TestBuildPlanGlobalCompactionScenario(t *testing.T) {
	fake := &fakeSummarizer{text: "History Overview: long past"}
	th := Thresholds{
		SingleConversationTokenLimit:   2000,
		SingleConversationMessageLimit: 30,
		SingleSummaryTargetTokens:      500,
		TotalMemoryTokenLimit:          8000,
		TotalMemorySummaryTargetTokens: 2000,
		RecentWindowCount:              2,
		LookbackDays:                   30,
		MaxCandidates:                  10,
	}
	p := newTestPolicy(t, th, fake)

	now := time.Now()
	var candidates []*model.ConversationRecord
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("conv-%d", i)
		candidates = append(candidates, testRecord(id, now.Add(-time.Duration(i)*24*time.Hour), 1200, "topic "+id, "advice "+id))
	}

	plan := p.BuildPlan(context.Background(), candidates)

	assert.Empty(t, fake.callsByMode(ModePerConversation))
	comprehensive := fake.callsByMode(ModeComprehensive)
	require.Len(t, comprehensive, 1)
	assert.Equal(t, 2000, comprehensive[0].TargetTokens)

	// The comprehensive input covers the oldest 8, not the recent 2.
	for i := 2; i < 10; i++ {
		assert.Contains(t, comprehensive[0].Text, fmt.Sprintf("topic conv-%d", i))
	}
	assert.NotContains(t, comprehensive[0].Text, "topic conv-0")
	assert.NotContains(t, comprehensive[0].Text, "topic conv-1")

	assert.Equal(t, PlanGlobalCompaction, plan.Kind)
	require.Len(t, plan.Blocks, 2)
	require.NotNil(t, plan.Overview)
	assert.Equal(t, 12000, plan.TotalTokens)
	assert.Empty(t, plan.Updates, "overview is never written back")
}

func TestFormatOrderingRecentBeforeOverview(t *testing.T) {
	fake := &fakeSummarizer{text: "History Overview: the distant past"}
	th := DefaultThresholds()
	p := newTestPolicy(t, th, fake)

	now := time.Now()
	var candidates []*model.ConversationRecord
	for i := 0; i < 5; i++ {
		candidates = append(candidates, testRecord(fmt.Sprintf("r%d", i), now.Add(-time.Duration(i)*time.Hour), 3000))
	}
	// All token counts cached above the per-record limit would trigger
	// normalization, so mark them summarized with compact summaries.
	for _, rec := range candidates {
		rec.IsSummarized = true
		rec.Summary = "summary for " + rec.ID
		rec.TokenCount = 3000
	}

	plan := p.BuildPlan(context.Background(), candidates)
	require.Equal(t, PlanGlobalCompaction, plan.Kind)

	blob := Format(plan)
	require.NotEmpty(t, blob)

	recentIdx := strings.Index(blob, "summary for r0")
	overviewIdx := strings.Index(blob, "History Overview: the distant past")
	require.GreaterOrEqual(t, recentIdx, 0)
	require.GreaterOrEqual(t, overviewIdx, 0)
	assert.Less(t, recentIdx, overviewIdx, "recent blocks must precede the overview")

	assert.NotContains(t, blob, "summary for r3", "older records only appear via the overview")
}

func TestBuildPlanDegradedPropagates(t *testing.T) {
	fake := &fakeSummarizer{degraded: true, text: "truncated text"}
	p := newTestPolicy(t, DefaultThresholds(), fake)

	big := testRecord("big", time.Now(), 0, strings.Repeat("y", 12000))
	plan := p.BuildPlan(context.Background(), []*model.ConversationRecord{big})

	assert.True(t, plan.Degraded)
	assert.True(t, big.IsSummarized, "degraded summaries are still cached")
	assert.NotEmpty(t, Format(plan))
}

func TestBuildPlanRecentWindowCoversAllCandidates(t *testing.T) {
	fake := &fakeSummarizer{}
	th := DefaultThresholds()
	th.RecentWindowCount = 5
	p := newTestPolicy(t, th, fake)

	now := time.Now()
	candidates := []*model.ConversationRecord{
		testRecord("a", now, 5000),
		testRecord("b", now.Add(-time.Hour), 5000),
	}
	for _, rec := range candidates {
		rec.IsSummarized = true
		rec.Summary = "s"
	}
	// Aggregate exceeds the limit but there is nothing older than the
	// window to compact.
	plan := p.BuildPlan(context.Background(), candidates)

	assert.Equal(t, PlanPassThrough, plan.Kind)
	assert.Empty(t, fake.callsByMode(ModeComprehensive))
}

func TestFormatLabels(t *testing.T) {
	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	rec := testRecord("x", day, 100, "hello", "hi")
	rec.CreatedAt = day.Add(-30 * time.Minute)

	block := recordBlock(rec)
	assert.Equal(t, "2024-03-10", block.Label)

	rec.CreatedAt = day.Add(-48 * time.Hour)
	block = recordBlock(rec)
	assert.Equal(t, "2024-03-08 to 2024-03-10", block.Label)
}
