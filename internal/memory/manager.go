package memory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/counsel-ai/memory-engine/internal/model"
	"github.com/counsel-ai/memory-engine/internal/store"
	"github.com/counsel-ai/memory-engine/pkg/logger"
	"github.com/counsel-ai/memory-engine/pkg/metrics"
)

// writeBackTimeout bounds each per-record summary write-back.
const writeBackTimeout = 5 * time.Second

// continuityTargetTokens sizes the continuity context blurb.
const continuityTargetTokens = 150

// Manager orchestrates candidate retrieval, the compaction policy, and
// summary write-back. It is the single entry point consumed by the response
// pipeline. All work is request-scoped; there is no shared mutable state
// between requests.
type Manager struct {
	store  store.RecordStore
	policy *Policy
	logger *logger.Logger
	now    func() time.Time
}

// NewManager creates a memory manager.
func NewManager(st store.RecordStore, policy *Policy, log *logger.Logger) (*Manager, error) {
	if st == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("compaction policy is required")
	}
	return &Manager{
		store:  st,
		policy: policy,
		logger: log,
		now:    time.Now,
	}, nil
}

// Assembly is the result of one memory assembly.
type Assembly struct {
	Memory       string
	Degraded     bool
	Plan         PlanKind
	GatewayCalls int
}

// Stats reports the memory state for an owner without side effects.
type Stats struct {
	CandidateCount  int        `json:"candidate_count"`
	SummarizedCount int        `json:"summarized_count"`
	TotalTokens     int        `json:"total_tokens"`
	Thresholds      Thresholds `json:"thresholds"`
}

// AssembleMemory returns the formatted memory blob for the owner, excluding
// the current session. This is the contract exposed to the response
// pipeline; the blob is inserted verbatim into the downstream prompt.
func (m *Manager) AssembleMemory(ctx context.Context, ownerID, currentSessionID string) (string, error) {
	asm, err := m.Assemble(ctx, ownerID, currentSessionID)
	if err != nil {
		return "", err
	}
	return asm.Memory, nil
}

// Assemble runs the full traversal: load candidates, build the compaction
// plan, write back per-record summaries, format the blob.
//
// Failures degrade rather than fail: a store load error yields empty
// memory, write-back errors are logged and skipped, and summarizer
// degradation surfaces only as the Degraded flag.
func (m *Manager) Assemble(ctx context.Context, ownerID, currentSessionID string) (*Assembly, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	candidates := m.loadCandidates(ctx, ownerID, currentSessionID)
	plan := m.policy.BuildPlan(ctx, candidates)
	m.writeBack(ctx, plan.Updates)

	blob := Format(plan)
	metrics.AssembledMemoryTokens.Observe(float64(EstimateTokens(blob)))

	return &Assembly{
		Memory:       blob,
		Degraded:     plan.Degraded,
		Plan:         plan.Kind,
		GatewayCalls: plan.GatewayCalls,
	}, nil
}

// MemoryStats is the read-only variant of the assembly traversal: no
// gateway calls, no writes.
func (m *Manager) MemoryStats(ctx context.Context, ownerID, currentSessionID string) (*Stats, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	candidates := m.loadCandidates(ctx, ownerID, currentSessionID)

	stats := &Stats{
		CandidateCount: len(candidates),
		Thresholds:     m.policy.Thresholds(),
	}
	for _, rec := range candidates {
		if rec.IsSummarized {
			stats.SummarizedCount++
		}
		stats.TotalTokens += RecordTokens(rec)
	}
	return stats, nil
}

// ContinuityContext asks the summarizer to connect the owner's past
// summaries to the current query. It degrades to an empty string; it never
// fails a chat turn.
func (m *Manager) ContinuityContext(ctx context.Context, ownerID, currentSessionID, query string) (string, error) {
	if ownerID == "" {
		return "", fmt.Errorf("owner id is required")
	}

	candidates := m.loadCandidates(ctx, ownerID, currentSessionID)
	var history []string
	for _, rec := range candidates {
		if rec.IsSummarized && rec.Summary != "" {
			history = append(history, rec.Summary)
		}
	}
	if len(history) == 0 {
		return "", nil
	}

	res, err := m.policy.summarizer.Summarize(ctx, SummarizeRequest{
		Text:         joinParagraphs(history),
		TargetTokens: continuityTargetTokens,
		Mode:         ModeContinuity,
		Query:        query,
	})
	if err != nil {
		m.logger.Error("continuity context rejected", zap.Error(err))
		return "", nil
	}
	return res.Text, nil
}

func (m *Manager) loadCandidates(ctx context.Context, ownerID, currentSessionID string) []*model.ConversationRecord {
	t := m.policy.Thresholds()
	since := m.now().AddDate(0, 0, -t.LookbackDays)

	candidates, err := m.store.LoadCandidates(ctx, ownerID, currentSessionID, since, t.MaxCandidates)
	if err != nil {
		// Degrade to empty memory rather than failing the chat turn.
		m.logger.Warn("candidate load failed, assembling empty memory",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
		return nil
	}
	return candidates
}

// writeBack persists per-record summaries produced during normalization.
// Each failure is logged and skipped; the upsert is last-writer-wins, so
// racing requests for the same owner converge.
func (m *Manager) writeBack(ctx context.Context, updates []SummaryUpdate) {
	for _, u := range updates {
		saveCtx, cancel := context.WithTimeout(ctx, writeBackTimeout)
		err := m.store.SaveSummary(saveCtx, u.OwnerID, u.RecordID, u.Summary, u.TokenCount)
		cancel()
		if err != nil {
			metrics.SummaryWriteBackFailures.Inc()
			m.logger.Warn("summary write-back failed",
				zap.String("record_id", u.RecordID),
				zap.Error(err),
			)
		}
	}
}

func joinParagraphs(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}
