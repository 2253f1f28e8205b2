// Package summarizer wraps the external text-generation call behind a
// bounded, failure-tolerant gateway. Ordinary failures (timeouts, provider
// errors) never surface to callers; they are converted into degraded
// results built by truncating the input.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/counsel-ai/memory-engine/internal/llm"
	"github.com/counsel-ai/memory-engine/internal/memory"
	"github.com/counsel-ai/memory-engine/pkg/logger"
	"github.com/counsel-ai/memory-engine/pkg/metrics"
)

// approxCharsPerToken sizes the truncation fallback.
const approxCharsPerToken = 4

// truncationMarker is appended to fallback output so downstream consumers
// can tell a truncated tail from a real summary.
const truncationMarker = "\n[history truncated]"

// Config holds gateway configuration.
type Config struct {
	// Timeout bounds each external call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Model overrides the provider's default summarization model.
	Model string

	// Temperature for summarization calls.
	Temperature float64

	// Prompts supplies the per-mode system prompts. Zero value means
	// DefaultPrompts.
	Prompts PromptSet
}

// DefaultTimeout bounds a summarization call when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// Gateway is the failure-tolerant summarization client. A nil underlying
// LLM client is allowed; every call then takes the fallback path.
type Gateway struct {
	client  llm.Client
	cfg     Config
	logger  *logger.Logger
	prompts PromptSet
}

// New creates a summarizer gateway.
func New(client llm.Client, cfg Config, log *logger.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	prompts := cfg.Prompts
	if prompts == (PromptSet{}) {
		prompts = DefaultPrompts()
	}
	return &Gateway{
		client:  client,
		cfg:     cfg,
		logger:  log,
		prompts: prompts,
	}
}

// Summarize compresses the request text to roughly TargetTokens using the
// prompt schema selected by Mode. It returns an error only for contract
// violations; external failures yield a degraded result.
func (g *Gateway) Summarize(ctx context.Context, req memory.SummarizeRequest) (memory.SummaryResult, error) {
	if req.TargetTokens <= 0 {
		return memory.SummaryResult{}, fmt.Errorf("target tokens must be positive, got %d", req.TargetTokens)
	}
	system, user, err := g.renderPrompt(req)
	if err != nil {
		return memory.SummaryResult{}, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return memory.SummaryResult{}, nil
	}

	if g.client == nil {
		return g.fallback(req, nil), nil
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.client.Complete(callCtx, &llm.CompletionRequest{
		Model: g.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   req.TargetTokens * 2,
		Temperature: g.cfg.Temperature,
	})

	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordSummarizerCall(string(req.Mode), "degraded", elapsed.Seconds())
		return g.fallback(req, err), nil
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		metrics.RecordSummarizerCall(string(req.Mode), "degraded", elapsed.Seconds())
		return g.fallback(req, fmt.Errorf("empty completion from %s", g.client.Name())), nil
	}

	metrics.RecordSummarizerCall(string(req.Mode), "ok", elapsed.Seconds())
	return memory.SummaryResult{Text: text}, nil
}

func (g *Gateway) renderPrompt(req memory.SummarizeRequest) (system, user string, err error) {
	switch req.Mode {
	case memory.ModePerConversation:
		system = g.prompts.PerConversation
		user = fmt.Sprintf("Summarize this conversation (target ~%d tokens):\n\n%s\n\nProvide a structured summary following the format above.", req.TargetTokens, req.Text)
	case memory.ModeComprehensive:
		system = g.prompts.Comprehensive
		user = fmt.Sprintf("Create a comprehensive history summary from these past conversations (target ~%d tokens):\n\n%s\n\nProvide a structured longitudinal summary.", req.TargetTokens, req.Text)
	case memory.ModeContinuity:
		system = g.prompts.Continuity
		user = fmt.Sprintf("Client History:\n%s\n\nCurrent Query: %s\n\nProvide brief relevant context:", req.Text, req.Query)
	default:
		return "", "", fmt.Errorf("unknown summarize mode %q", req.Mode)
	}
	return system, user, nil
}

// fallback builds a degraded result by naive truncation of the input.
// Continuity context is optional downstream, so its fallback is empty.
func (g *Gateway) fallback(req memory.SummarizeRequest, cause error) memory.SummaryResult {
	if cause != nil && g.logger != nil {
		g.logger.Warn("summarization degraded to truncation",
			zap.String("mode", string(req.Mode)),
			zap.Error(cause),
		)
	}
	if req.Mode == memory.ModeContinuity {
		return memory.SummaryResult{Degraded: true}
	}
	return memory.SummaryResult{
		Text:     truncate(req.Text, req.TargetTokens),
		Degraded: true,
	}
}

func truncate(text string, targetTokens int) string {
	limit := targetTokens * approxCharsPerToken
	if len(text) <= limit {
		return text
	}
	// Cut on a rune boundary.
	cut := limit
	for cut > 0 && !utf8RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationMarker
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
