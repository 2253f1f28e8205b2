package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counsel-ai/memory-engine/internal/llm"
	"github.com/counsel-ai/memory-engine/internal/memory"
	"github.com/counsel-ai/memory-engine/pkg/logger"
)

// stubClient answers with canned content or an error.
type stubClient struct {
	content string
	err     error
	lastReq *llm.CompletionRequest
}

func (s *stubClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func (s *stubClient) Name() string { return "stub" }

// hangingClient blocks until the context is cancelled.
type hangingClient struct{}

func (hangingClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingClient) Name() string { return "hanging" }

func TestSummarizeSuccess(t *testing.T) {
	client := &stubClient{content: "  Chief Issue: knee pain  "}
	g := New(client, Config{}, logger.NewNop())

	res, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         "USER: my knee hurts\nASSISTANT: rest it",
		TargetTokens: 500,
		Mode:         memory.ModePerConversation,
	})
	require.NoError(t, err)

	assert.Equal(t, "Chief Issue: knee pain", res.Text)
	assert.False(t, res.Degraded)

	require.NotNil(t, client.lastReq)
	assert.Equal(t, 1000, client.lastReq.MaxTokens)
	require.Len(t, client.lastReq.Messages, 2)
	assert.Equal(t, "system", client.lastReq.Messages[0].Role)
	assert.Contains(t, client.lastReq.Messages[1].Content, "target ~500 tokens")
}

func TestSummarizeRejectsContractViolations(t *testing.T) {
	g := New(&stubClient{content: "ok"}, Config{}, logger.NewNop())

	_, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         "text",
		TargetTokens: 0,
		Mode:         memory.ModePerConversation,
	})
	assert.Error(t, err, "non-positive target tokens is a programming error")

	_, err = g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         "text",
		TargetTokens: 100,
		Mode:         memory.SummarizeMode("bogus"),
	})
	assert.Error(t, err, "unknown mode is a programming error")
}

func TestSummarizeEmptyInput(t *testing.T) {
	g := New(&stubClient{content: "ok"}, Config{}, logger.NewNop())

	res, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         "   ",
		TargetTokens: 100,
		Mode:         memory.ModePerConversation,
	})
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.False(t, res.Degraded)
}

func TestSummarizeProviderErrorDegrades(t *testing.T) {
	client := &stubClient{err: errors.New("rate limited")}
	g := New(client, Config{}, logger.NewNop())

	input := strings.Repeat("a lot of conversation text ", 200)
	res, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         input,
		TargetTokens: 100,
		Mode:         memory.ModePerConversation,
	})
	require.NoError(t, err, "provider errors never surface")

	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Text)
	assert.LessOrEqual(t, len(res.Text), 100*4+len(truncationMarker))
	assert.True(t, strings.HasSuffix(res.Text, truncationMarker))
}

func TestSummarizeTimeoutDegrades(t *testing.T) {
	g := New(hangingClient{}, Config{Timeout: 10 * time.Millisecond}, logger.NewNop())

	res, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         strings.Repeat("slow provider text ", 100),
		TargetTokens: 50,
		Mode:         memory.ModeComprehensive,
	})
	require.NoError(t, err, "timeouts never surface")

	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Text, "fallback truncation still yields usable text")
}

func TestSummarizeEmptyCompletionDegrades(t *testing.T) {
	g := New(&stubClient{content: "   "}, Config{}, logger.NewNop())

	res, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         "short text",
		TargetTokens: 100,
		Mode:         memory.ModePerConversation,
	})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "short text", res.Text, "input shorter than the target passes through whole")
}

func TestSummarizeNilClientDegrades(t *testing.T) {
	g := New(nil, Config{}, logger.NewNop())

	res, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         "some history",
		TargetTokens: 100,
		Mode:         memory.ModePerConversation,
	})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "some history", res.Text)
}

func TestContinuityFallbackIsEmpty(t *testing.T) {
	g := New(&stubClient{err: errors.New("down")}, Config{}, logger.NewNop())

	res, err := g.Summarize(context.Background(), memory.SummarizeRequest{
		Text:         "past summaries",
		TargetTokens: 100,
		Mode:         memory.ModeContinuity,
		Query:        "current question",
	})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "", res.Text, "continuity context is optional, truncated history would mislead")
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 300)
	out := truncate(text, 10)

	assert.True(t, strings.HasSuffix(out, truncationMarker))
	body := strings.TrimSuffix(out, truncationMarker)
	assert.True(t, len(body) <= 40)
	for _, r := range body {
		assert.Equal(t, 'é', r)
	}
}
