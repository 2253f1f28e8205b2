package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderTranscript(t *testing.T) {
	rec := &ConversationRecord{
		Messages: []Message{
			{Role: RoleUser, Content: "my lease ended"},
			{Role: RoleAssistant, Content: "check the notice period"},
		},
	}
	assert.Equal(t, "USER: my lease ended\nASSISTANT: check the notice period", rec.RenderTranscript())

	empty := &ConversationRecord{}
	assert.Equal(t, "", empty.RenderTranscript())
}

func TestRepresentationPrefersSummary(t *testing.T) {
	rec := &ConversationRecord{
		Messages:     []Message{{Role: RoleUser, Content: "long conversation"}},
		IsSummarized: true,
		Summary:      "Chief Issue: lease dispute",
	}
	assert.Equal(t, "Chief Issue: lease dispute", rec.Representation())

	// A summarized flag without a summary falls back to the transcript.
	rec.Summary = ""
	assert.Equal(t, "USER: long conversation", rec.Representation())
}

func TestAppendMessageUpdatesActivity(t *testing.T) {
	now := time.Now()
	rec := &ConversationRecord{
		CreatedAt:    now.Add(-time.Hour),
		LastActiveAt: now.Add(-time.Hour),
		TokenCount:   77,
	}

	rec.AppendMessage(Message{Role: RoleUser, Content: "hello", CreatedAt: now})

	assert.Len(t, rec.Messages, 1)
	assert.Equal(t, now, rec.LastActiveAt)
	assert.Equal(t, 0, rec.TokenCount)
}

func TestDateRangeNeverInverted(t *testing.T) {
	now := time.Now()
	rec := &ConversationRecord{CreatedAt: now, LastActiveAt: now.Add(-time.Hour)}

	start, end := rec.DateRange()
	assert.Equal(t, now, start)
	assert.False(t, end.Before(start))
}
