package summarizer

// PromptSet holds the system prompts for each summarization mode. The
// content schema is domain data supplied at construction; the defaults
// target client consultation transcripts.
type PromptSet struct {
	PerConversation string
	Comprehensive   string
	Continuity      string
}

// DefaultPrompts returns the built-in consultation prompt templates.
func DefaultPrompts() PromptSet {
	return PromptSet{
		PerConversation: perConversationPrompt,
		Comprehensive:   comprehensivePrompt,
		Continuity:      continuityPrompt,
	}
}

const perConversationPrompt = `You are a consultation summarizer. Create a concise structured summary of the following client conversation.

GUIDELINES:
1. Focus on substantive information only (issues raised, facts established, advice given)
2. Preserve specific details: names, dates, amounts, deadlines
3. Note any follow-up recommendations or warnings
4. Keep it factual and structured
5. Omit pleasantries, greetings, and small talk

FORMAT:
Chief Issue: [Main issue discussed]
Key Facts: [Facts established during the conversation]
Advice Given: [Summary of recommendations]
Follow-up: [Any follow-up instructions]
Flags: [Any warnings or concerns raised]`

const comprehensivePrompt = `You are creating a comprehensive client history from multiple past conversations.

GUIDELINES:
1. Create a longitudinal summary showing progression over time
2. Group information by topic, not by conversation
3. Highlight recurring issues and ongoing matters
4. Preserve names, dates, amounts, and deadlines
5. Note patterns and trends
6. Keep it concise but comprehensive

FORMAT:
History Overview: [Brief overview of the client's journey]
Ongoing Matters: [Matters that span multiple conversations]
Recurring Issues: [Issues raised across multiple conversations]
Key Advice: [Important recommendations given]
Trends: [Any patterns noticed]`

const continuityPrompt = `Based on the client's history and current query, provide brief context about relevant past information.

Focus on:
1. Related past issues or matters
2. Previous advice that might inform the current situation
3. Any patterns or trends

Keep it very brief (2-3 sentences max). If no relevant history, say "No directly relevant past history."`
