// Package prompt assembles system prompts and message sequences from the
// persona controls and the conversation history.
package prompt

import (
	"strings"

	"github.com/hrygo/sagechat/ai/llm"
	"github.com/hrygo/sagechat/store"
)

// Mood selects the assistant's tone clause.
type Mood string

const (
	MoodFriendly     Mood = "Friendly"
	MoodProfessional Mood = "Professional"
	MoodHumorous     Mood = "Humorous"
)

// defaultTone is used for any unrecognized mood value.
const defaultTone = "You are a helpful assistant."

var toneClauses = map[Mood]string{
	MoodFriendly:     "You are a helpful and friendly assistant.",
	MoodProfessional: "You are a formal and knowledgeable assistant.",
	MoodHumorous:     "You are a witty and engaging assistant.",
}

// Detail levels outside 1..3 yield an empty detail clause.
var detailClauses = map[int]string{
	1: "Give short and concise answers.",
	2: "Give balanced and informative answers.",
	3: "Give detailed and elaborate explanations.",
}

// Persona is the per-request (mood, detail level) configuration.
// It is supplied fresh from the UI controls on each call and carries no
// state between requests.
type Persona struct {
	Mood   Mood `json:"mood"`
	Detail int  `json:"detail"`
}

// BuildSystemPrompt concatenates the tone clause for mood with the detail
// clause for level. Unknown moods fall back to the default tone; levels
// outside 1..3 contribute nothing.
func BuildSystemPrompt(mood Mood, level int) string {
	tone, ok := toneClauses[mood]
	if !ok {
		tone = defaultTone
	}
	detail := detailClauses[level]
	return strings.TrimSpace(tone + " " + detail)
}

// BuildMessages expands the conversation into a chat-completion message
// sequence: the system prompt, each prior turn as a user message followed by
// an assistant message, then the new user text. For N turns the result is
// always 2N+2 messages.
func BuildMessages(systemPrompt string, turns []store.Turn, newUserText string) []llm.Message {
	messages := make([]llm.Message, 0, 2*len(turns)+2)
	messages = append(messages, llm.SystemPrompt(systemPrompt))
	for _, turn := range turns {
		messages = append(messages, llm.UserMessage(turn.User))
		messages = append(messages, llm.AssistantMessage(turn.Assistant))
	}
	messages = append(messages, llm.UserMessage(newUserText))
	return messages
}

// WindowTurns selects the most recent turns whose combined character count
// fits within budget, dropping oldest turns first. A budget <= 0 disables
// the cap. The newest turn is always included even if it alone exceeds the
// budget, so a single long exchange cannot silence the model's context.
func WindowTurns(turns []store.Turn, budget int) []store.Turn {
	if budget <= 0 || len(turns) == 0 {
		return turns
	}
	total := 0
	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		total += len([]rune(turns[i].User)) + len([]rune(turns[i].Assistant))
		if total > budget && start < len(turns) {
			break
		}
		start = i
	}
	return turns[start:]
}
