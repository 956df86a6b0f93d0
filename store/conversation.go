// Package store holds per-session conversation state and the durable text
// sinks (query log, exports).
package store

import (
	"strings"

	"github.com/google/uuid"
)

// Turn is one user message paired with one assistant reply.
// Immutable once appended.
type Turn struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Assistant string `json:"assistant"`
	// Failed marks turns whose assistant side is a synthesized error reply
	// rather than model output.
	Failed bool `json:"failed,omitempty"`
}

// NewTurn creates a turn with a fresh ID.
func NewTurn(user, assistant string) Turn {
	return Turn{ID: uuid.NewString(), User: user, Assistant: assistant}
}

// Conversation is an ordered, append-only sequence of turns owned by one
// session. It only grows or is reset to empty; past turns are never edited.
// Not safe for concurrent use; the owning session serializes access.
type Conversation struct {
	turns []Turn
}

// Append adds a turn to the end of the conversation.
func (c *Conversation) Append(turn Turn) {
	c.turns = append(c.turns, turn)
}

// Clear empties the conversation wholesale.
func (c *Conversation) Clear() {
	c.turns = nil
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the turns in insertion order.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Text renders the conversation as "User: …\nBot: …" blocks joined by blank
// lines, for export and summarization. An empty conversation yields "".
func (c *Conversation) Text() string {
	if len(c.turns) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(c.turns))
	for _, turn := range c.turns {
		blocks = append(blocks, "User: "+turn.User+"\nBot: "+turn.Assistant)
	}
	return strings.Join(blocks, "\n\n")
}
