package prompt

import (
	"strings"
	"testing"

	"github.com/hrygo/sagechat/store"
)

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name     string
		mood     Mood
		level    int
		expected string
	}{
		{"friendly balanced", MoodFriendly, 2, "You are a helpful and friendly assistant. Give balanced and informative answers."},
		{"friendly short", MoodFriendly, 1, "You are a helpful and friendly assistant. Give short and concise answers."},
		{"professional detailed", MoodProfessional, 3, "You are a formal and knowledgeable assistant. Give detailed and elaborate explanations."},
		{"humorous balanced", MoodHumorous, 2, "You are a witty and engaging assistant. Give balanced and informative answers."},
		{"unknown mood falls back", Mood("Grumpy"), 2, "You are a helpful assistant. Give balanced and informative answers."},
		{"empty mood falls back", Mood(""), 1, "You are a helpful assistant. Give short and concise answers."},
		{"detail below range", MoodFriendly, 0, "You are a helpful and friendly assistant."},
		{"detail above range", MoodFriendly, 4, "You are a helpful and friendly assistant."},
		{"negative detail", MoodProfessional, -1, "You are a formal and knowledgeable assistant."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSystemPrompt(tt.mood, tt.level)
			if got != tt.expected {
				t.Errorf("BuildSystemPrompt(%q, %d) = %q, want %q", tt.mood, tt.level, got, tt.expected)
			}
		})
	}
}

func TestBuildSystemPromptNeverEmpty(t *testing.T) {
	moods := []Mood{MoodFriendly, MoodProfessional, MoodHumorous, Mood("nonsense"), Mood("")}
	for _, mood := range moods {
		for level := -1; level <= 5; level++ {
			if got := BuildSystemPrompt(mood, level); got == "" {
				t.Errorf("BuildSystemPrompt(%q, %d) returned empty string", mood, level)
			}
		}
	}
}

func TestBuildMessages(t *testing.T) {
	turns := []store.Turn{
		{User: "first question", Assistant: "first answer"},
		{User: "second question", Assistant: "second answer"},
	}

	messages := BuildMessages("system text", turns, "new question")

	if len(messages) != 2*len(turns)+2 {
		t.Fatalf("expected %d messages, got %d", 2*len(turns)+2, len(messages))
	}
	if messages[0].Role != "system" || messages[0].Content != "system text" {
		t.Errorf("first message = %+v, want system message", messages[0])
	}
	last := messages[len(messages)-1]
	if last.Role != "user" || last.Content != "new question" {
		t.Errorf("last message = %+v, want new user message", last)
	}

	// Each prior turn expands into user then assistant, in order.
	if messages[1].Role != "user" || messages[1].Content != "first question" {
		t.Errorf("message[1] = %+v", messages[1])
	}
	if messages[2].Role != "assistant" || messages[2].Content != "first answer" {
		t.Errorf("message[2] = %+v", messages[2])
	}
	if messages[3].Role != "user" || messages[3].Content != "second question" {
		t.Errorf("message[3] = %+v", messages[3])
	}
	if messages[4].Role != "assistant" || messages[4].Content != "second answer" {
		t.Errorf("message[4] = %+v", messages[4])
	}
}

func TestBuildMessagesEmptyHistory(t *testing.T) {
	messages := BuildMessages("sys", nil, "hello")
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if messages[1].Role != "user" || messages[1].Content != "hello" {
		t.Errorf("second message = %+v", messages[1])
	}
}

func TestWindowTurns(t *testing.T) {
	turns := []store.Turn{
		{User: strings.Repeat("a", 100), Assistant: strings.Repeat("b", 100)},
		{User: strings.Repeat("c", 100), Assistant: strings.Repeat("d", 100)},
		{User: strings.Repeat("e", 100), Assistant: strings.Repeat("f", 100)},
	}

	t.Run("no budget keeps everything", func(t *testing.T) {
		if got := WindowTurns(turns, 0); len(got) != 3 {
			t.Errorf("expected 3 turns, got %d", len(got))
		}
	})

	t.Run("large budget keeps everything", func(t *testing.T) {
		if got := WindowTurns(turns, 10000); len(got) != 3 {
			t.Errorf("expected 3 turns, got %d", len(got))
		}
	})

	t.Run("oldest turns dropped first", func(t *testing.T) {
		got := WindowTurns(turns, 450)
		if len(got) != 2 {
			t.Fatalf("expected 2 turns, got %d", len(got))
		}
		if got[0].User != turns[1].User || got[1].User != turns[2].User {
			t.Errorf("kept the wrong turns: %+v", got)
		}
	})

	t.Run("newest turn always kept", func(t *testing.T) {
		got := WindowTurns(turns, 10)
		if len(got) != 1 {
			t.Fatalf("expected 1 turn, got %d", len(got))
		}
		if got[0].User != turns[2].User {
			t.Errorf("kept the wrong turn: %+v", got[0])
		}
	})

	t.Run("empty history", func(t *testing.T) {
		if got := WindowTurns(nil, 100); len(got) != 0 {
			t.Errorf("expected no turns, got %d", len(got))
		}
	})
}
