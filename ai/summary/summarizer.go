// Package summary generates one-shot conversation summaries.
package summary

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/sagechat/ai/llm"
	"github.com/hrygo/sagechat/ai/prompt"
)

const summaryTemperature = 0.7

// Summarizer produces a summary of a conversation transcript.
// Summarization is a one-shot call with a fixed professional persona and no
// prior history; the result is never appended back into the conversation.
type Summarizer struct {
	llm llm.Service
}

// NewSummarizer creates a summarizer on top of the completion client.
func NewSummarizer(llmSvc llm.Service) *Summarizer {
	return &Summarizer{llm: llmSvc}
}

// Summarize wraps the transcript in the fixed summarization instruction and
// asks the model for a summary. An empty transcript short-circuits.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", nil
	}

	systemPrompt := prompt.BuildSystemPrompt(prompt.MoodProfessional, 2)
	messages := []llm.Message{
		llm.SystemPrompt(systemPrompt),
		llm.UserMessage("Summarize this conversation:\n\n" + transcript),
	}

	content, err := s.llm.Chat(ctx, messages, summaryTemperature)
	if err != nil {
		return "", err
	}

	slog.Debug("conversation summarized",
		"transcript_length", len(transcript),
		"summary_length", len(content),
	)
	return strings.TrimSpace(content), nil
}
