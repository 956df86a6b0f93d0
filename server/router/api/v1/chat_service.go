package v1

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/sagechat/ai/llm"
	"github.com/hrygo/sagechat/ai/metrics"
	"github.com/hrygo/sagechat/ai/prompt"
	"github.com/hrygo/sagechat/ai/summary"
	"github.com/hrygo/sagechat/internal/profile"
	"github.com/hrygo/sagechat/plugin/docextract"
	"github.com/hrygo/sagechat/store"
)

// ChatService orchestrates one user action end to end: prompt construction,
// the completion call, and conversation-store updates. It is stateless
// between calls except for the stores it is given; callers hold the
// session lock around conversation-mutating operations.
type ChatService struct {
	Profile    *profile.Profile
	LLM        llm.Service
	Extractor  *docextract.Extractor
	Summarizer *summary.Summarizer
	QueryLog   *store.QueryLog
	Exporter   *store.Exporter
	Metrics    *metrics.Exporter
}

// UploadedFile is one file from a multipart upload batch.
type UploadedFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// SendMessage logs the raw text, replays the capped history window with the
// persona's system prompt, calls the completion client, and appends the new
// turn with wall-clock timestamp suffixes on both sides.
//
// Completion failures never propagate: the turn is appended with a
// synthesized "OpenAI API Error: …" reply and marked failed, so the chat
// session survives any provider outage.
func (s *ChatService) SendMessage(ctx context.Context, session *store.Session, text string, persona prompt.Persona) store.Turn {
	if err := s.QueryLog.Append(text); err != nil {
		// Advisory sink; losing a line must not fail the chat.
		slog.Warn("query log append failed", "error", err)
	}

	reply, failed := s.complete(ctx, session, text, persona)

	timestamp := time.Now().Format("15:04:05")
	turn := store.NewTurn(
		fmt.Sprintf("%s (%s)", text, timestamp),
		fmt.Sprintf("%s (%s)", reply, timestamp),
	)
	turn.Failed = failed
	session.Conversation.Append(turn)
	return turn
}

// UploadFiles analyzes each file in order. Unsupported extensions append a
// rejection turn without a completion call and the batch continues; a hard
// extraction failure aborts the remaining files and the error is returned
// alongside the turns already appended.
func (s *ChatService) UploadFiles(ctx context.Context, session *store.Session, files []UploadedFile, persona prompt.Persona) ([]store.Turn, error) {
	var turns []store.Turn
	for _, file := range files {
		if !docextract.Supported(file.Name) {
			turn := store.NewTurn(
				fmt.Sprintf("[Unsupported file: %s]", file.Name),
				docextract.RejectionMessage,
			)
			session.Conversation.Append(turn)
			turns = append(turns, turn)
			s.Metrics.ObserveUpload(extensionLabel(file.Name), "unsupported")
			continue
		}

		excerpt, err := s.extract(file)
		if err != nil {
			s.Metrics.ObserveUpload(extensionLabel(file.Name), "error")
			return turns, err
		}

		analysisPrompt := docextract.AnalysisPrompt(file.Name, excerpt)
		reply, failed := s.complete(ctx, session, analysisPrompt, persona)

		turn := store.NewTurn(fmt.Sprintf("[Uploaded file: %s]", file.Name), reply)
		turn.Failed = failed
		session.Conversation.Append(turn)
		turns = append(turns, turn)
		s.Metrics.ObserveUpload(extensionLabel(file.Name), "ok")
	}
	return turns, nil
}

// PreviewFiles re-extracts short previews for immediate display, joined by
// "\n---\n". It touches neither the conversation store nor the completion
// client. A read failure surfaces as an "Error: …" preview entry and stops
// the batch.
func (s *ChatService) PreviewFiles(files []UploadedFile) string {
	var previews []string
	for _, file := range files {
		preview, err := s.previewOne(file)
		if err != nil {
			previews = append(previews, fmt.Sprintf("Error: %v", err))
			break
		}
		previews = append(previews, preview)
	}
	return strings.Join(previews, "\n---\n")
}

// Summarize renders the conversation to text and asks for a one-shot
// summary. The summary is returned, not appended.
func (s *ChatService) Summarize(ctx context.Context, session *store.Session) (string, error) {
	return s.Summarizer.Summarize(ctx, session.Conversation.Text())
}

// Export serializes all turns to a timestamped plain-text file on disk and
// returns its path.
func (s *ChatService) Export(session *store.Session) (string, error) {
	return s.Exporter.Export(session.Conversation)
}

// Reset clears the session's conversation wholesale.
func (s *ChatService) Reset(session *store.Session) {
	session.Conversation.Clear()
}

// complete builds the message sequence for the current conversation plus
// text and calls the completion client. On failure it returns the
// legacy-compatible error reply and failed=true instead of an error.
func (s *ChatService) complete(ctx context.Context, session *store.Session, text string, persona prompt.Persona) (reply string, failed bool) {
	systemPrompt := prompt.BuildSystemPrompt(persona.Mood, persona.Detail)
	window := prompt.WindowTurns(session.Conversation.Turns(), s.Profile.HistoryBudget)
	messages := prompt.BuildMessages(systemPrompt, window, text)

	content, err := s.LLM.Chat(ctx, messages, s.Profile.LLMTemperature)
	if err != nil {
		s.Metrics.ObserveLLMFailure()
		slog.Warn("completion call failed, degrading to error reply",
			"session", session.ID,
			"error", err,
		)
		return fmt.Sprintf("OpenAI API Error: %v", err), true
	}
	return content, false
}

func (s *ChatService) extract(file UploadedFile) (docextract.Excerpt, error) {
	r, err := file.Open()
	if err != nil {
		return docextract.Excerpt{}, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer r.Close()
	return s.Extractor.Extract(file.Name, r)
}

func (s *ChatService) previewOne(file UploadedFile) (string, error) {
	r, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer r.Close()
	return s.Extractor.Preview(file.Name, r)
}

func extensionLabel(name string) string {
	switch {
	case strings.HasSuffix(name, ".txt"):
		return "txt"
	case strings.HasSuffix(name, ".csv"):
		return "csv"
	case strings.HasSuffix(name, ".pdf"):
		return "pdf"
	default:
		return "other"
	}
}
