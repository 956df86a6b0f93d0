package v1

import (
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/sagechat/ai/llm"
	"github.com/hrygo/sagechat/ai/metrics"
	"github.com/hrygo/sagechat/ai/prompt"
	"github.com/hrygo/sagechat/ai/summary"
	"github.com/hrygo/sagechat/internal/profile"
	"github.com/hrygo/sagechat/plugin/docextract"
	"github.com/hrygo/sagechat/store"
)

type fakeLLM struct {
	reply string
	err   error
	calls [][]llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message, _ float32) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(t *testing.T, fake *fakeLLM) (*ChatService, *store.Session) {
	t.Helper()
	dir := t.TempDir()
	p := &profile.Profile{
		Data:           dir,
		HistoryBudget:  24000,
		ExcerptLimit:   3000,
		LLMTemperature: 0.7,
	}
	svc := &ChatService{
		Profile:    p,
		LLM:        fake,
		Extractor:  docextract.New(p.ExcerptLimit),
		Summarizer: summary.NewSummarizer(fake),
		QueryLog:   store.NewQueryLog(dir),
		Exporter:   store.NewExporter(dir),
		Metrics:    metrics.NewExporter(),
	}
	session := &store.Session{ID: "test-session", Conversation: &store.Conversation{}}
	return svc, session
}

func memFile(name, content string) UploadedFile {
	return UploadedFile{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

var timestamped = regexp.MustCompile(`^(.*) \(\d{2}:\d{2}:\d{2}\)$`)

func TestSendMessage(t *testing.T) {
	fake := &fakeLLM{reply: "Hi there!"}
	svc, session := newTestService(t, fake)

	turn := svc.SendMessage(context.Background(), session, "Hello", prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2})

	require.False(t, turn.Failed)
	require.Regexp(t, `^Hello \(\d{2}:\d{2}:\d{2}\)$`, turn.User)
	require.Regexp(t, `^Hi there! \(\d{2}:\d{2}:\d{2}\)$`, turn.Assistant)
	require.Equal(t, 1, session.Conversation.Len())

	require.Len(t, fake.calls, 1)
	messages := fake.calls[0]
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].Role)
	require.Equal(t, "You are a helpful and friendly assistant. Give balanced and informative answers.", messages[0].Content)
	require.Equal(t, "user", messages[1].Role)
	require.Equal(t, "Hello", messages[1].Content)

	// The raw text is logged before the completion call.
	data, err := os.ReadFile(svc.QueryLog.Path())
	require.NoError(t, err)
	require.Contains(t, string(data), "User: Hello")
}

func TestSendMessageReplaysHistory(t *testing.T) {
	fake := &fakeLLM{reply: "ok"}
	svc, session := newTestService(t, fake)
	persona := prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2}

	svc.SendMessage(context.Background(), session, "first", persona)
	svc.SendMessage(context.Background(), session, "second", persona)

	require.Len(t, fake.calls, 2)
	// Second call: system + (user, assistant) from turn 1 + new user = 4.
	require.Len(t, fake.calls[1], 4)
	require.Equal(t, "user", fake.calls[1][1].Role)
	require.True(t, timestamped.MatchString(fake.calls[1][1].Content), "history should carry the timestamp suffix")
}

func TestSendMessageFailSoft(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}
	svc, session := newTestService(t, fake)

	turn := svc.SendMessage(context.Background(), session, "Hello", prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2})

	require.True(t, turn.Failed)
	require.Contains(t, turn.Assistant, "OpenAI API Error: ")
	require.Contains(t, turn.Assistant, "connection refused")
	// The session survives: the failed turn is part of the conversation.
	require.Equal(t, 1, session.Conversation.Len())
}

func TestUploadUnsupportedFile(t *testing.T) {
	fake := &fakeLLM{reply: "analysis"}
	svc, session := newTestService(t, fake)

	turns, err := svc.UploadFiles(context.Background(), session, []UploadedFile{
		memFile("letter.docx", "irrelevant"),
	}, prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2})

	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Equal(t, "[Unsupported file: letter.docx]", turns[0].User)
	require.Equal(t, docextract.RejectionMessage, turns[0].Assistant)
	// Never reaches the completion client.
	require.Empty(t, fake.calls)
}

func TestUploadTextFileTruncation(t *testing.T) {
	fake := &fakeLLM{reply: "analysis"}
	svc, session := newTestService(t, fake)
	content := strings.Repeat("x", 5000)

	turns, err := svc.UploadFiles(context.Background(), session, []UploadedFile{
		memFile("big.txt", content),
	}, prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2})

	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Equal(t, "[Uploaded file: big.txt]", turns[0].User)
	require.Equal(t, "analysis", turns[0].Assistant)

	require.Len(t, fake.calls, 1)
	sent := fake.calls[0][len(fake.calls[0])-1].Content
	expected := "Analyze this text file:\n\n" + content[:3000] + "\n\n[Note: Text was truncated.]"
	require.Equal(t, expected, sent)
}

func TestUploadBatchContinuesPastUnsupported(t *testing.T) {
	fake := &fakeLLM{reply: "analysis"}
	svc, session := newTestService(t, fake)

	turns, err := svc.UploadFiles(context.Background(), session, []UploadedFile{
		memFile("letter.docx", "nope"),
		memFile("notes.txt", "short note"),
	}, prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2})

	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, "[Unsupported file: letter.docx]", turns[0].User)
	require.Equal(t, "[Uploaded file: notes.txt]", turns[1].User)
	require.Len(t, fake.calls, 1)
}

func TestUploadBatchAbortsOnReadFailure(t *testing.T) {
	fake := &fakeLLM{reply: "analysis"}
	svc, session := newTestService(t, fake)

	broken := UploadedFile{
		Name: "broken.txt",
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("disk gone")
		},
	}

	turns, err := svc.UploadFiles(context.Background(), session, []UploadedFile{
		memFile("first.txt", "fine"),
		broken,
		memFile("never.txt", "unreached"),
	}, prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2})

	require.Error(t, err)
	// The first file's turn survives; the batch stops at the failure.
	require.Len(t, turns, 1)
	require.Equal(t, "[Uploaded file: first.txt]", turns[0].User)
	require.Len(t, fake.calls, 1)
}

func TestUploadFailSoftReply(t *testing.T) {
	fake := &fakeLLM{err: errors.New("quota exceeded")}
	svc, session := newTestService(t, fake)

	turns, err := svc.UploadFiles(context.Background(), session, []UploadedFile{
		memFile("notes.txt", "content"),
	}, prompt.Persona{Mood: prompt.MoodFriendly, Detail: 2})

	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.True(t, turns[0].Failed)
	require.Contains(t, turns[0].Assistant, "OpenAI API Error: ")
}

func TestPreviewFiles(t *testing.T) {
	fake := &fakeLLM{reply: "unused"}
	svc, session := newTestService(t, fake)

	preview := svc.PreviewFiles([]UploadedFile{
		memFile("a.txt", "alpha"),
		memFile("b.docx", "beta"),
	})

	require.Equal(t, "alpha\n---\nUnsupported file.", preview)
	// Previews touch neither the store nor the completion client.
	require.Equal(t, 0, session.Conversation.Len())
	require.Empty(t, fake.calls)
}

func TestPreviewFilesStopsOnError(t *testing.T) {
	fake := &fakeLLM{}
	svc, _ := newTestService(t, fake)

	broken := UploadedFile{
		Name: "broken.txt",
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("disk gone")
		},
	}

	preview := svc.PreviewFiles([]UploadedFile{
		memFile("a.txt", "alpha"),
		broken,
		memFile("c.txt", "gamma"),
	})

	require.Contains(t, preview, "alpha")
	require.Contains(t, preview, "Error: ")
	require.NotContains(t, preview, "gamma")
}

func TestSummarizeAndReset(t *testing.T) {
	fake := &fakeLLM{reply: "a short chat"}
	svc, session := newTestService(t, fake)
	session.Conversation.Append(store.NewTurn("hi", "hello"))

	summaryText, err := svc.Summarize(context.Background(), session)
	require.NoError(t, err)
	require.Equal(t, "a short chat", summaryText)
	// Summaries are not appended back.
	require.Equal(t, 1, session.Conversation.Len())

	svc.Reset(session)
	require.Equal(t, 0, session.Conversation.Len())
}

func TestExport(t *testing.T) {
	fake := &fakeLLM{reply: "ok"}
	svc, session := newTestService(t, fake)
	session.Conversation.Append(store.NewTurn("hi", "hello"))

	path, err := svc.Export(session)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "User: hi\nBot: hello\n\n", string(data))
}
