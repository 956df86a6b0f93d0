// Package llm provides the chat-completion client for OpenAI-compatible providers.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// Service is the completion client interface.
type Service interface {
	// Chat performs a synchronous chat completion and returns the first
	// generated choice's content. Transport and provider failures are
	// returned as errors; presentation is the caller's concern.
	Chat(ctx context.Context, messages []Message, temperature float32) (string, error)
}

// Config represents completion client configuration.
type Config struct {
	Provider string // openai, deepseek, siliconflow, openrouter, ollama
	Model    string // gpt-4o, deepseek-chat, etc.
	APIKey   string
	BaseURL  string
	Timeout  int // Request timeout in seconds (default: 120)
}

type service struct {
	client  *openai.Client
	model   string
	timeout int
}

// NewService creates a new completion client.
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	return &service{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

func (s *service) Chat(ctx context.Context, messages []Message, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("LLM: chat request",
		"model", s.model,
		"messages_count", len(messages),
		"temperature", temperature,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: temperature,
		Messages:    convertMessages(messages),
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: chat request failed", "error", err, "duration_ms", time.Since(startTime).Milliseconds())
		return "", fmt.Errorf("LLM chat failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("LLM: empty response")
		return "", fmt.Errorf("empty response from LLM")
	}

	slog.Debug("LLM: chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return resp.Choices[0].Message.Content, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		switch m.Role {
		case "system":
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: m.Content,
			}
		case "assistant":
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
		default:
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			}
		}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}
