package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned by every call of a client built without an
// API key.
var ErrNotConfigured = errors.New("llm: no api key configured")

// Message is a minimal chat message used by the consultation service.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client defines what the consultation service needs from a model.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint. With
// the default base URL that is Gemini.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIClient constructs a model client. An empty apiKey yields a client
// whose calls fail with ErrNotConfigured, so callers fall back.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	c := &OpenAIClient{model: model, temperature: 0.2}
	if apiKey == "" {
		return c
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	c.client = openai.NewClientWithConfig(cfg)
	return c
}

// Chat sends the message history to the chat completion API and returns the
// assistant's response.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
