package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ErrNarratorDisabled is returned by a narrator without credentials.
var ErrNarratorDisabled = errors.New("narrator not configured")

// Narrator turns a prompt into prose.
type Narrator interface {
	Narrate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// OpenAI narrates with a chat completion model.
type OpenAI struct {
	client *openai.Client
	model  string

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewOpenAI creates a narrator. Returns nil if apiKey is empty, which
// leaves the gazette on its template.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxPerMin: 20,
	}
}

// Enabled reports whether o can make calls.
func (o *OpenAI) Enabled() bool {
	return o != nil && o.client != nil
}

// Narrate sends one chat completion request.
func (o *OpenAI) Narrate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if !o.Enabled() {
		return "", ErrNarratorDisabled
	}

	o.mu.Lock()
	now := time.Now()
	if now.After(o.resetAt) {
		o.callCount = 0
		o.resetAt = now.Add(time.Minute)
	}
	if o.callCount >= o.maxPerMin {
		o.mu.Unlock()
		return "", fmt.Errorf("rate limit exceeded (%d calls/min)", o.maxPerMin)
	}
	o.callCount++
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	slog.Debug("narrator call",
		"model", o.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
