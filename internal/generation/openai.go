package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const generatorSystemPrompt = "You are an expert strength and conditioning coach. " +
	"You design evidence-based, periodized training programs and you respond with " +
	"strictly schema-conforming JSON, never prose."

// OpenAICompleter is the production ModelCompleter, backed by an
// OpenAI-compatible chat-completions endpoint in JSON mode.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	callTimeout time.Duration
}

// NewOpenAICompleter builds the completer. baseURL may be empty for the
// default endpoint; callTimeout bounds each individual model call.
func NewOpenAICompleter(apiKey, baseURL, model string, callTimeout time.Duration) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key is empty", ErrModelAuth)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if callTimeout <= 0 {
		callTimeout = 90 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		callTimeout: callTimeout,
	}, nil
}

// Complete issues one chat completion. Auth failures are wrapped in
// ErrModelAuth so the retry layer can tell them apart from transient ones.
func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %v", ErrModelAuth, err)
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}
