package llm

import (
	"context"
	"strings"

	"github.com/temirov/testgen/internal/pipeline"
)

// Adapter adapts pipeline.LLMRequest to the OpenAI-compatible HTTP client.
type Adapter struct {
	Client        Client
	DefaultModel  string
	DefaultTemp   *float64
	DefaultTokens int
}

func (a Adapter) Chat(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = a.DefaultModel
	}

	var messages []ChatMessage
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: strings.TrimSpace(req.UserPrompt)})

	cr := ChatCompletionRequest{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: chooseInt(req.MaxTokens, a.DefaultTokens),
	}

	if resolvedTemp := chooseTemperature(req.Temperature, a.DefaultTemp); resolvedTemp != nil {
		temperature := *resolvedTemp
		cr.Temperature = &temperature
	}

	out, err := a.Client.CreateChatCompletion(ctx, cr)
	if err != nil {
		return pipeline.LLMResponse{}, err
	}
	return pipeline.LLMResponse{RawText: out}, nil
}

func chooseInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// chooseTemperature prefers the request's value; nil on both sides means the
// server default applies.
func chooseTemperature(requested, fallback *float64) *float64 {
	if requested != nil {
		return requested
	}
	return fallback
}
