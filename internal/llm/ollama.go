package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/temirov/testgen/internal/pipeline"
)

// MessageGenerator is the subset of an eino chat model the Ollama client needs.
type MessageGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OllamaClient sends prompts to a local Ollama server through eino's native
// Ollama chat model.
type OllamaClient struct {
	Generator     MessageGenerator
	DefaultModel  string
	DefaultTemp   *float64
	DefaultTokens int
}

var errNoMessage = errors.New("ollama returned no message")

// NewOllamaClient builds a chat model bound to baseURL and modelName. Timeout
// bounds the underlying HTTP client; zero leaves it unbounded.
func NewOllamaClient(ctx context.Context, baseURL string, modelName string, timeout time.Duration) (OllamaClient, error) {
	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   modelName,
		Timeout: timeout,
	})
	if err != nil {
		return OllamaClient{}, fmt.Errorf("create ollama chat model %s: %w", modelName, err)
	}
	return OllamaClient{Generator: chatModel, DefaultModel: modelName}, nil
}

func (c OllamaClient) Chat(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
	var messages []*schema.Message
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, schema.UserMessage(strings.TrimSpace(req.UserPrompt)))

	var options []model.Option
	if modelName := strings.TrimSpace(req.Model); modelName != "" && modelName != c.DefaultModel {
		options = append(options, model.WithModel(modelName))
	}
	if temperature := chooseTemperature(req.Temperature, c.DefaultTemp); temperature != nil {
		options = append(options, model.WithTemperature(float32(*temperature)))
	}
	if maxTokens := chooseInt(req.MaxTokens, c.DefaultTokens); maxTokens > 0 {
		options = append(options, model.WithMaxTokens(maxTokens))
	}

	reply, err := c.Generator.Generate(ctx, messages, options...)
	if err != nil {
		return pipeline.LLMResponse{}, fmt.Errorf("ollama generate: %w", err)
	}
	if reply == nil {
		return pipeline.LLMResponse{}, errNoMessage
	}
	return pipeline.LLMResponse{RawText: reply.Content}, nil
}
