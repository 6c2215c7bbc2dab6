package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/testgen/internal/pipeline"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Settings describe how to reach the text-generation service.
type Settings struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration
}

// NewClient builds the pipeline client for the configured provider.
func NewClient(ctx context.Context, settings Settings) (pipeline.LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Provider)) {
	case ProviderOllama:
		client, err := NewOllamaClient(ctx, settings.BaseURL, settings.Model, settings.Timeout)
		if err != nil {
			return nil, err
		}
		client.DefaultTemp = settings.Temperature
		client.DefaultTokens = settings.MaxTokens
		return client, nil
	case ProviderOpenAI:
		return Adapter{
			Client:        Client{HTTPBaseURL: settings.BaseURL, APIKey: settings.APIKey},
			DefaultModel:  settings.Model,
			DefaultTemp:   settings.Temperature,
			DefaultTokens: settings.MaxTokens,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", settings.Provider)
	}
}
