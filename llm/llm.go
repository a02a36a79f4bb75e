// Package llm wraps the text-generation backends the tutor can use. Every
// backend takes one prompt string and returns the generated text.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/fabfab/learning-assistant/config"
)

var ErrUnknownProvider = errors.New("unknown llm provider")

// Params are the decoding parameters sent with every generation call.
type Params struct {
	MaxNewTokens int
	Temperature  float64
}

func DefaultParams() Params {
	return Params{MaxNewTokens: 256, Temperature: 0.4}
}

type Client interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

type Options struct {
	Provider string
	Model    string

	HFToken       string
	HFBaseURL     string
	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func NewClient(cfg config.Config) (Client, error) {
	opts := Options{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		HFToken:       cfg.HFToken,
		HFBaseURL:     cfg.HFBaseURL,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	if opts.Model == "" {
		return nil, fmt.Errorf("llm model is not set")
	}

	switch opts.Provider {
	case config.ProviderHuggingFace:
		return NewHuggingFaceClient(opts), nil
	case config.ProviderOllama:
		return NewOllamaClient(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, opts.Provider)
	}
}
