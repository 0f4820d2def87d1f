package factory

import (
	"context"
	"fmt"

	"rag-notes-be/pkg/llm"
	"rag-notes-be/pkg/llm/anthropic"
	"rag-notes-be/pkg/llm/gemini"
	"rag-notes-be/pkg/llm/huggingface"
	"rag-notes-be/pkg/llm/ollama"
)

type Params struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
}

func NewLLMProvider(ctx context.Context, p Params) (llm.LLMProvider, error) {
	switch p.Provider {
	case "ollama", "":
		return ollama.NewOllamaProvider(p.BaseURL, p.Model, p.MaxTokens), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(p.APIKey, p.BaseURL, p.Model, p.MaxTokens), nil
	case "gemini":
		if p.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(ctx, p.APIKey, p.Model, p.MaxTokens)
	case "anthropic":
		if p.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewAnthropicProvider(p.APIKey, p.Model, p.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
