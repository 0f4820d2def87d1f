package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rag-notes-be/pkg/llm"
)

// HuggingFaceProvider talks to the OpenAI-compatible router, so it also
// works against any other /chat/completions endpoint.
type HuggingFaceProvider struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	client    *http.Client
}

var _ llm.LLMProvider = (*HuggingFaceProvider)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      llm.Message `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

var errEmptyChoices = errors.New("empty choices from huggingface api")

func NewHuggingFaceProvider(apiKey, baseURL, model string, maxTokens int) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1"
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &HuggingFaceProvider{
		apiKey:    apiKey,
		endpoint:  strings.TrimRight(baseURL, "/") + "/chat/completions",
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *HuggingFaceProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(llm.Options{
		Model:     p.model,
		MaxTokens: p.maxTokens,
	}, options...)

	body := chatRequest{
		Model:     opts.Model,
		Messages:  history,
		MaxTokens: opts.MaxTokens,
	}
	if opts.Temperature > 0 {
		body.Temperature = &opts.Temperature
	}

	res, err := p.send(ctx, body)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", errEmptyChoices
	}
	return res.Choices[0].Message.Content, nil
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (p *HuggingFaceProvider) send(ctx context.Context, body chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(raw, &out)

	switch {
	case out.Error != nil:
		return nil, fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, out.Error.Message)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(raw))
	case decodeErr != nil:
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return &out, nil
}
