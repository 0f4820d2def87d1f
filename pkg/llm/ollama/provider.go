package ollama

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

const defaultBaseURL = "http://localhost:11434"

// OllamaProvider calls a local Ollama daemon through /api/chat with
// streaming off, so one request yields one complete answer.
type OllamaProvider struct {
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

var _ llm.LLMProvider = (*OllamaProvider)(nil)

func NewOllamaProvider(baseURL, modelName string, maxTokens int) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OllamaProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model      string        `json:"model"`
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason,omitempty"`
	Error      string        `json:"error,omitempty"`
}

var errEmptyAnswer = errors.New("ollama returned an empty message")

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{
		Temperature: 0.7,
		MaxTokens:   o.maxTokens,
		Model:       o.model,
	}, opts...)

	req := ollamaChatRequest{
		Model:    options.Model,
		Messages: make([]ollamaMessage, 0, len(history)),
		Options: &ollamaOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}
	// Ollama accepts system turns inline, no need to split them out.
	for _, msg := range history {
		req.Messages = append(req.Messages, ollamaMessage{Role: msg.Role, Content: msg.Content})
	}

	var res ollamaChatResponse
	if err := o.post(ctx, "/api/chat", req, &res); err != nil {
		return "", err
	}
	if res.Message.Content == "" {
		return "", errEmptyAnswer
	}
	return res.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (o *OllamaProvider) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("ollama error: status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
