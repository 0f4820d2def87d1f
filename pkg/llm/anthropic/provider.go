package anthropic

import (
	"context"
	"fmt"
	"strings"

	"rag-notes-be/pkg/llm"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, model string, maxTokens int, opts ...option.RequestOption) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{
		MaxTokens: p.maxTokens,
		Model:     p.model,
	}, opts...)

	system, conversation := llm.SplitSystem(history)

	// The Messages API requires the first turn to come from the user.
	for len(conversation) > 0 && conversation[0].Role != llm.RoleUser {
		conversation = conversation[1:]
	}
	if len(conversation) == 0 {
		return "", fmt.Errorf("anthropic: no user message to answer")
	}

	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for _, msg := range conversation {
		if msg.Role == llm.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: int64(options.MaxTokens),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude returned no text content")
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
