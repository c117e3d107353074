package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// AnthropicProvider wraps the official Claude SDK.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider builds a provider pointed at apiKey/baseURL (baseURL
// empty means the SDK default).
func NewAnthropicProvider(apiKey, baseURL, model string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...), model: model}
}

func (a *AnthropicProvider) Name() string { return "anthropic" }

func (a *AnthropicProvider) Generate(ctx context.Context, params GenerateParams) (generateResult, error) {
	model := params.Model
	if model == "" {
		model = a.model
	}
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  toAnthropicMessages(params.Messages),
		MaxTokens: maxTokens,
	}
	if params.SystemPrompt != "" {
		req.System = []anthropic.TextBlockParam{{Text: params.SystemPrompt}}
	}
	if len(params.Tools) > 0 {
		req.Tools = toAnthropicTools(params.Tools)
	}

	resp, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return generateResult{}, fmt.Errorf("anthropic: %w", err)
	}

	var content strings.Builder
	var calls []domain.ToolCall
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if m, ok := b.Input.(map[string]any); ok {
				args = m
			} else if raw, err := json.Marshal(b.Input); err == nil {
				json.Unmarshal(raw, &args)
			}
			calls = append(calls, domain.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}

	return generateResult{
		Content:    content.String(),
		Model:      model,
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		ToolCalls:  calls,
		IsToolUse:  resp.StopReason == anthropic.StopReasonToolUse,
	}, nil
}

func toAnthropicMessages(messages []domain.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleUser:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case domain.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return result
}

func toAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := t.InputSchema["properties"].(map[string]any); ok {
			schema.Properties = props
		}
		if required, ok := t.InputSchema["required"].([]any); ok {
			for _, r := range required {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return result
}
