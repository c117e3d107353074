package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// OpenAIProvider wraps the official OpenAI SDK and speaks the Chat
// Completions endpoint, which any OpenAI-compatible host (OpenAI itself,
// Groq, a local proxy) accepts.
type OpenAIProvider struct {
	client  openai.Client
	baseURL string
	model   string
}

// NewOpenAIProvider builds a provider pointed at apiKey/baseURL (baseURL
// empty means the SDK default, api.openai.com).
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...), baseURL: baseURL, model: model}
}

func (o *OpenAIProvider) Name() string { return "openai_compat" }

// usesLegacyMaxTokens implements the base_url-based field switch: hosts
// under ollama.com want the legacy max_tokens field, everyone else wants
// max_completion_tokens.
func usesLegacyMaxTokens(baseURL string) bool {
	return strings.Contains(baseURL, "ollama.com")
}

func (o *OpenAIProvider) Generate(ctx context.Context, params GenerateParams) (generateResult, error) {
	model := params.Model
	if model == "" {
		model = o.model
	}
	req := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toOpenAIMessages(params.SystemPrompt, params.Messages),
	}
	if params.MaxTokens > 0 {
		if usesLegacyMaxTokens(o.baseURL) {
			req.MaxTokens = openai.Int(int64(params.MaxTokens))
		} else {
			req.MaxCompletionTokens = openai.Int(int64(params.MaxTokens))
		}
	}
	if len(params.Tools) > 0 {
		req.Tools = toOpenAITools(params.Tools)
	}

	resp, err := o.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return generateResult{}, fmt.Errorf("openai_compat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return generateResult{}, fmt.Errorf("openai_compat: empty choices")
	}

	msg := resp.Choices[0].Message
	var calls []domain.ToolCall
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		json.Unmarshal([]byte(tc.Function.Arguments), &args)
		calls = append(calls, domain.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}

	return generateResult{
		Content:    msg.Content,
		Model:      model,
		TokensUsed: int(resp.Usage.TotalTokens),
		ToolCalls:  calls,
		IsToolUse:  len(calls) > 0,
	}, nil
}

func toOpenAIMessages(systemPrompt string, messages []domain.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, openai.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case domain.RoleUser:
			result = append(result, openai.UserMessage(m.Content))
		case domain.RoleAssistant:
			result = append(result, openai.AssistantMessage(m.Content))
		}
	}
	return result
}

func toOpenAITools(tools []ToolDefinition) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		fn := openai.FunctionDefinitionParam{
			Name:       t.Name,
			Parameters: t.InputSchema,
		}
		if t.Description != "" {
			fn.Description = openai.String(t.Description)
		}
		result = append(result, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{Function: fn},
		})
	}
	return result
}
