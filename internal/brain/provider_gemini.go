package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// GeminiProvider wraps Google's genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider builds a Gemini provider. baseURL is honored via
// genai.HTTPOptions when non-empty (used by hosted proxies).
func NewGeminiProvider(ctx context.Context, apiKey, baseURL, model string) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) Generate(ctx context.Context, params GenerateParams) (generateResult, error) {
	model := params.Model
	if model == "" {
		model = g.model
	}
	contents := toGeminiContents(params.Messages)
	config := &genai.GenerateContentConfig{}
	if params.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: params.SystemPrompt}}}
	}
	if params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxTokens)
	}
	if len(params.Tools) > 0 {
		config.Tools = toGeminiTools(params.Tools)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return generateResult{}, fmt.Errorf("gemini: %w", err)
	}

	var content strings.Builder
	var calls []domain.ToolCall
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				content.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				args := map[string]any{}
				if part.FunctionCall.Args != nil {
					if raw, err := json.Marshal(part.FunctionCall.Args); err == nil {
						json.Unmarshal(raw, &args)
					}
				}
				calls = append(calls, domain.ToolCall{Name: part.FunctionCall.Name, Arguments: args})
			}
		}
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return generateResult{
		Content:    content.String(),
		Model:      model,
		TokensUsed: tokens,
		ToolCalls:  calls,
		IsToolUse:  len(calls) > 0,
	}, nil
}

func toGeminiContents(messages []domain.Message) []*genai.Content {
	result := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleUser:
			result = append(result, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		case domain.RoleAssistant:
			result = append(result, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return result
}

func toGeminiTools(tools []ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertToGeminiSchema(t.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func convertToGeminiSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	schema := &genai.Schema{Type: genai.TypeObject}
	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = map[string]*genai.Schema{}
		for name, raw := range props {
			if m, ok := raw.(map[string]any); ok {
				schema.Properties[name] = convertPropertyToGeminiSchema(m)
			}
		}
	}
	if required, ok := params["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}

func convertPropertyToGeminiSchema(m map[string]any) *genai.Schema {
	s := &genai.Schema{}
	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}
	if desc, ok := m["description"].(string); ok {
		s.Description = desc
	}
	return s
}
