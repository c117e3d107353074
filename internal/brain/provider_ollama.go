package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// OllamaProvider speaks Ollama Cloud's own /chat wire format directly:
// there is no official Go SDK in the dependency set for it, so this
// follows the same hand-rolled POST-JSON shape internal/mcp/http.go uses
// for the MCP HTTP transport.
type OllamaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider builds a provider against Ollama Cloud (or any host
// speaking the same /chat contract).
func NewOllamaProvider(apiKey, baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "https://ollama.com"
	}
	return &OllamaProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OllamaProvider) Name() string { return "ollama_cloud" }

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type ollamaRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Tools    []ollamaTool        `json:"tools,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaResponse struct {
	Message struct {
		Content   string           `json:"content"`
		ToolCalls []ollamaToolCall `json:"tool_calls"`
	} `json:"message"`
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

func (o *OllamaProvider) Generate(ctx context.Context, params GenerateParams) (generateResult, error) {
	model := params.Model
	if model == "" {
		model = o.model
	}

	messages := make([]ollamaChatMessage, 0, len(params.Messages)+1)
	if params.SystemPrompt != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: params.SystemPrompt})
	}
	for _, m := range params.Messages {
		messages = append(messages, ollamaChatMessage{Role: string(m.Role), Content: m.Content})
	}

	req := ollamaRequest{Model: model, Messages: messages, Stream: false}
	for _, t := range params.Tools {
		var tool ollamaTool
		tool.Type = "function"
		tool.Function.Name = t.Name
		tool.Function.Description = t.Description
		tool.Function.Parameters = t.InputSchema
		req.Tools = append(req.Tools, tool)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return generateResult{}, fmt.Errorf("ollama_cloud: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return generateResult{}, fmt.Errorf("ollama_cloud: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return generateResult{}, fmt.Errorf("ollama_cloud: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return generateResult{}, fmt.Errorf("ollama_cloud: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return generateResult{}, fmt.Errorf("ollama_cloud: status %d: %s", resp.StatusCode, string(raw))
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return generateResult{}, fmt.Errorf("ollama_cloud: decode response: %w", err)
	}

	var calls []domain.ToolCall
	for _, tc := range out.Message.ToolCalls {
		calls = append(calls, domain.ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}

	return generateResult{
		Content:    out.Message.Content,
		Model:      model,
		TokensUsed: out.PromptEvalCount + out.EvalCount,
		ToolCalls:  calls,
		IsToolUse:  len(calls) > 0,
	}, nil
}
