// Package brain implements the multi-provider LLM dispatcher: ordered
// failover and retry across provider variants, a memory-augmented system
// prompt, an MCP tool-call loop, rule-based memory capture, a persisted
// daily token budget, and bounded transcript persistence.
package brain

import (
	"context"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// ToolDefinition is the canonical tool shape passed to a provider's
// Generate, independent of any provider's native function/tool schema.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// GenerateParams is the canonical request every provider variant converts
// into its own wire format.
type GenerateParams struct {
	SystemPrompt string
	Messages     []domain.Message
	Tools        []ToolDefinition
	Model        string
	MaxTokens    int
}

// generateResult is the canonical response every provider variant produces
// from its native reply, including the model that answered. The provider's
// name is not part of it: the caller attaches that (see namedResult), since
// the failover loop moves between providers.
type generateResult struct {
	Content    string
	Model      string
	TokensUsed int
	ToolCalls  []domain.ToolCall
	IsToolUse  bool
}

// Provider is one LLM service back-end. Implementations keep their own
// native SDK client handle; this is a closed set of variants behind one
// interface, not a class hierarchy.
type Provider interface {
	Name() string
	Generate(ctx context.Context, params GenerateParams) (generateResult, error)
}

// toolProvider is the subset of *mcp.Manager the Brain depends on, kept
// narrow so tests can supply a stub without spinning up real transports.
type toolProvider interface {
	HasTools() bool
	GetToolsForQuery(query string) []domain.MCPTool
	CallTool(ctx context.Context, fullName string, arguments map[string]any) (string, error)
}

func toolsFromMCP(tools []domain.MCPTool) []ToolDefinition {
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = ToolDefinition{
			Name:        t.FullName(),
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}
	return defs
}
