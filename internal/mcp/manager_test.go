package mcp

import (
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

func newTestManagerWithTools(maxTools int, tools ...domain.MCPTool) *Manager {
	m := New(zerolog.Nop(), map[string]domain.MCPServerConfig{}, maxTools)
	for _, tool := range tools {
		m.tools[tool.FullName()] = tool
	}
	return m
}

func TestGetToolsForQueryAlwaysIncludesCoreServers(t *testing.T) {
	m := newTestManagerWithTools(5,
		domain.MCPTool{LocalName: "list", ServerName: "tasks"},
		domain.MCPTool{LocalName: "read", ServerName: "system"},
		domain.MCPTool{LocalName: "unrelated", ServerName: "weather"},
	)
	tools := m.GetToolsForQuery("")
	names := toolNames(tools)
	require.Contains(t, names, "tasks__list")
	require.Contains(t, names, "system__read")
}

func TestGetToolsForQueryMatchesKeywordWithNoLimit(t *testing.T) {
	m := New(zerolog.Nop(), map[string]domain.MCPServerConfig{}, 3)
	for i := 0; i < 15; i++ {
		tool := domain.MCPTool{LocalName: "draft" + strconv.Itoa(i), ServerName: "gmail", Description: "compose a gmail draft"}
		m.tools[tool.FullName()] = tool
	}

	matched := m.GetToolsForQuery("send me a gmail draft")
	require.Len(t, matched, 15)
}

func TestGetToolsForQueryFillsRemainingUpToSoftCap(t *testing.T) {
	m := newTestManagerWithTools(2,
		domain.MCPTool{LocalName: "a", ServerName: "other1"},
		domain.MCPTool{LocalName: "b", ServerName: "other2"},
		domain.MCPTool{LocalName: "c", ServerName: "other3"},
	)
	tools := m.GetToolsForQuery("")
	require.Len(t, tools, 2)
}

func TestGetToolsForQueryDeduplicatesPreservingOrder(t *testing.T) {
	m := newTestManagerWithTools(10,
		domain.MCPTool{LocalName: "list", ServerName: "tasks", Description: "list github issues"},
	)
	tools := m.GetToolsForQuery("show me github issues")
	require.Len(t, tools, 1)
}

func TestGetToolsForQuerySafetyCapAt100(t *testing.T) {
	m := New(zerolog.Nop(), map[string]domain.MCPServerConfig{}, 500)
	for i := 0; i < 150; i++ {
		tool := domain.MCPTool{LocalName: "tool" + strconv.Itoa(i), ServerName: "bulk"}
		m.tools[tool.FullName()] = tool
	}
	tools := m.GetToolsForQuery("")
	require.Len(t, tools, safetyCapTools)
}

func TestSearchToolsMatchesNameDescriptionOrServer(t *testing.T) {
	m := newTestManagerWithTools(10,
		domain.MCPTool{LocalName: "read_file", ServerName: "filesystem-inkling", Description: "reads a file"},
		domain.MCPTool{LocalName: "send", ServerName: "slack", Description: "sends a message"},
	)
	matches := m.SearchTools("slack", 10)
	require.Len(t, matches, 1)
	require.Equal(t, "slack__send", matches[0].FullName())
}

func toolNames(tools []domain.MCPTool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.FullName()
	}
	return names
}
