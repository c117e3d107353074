package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// startTestServer launches this same test binary as the child process,
// re-entering TestMCPHelperProcess below to speak a minimal MCP server
// over stdio.
func startTestServer(t *testing.T) *Manager {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	m := New(zerolog.Nop(), map[string]domain.MCPServerConfig{
		"echo": {
			Transport: domain.MCPTransportStdio,
			Command:   os.Args[0],
			Args:      []string{"-test.run=TestMCPHelperProcess", "--"},
			Env:       map[string]string{"GO_WANT_MCP_HELPER": "1"},
		},
	}, 0)
	require.NoError(t, m.StartServer(ctx, "echo"))
	t.Cleanup(m.StopAll)
	return m
}

func TestStartServerDiscoversNamespacedTools(t *testing.T) {
	m := startTestServer(t)
	require.True(t, m.HasTools())
	require.Equal(t, 1, m.ToolCount())

	tools := m.GetToolsForQuery("")
	require.Len(t, tools, 1)
	require.Equal(t, "echo__say", tools[0].FullName())
}

func TestCallToolRoundTrips(t *testing.T) {
	m := startTestServer(t)
	result, err := m.CallTool(context.Background(), "echo__say", map[string]any{"text": "hello"})
	require.NoError(t, err)
	require.Equal(t, "hello", result)
}

// TestMCPHelperProcess is re-invoked as a subprocess by startTestServer;
// it is a no-op under `go test` itself.
func TestMCPHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_MCP_HELPER") != "1" {
		return
	}
	defer os.Exit(0)

	w := bufio.NewWriter(os.Stdout)
	write := func(v any) {
		b, _ := json.Marshal(v)
		w.Write(b)
		w.WriteString("\n")
		w.Flush()
	}

	r := bufio.NewReader(os.Stdin)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(line, &probe); err != nil {
			continue
		}
		methodRaw, hasMethod := probe["method"]
		if !hasMethod {
			continue
		}
		var method string
		json.Unmarshal(methodRaw, &method)
		idRaw, hasID := probe["id"]

		switch method {
		case "initialize":
			write(map[string]any{"id": raw(idRaw), "result": map[string]any{"serverInfo": map[string]any{"name": "echo"}}})
		case "notifications/initialized":
			// no reply
		case "tools/list":
			write(map[string]any{"id": raw(idRaw), "result": map[string]any{
				"tools": []map[string]any{
					{"name": "say", "description": "echoes text back", "inputSchema": map[string]any{}},
				},
			}})
		case "tools/call":
			var params struct {
				Arguments struct {
					Text string `json:"text"`
				} `json:"arguments"`
			}
			json.Unmarshal(probe["params"], &params)
			write(map[string]any{"id": raw(idRaw), "result": map[string]any{
				"content": []map[string]any{{"type": "text", "text": params.Arguments.Text}},
			}})
		default:
			if hasID {
				write(map[string]any{"id": raw(idRaw), "result": map[string]any{}})
			}
		}
	}
}

func raw(m json.RawMessage) json.RawMessage {
	if len(m) == 0 {
		return json.RawMessage("null")
	}
	return m
}
