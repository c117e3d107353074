package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

func TestHTTPTransportCapturesSessionID(t *testing.T) {
	var gotSessionID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotSessionID = r.Header.Get("Mcp-Session-Id")
		w.Header().Set("Mcp-Session-Id", "sess-123")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"ok":true}}`, req.ID)
	}))
	defer srv.Close()

	tr := newHTTPTransport("test", domain.MCPServerConfig{URL: srv.URL})

	_, err := tr.call(t.Context(), "first", map[string]any{})
	require.NoError(t, err)
	require.Empty(t, gotSessionID)

	_, err = tr.call(t.Context(), "second", map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "sess-123", gotSessionID)
}

func TestHTTPTransportParsesSSEResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"stale\":true}}\n\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"ok\":true}}\n\n")
	}))
	defer srv.Close()

	tr := newHTTPTransport("test", domain.MCPServerConfig{URL: srv.URL})
	raw, err := tr.call(t.Context(), "whatever", map[string]any{})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestHTTPTransportSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`)
	}))
	defer srv.Close()

	tr := newHTTPTransport("test", domain.MCPServerConfig{URL: srv.URL})
	_, err := tr.call(t.Context(), "unknown", map[string]any{})
	require.ErrorContains(t, err, "method not found")
}
