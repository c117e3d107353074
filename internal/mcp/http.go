package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// httpTransport speaks JSON-RPC over HTTP POST, per request, to a single
// MCP server. It captures the Mcp-Session-Id header from the first
// response and echoes it on every subsequent request for that server.
type httpTransport struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client

	nextID atomic.Int64

	mu        sync.Mutex
	sessionID string
}

func newHTTPTransport(name string, cfg domain.MCPServerConfig) *httpTransport {
	return &httpTransport{
		name:    name,
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (t *httpTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := t.nextID.Add(1)
	body, err := json.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	resp, err := t.post(ctx, body)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp %s: %s", method, resp.Error.Message)
	}
	return resp.Result, nil
}

func (t *httpTransport) notify(ctx context.Context, method string, params any) error {
	body, err := json.Marshal(notification{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	_, err = t.doPost(ctx, body, false)
	return err
}

func (t *httpTransport) post(ctx context.Context, body []byte) (response, error) {
	raw, err := t.doPost(ctx, body, true)
	if err != nil {
		return response{}, err
	}
	return parseJSONRPCBody(raw)
}

func (t *httpTransport) doPost(ctx context.Context, body []byte, wantReply bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	t.mu.Lock()
	sid := t.sessionID
	t.mu.Unlock()
	if sid != "" {
		req.Header.Set("Mcp-Session-Id", sid)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mcp http request to %s: %w", t.name, err)
	}
	defer resp.Body.Close()

	if newSID := resp.Header.Get("Mcp-Session-Id"); newSID != "" {
		t.mu.Lock()
		t.sessionID = newSID
		t.mu.Unlock()
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("mcp http %d from %s: %s", resp.StatusCode, t.name, strings.TrimSpace(string(raw)))
	}
	if !wantReply {
		return nil, nil
	}
	return raw, nil
}

func (t *httpTransport) close() error {
	return nil
}

// parseJSONRPCBody accepts either a plain JSON body or a Server-Sent
// Events stream and returns the last parseable "data: {json}" line.
func parseJSONRPCBody(raw []byte) (response, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "data:") || strings.Contains(text, "\ndata:") {
		lines := strings.Split(text, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			line := strings.TrimSpace(lines[i])
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			jsonStr := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			var resp response
			if err := json.Unmarshal([]byte(jsonStr), &resp); err == nil {
				return resp, nil
			}
		}
		return response{}, fmt.Errorf("no valid JSON data line in SSE response")
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return response{}, fmt.Errorf("decoding mcp http response: %w", err)
	}
	return resp, nil
}
