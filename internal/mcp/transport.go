package mcp

import (
	"context"
	"encoding/json"
)

// transport sends JSON-RPC requests/notifications to one MCP server and
// resolves pending requests as responses arrive. Both stdio and HTTP
// back-ends implement it so Manager can treat every server uniformly.
type transport interface {
	// call sends a request and blocks for its matching response.
	call(ctx context.Context, method string, params any) (json.RawMessage, error)
	// notify sends a notification; no reply is expected.
	notify(ctx context.Context, method string, params any) error
	// close terminates the underlying connection/process.
	close() error
}

var (
	_ transport = (*stdioTransport)(nil)
	_ transport = (*httpTransport)(nil)
)
