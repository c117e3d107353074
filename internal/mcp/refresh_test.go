package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// countingTransport answers tools/list with whatever toolsListResult is
// currently in listResult, counting how many times call actually ran its
// body (as opposed to sharing an in-flight singleflight call).
type countingTransport struct {
	mu         sync.Mutex
	listResult toolsListResult
	calls      int32
	delay      time.Duration
}

func (t *countingTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	atomic.AddInt32(&t.calls, 1)
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.Marshal(t.listResult)
}

func (t *countingTransport) notify(ctx context.Context, method string, params any) error { return nil }
func (t *countingTransport) close() error                                               { return nil }

func newManagerWithFakeTransport(name string, tr transport) *Manager {
	m := New(zerolog.Nop(), map[string]domain.MCPServerConfig{}, 0)
	m.transport[name] = tr
	return m
}

func TestRefreshToolsReplacesStaleEntriesForThatServer(t *testing.T) {
	tr := &countingTransport{listResult: toolsListResult{Tools: []wireTool{{Name: "old_tool"}}}}
	m := newManagerWithFakeTransport("demo", tr)

	require.NoError(t, m.RefreshTools(context.Background(), "demo"))
	require.Contains(t, m.tools, "demo__old_tool")

	tr.mu.Lock()
	tr.listResult = toolsListResult{Tools: []wireTool{{Name: "new_tool"}}}
	tr.mu.Unlock()

	require.NoError(t, m.RefreshTools(context.Background(), "demo"))
	require.NotContains(t, m.tools, "demo__old_tool")
	require.Contains(t, m.tools, "demo__new_tool")
}

func TestRefreshToolsUnknownServerErrors(t *testing.T) {
	m := New(zerolog.Nop(), map[string]domain.MCPServerConfig{}, 0)
	err := m.RefreshTools(context.Background(), "missing")
	require.Error(t, err)
}

func TestRefreshToolsDeduplicatesConcurrentCallsForSameServer(t *testing.T) {
	tr := &countingTransport{
		listResult: toolsListResult{Tools: []wireTool{{Name: "t1"}}},
		delay:      30 * time.Millisecond,
	}
	m := newManagerWithFakeTransport("demo", tr)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, m.RefreshTools(context.Background(), "demo"))
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, atomic.LoadInt32(&tr.calls), int32(2))
}
