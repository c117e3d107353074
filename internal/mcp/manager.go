package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// coreServers are always fully included by GetToolsForQuery regardless of
// the query text.
var coreServers = map[string]bool{
	"tasks":              true,
	"system":             true,
	"filesystem-inkling": true,
}

// queryKeywords is the fixed whitelist scanned against user text to pull
// in every tool whose namespaced name or description mentions it.
var queryKeywords = []string{
	"gmail", "email", "mail", "inbox",
	"calendar", "event", "meeting", "schedule",
	"sheet", "sheets", "spreadsheet",
	"notion", "note", "notes",
	"github", "git", "repo", "pr", "issue",
	"slack", "message", "chat",
	"drive", "file", "document", "doc",
}

const (
	defaultMaxTools = 20
	safetyCapTools  = 100
)

// Manager owns the set of configured MCP servers: starting/stopping them,
// discovering and namespacing their tools, and routing tool calls.
type Manager struct {
	mu        sync.RWMutex
	servers   map[string]domain.MCPServerConfig
	transport map[string]transport
	tools     map[string]domain.MCPTool // full name -> tool
	maxTools  int
	log       zerolog.Logger

	// refreshGroup de-duplicates concurrent tools/list calls for the same
	// server name into a single in-flight request.
	refreshGroup singleflight.Group
}

// New builds a Manager from server configs keyed by name. maxTools is the
// soft cap used to fill non-matching tools once core and query-matched
// tools are accounted for; 0 selects the default of 20.
func New(log zerolog.Logger, servers map[string]domain.MCPServerConfig, maxTools int) *Manager {
	if maxTools <= 0 {
		maxTools = defaultMaxTools
	}
	named := make(map[string]domain.MCPServerConfig, len(servers))
	for name, cfg := range servers {
		cfg.Name = name
		named[name] = cfg
	}
	return &Manager{
		servers:   named,
		transport: make(map[string]transport),
		tools:     make(map[string]domain.MCPTool),
		maxTools:  maxTools,
		log:       log.With().Str("component", "mcp").Logger(),
	}
}

// StartAll starts every configured server. A single server's failure is
// logged and does not block the rest.
func (m *Manager) StartAll(ctx context.Context) {
	m.mu.RLock()
	names := make([]string, 0, len(m.servers))
	for name := range m.servers {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		if err := m.StartServer(ctx, name); err != nil {
			m.log.Error().Err(err).Str("mcp_server", name).Msg("failed to start mcp server")
		}
	}
}

// StartServer launches (or connects to) one server and discovers its
// tools.
func (m *Manager) StartServer(ctx context.Context, name string) error {
	m.mu.RLock()
	cfg, ok := m.servers[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown mcp server: %s", name)
	}

	var tr transport
	var err error
	switch cfg.Transport {
	case domain.MCPTransportHTTP:
		if cfg.URL == "" {
			return fmt.Errorf("http transport requires url for server: %s", name)
		}
		tr = newHTTPTransport(name, cfg)
	default:
		tr, err = startStdio(ctx, name, cfg, m.log)
		if err != nil {
			return err
		}
	}

	if err := m.initialize(ctx, name, tr); err != nil {
		_ = tr.close()
		return err
	}
	if err := m.discoverTools(ctx, name, tr); err != nil {
		_ = tr.close()
		return err
	}

	m.mu.Lock()
	m.transport[name] = tr
	m.mu.Unlock()
	return nil
}

func (m *Manager) initialize(ctx context.Context, name string, tr transport) error {
	raw, err := tr.call(ctx, "initialize", initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      clientInfo{Name: "inklingd", Version: "1.0.0"},
	})
	if err != nil {
		return fmt.Errorf("initializing mcp server %s: %w", name, err)
	}
	var result initializeResult
	_ = unmarshalIfPresent(raw, &result)

	if err := tr.notify(ctx, "notifications/initialized", map[string]any{}); err != nil {
		return fmt.Errorf("notifying initialized for %s: %w", name, err)
	}
	m.log.Info().Str("mcp_server", name).Str("server_info", result.ServerInfo.Name).Msg("mcp server initialized")
	return nil
}

// RefreshTools re-lists name's tools against its already-connected
// transport, replacing its entries in the discovered tool table. Concurrent
// callers asking to refresh the same server share one in-flight
// "tools/list" call via refreshGroup instead of issuing it twice.
func (m *Manager) RefreshTools(ctx context.Context, name string) error {
	m.mu.RLock()
	tr, ok := m.transport[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("mcp server not connected: %s", name)
	}

	_, err, _ := m.refreshGroup.Do(name, func() (any, error) {
		return nil, m.discoverTools(ctx, name, tr)
	})
	return err
}

func (m *Manager) discoverTools(ctx context.Context, name string, tr transport) error {
	raw, err := tr.call(ctx, "tools/list", map[string]any{})
	if err != nil {
		return fmt.Errorf("listing tools from %s: %w", name, err)
	}
	var result toolsListResult
	if err := unmarshalIfPresent(raw, &result); err != nil {
		return err
	}

	m.mu.Lock()
	for fullName, tool := range m.tools {
		if tool.ServerName == name {
			delete(m.tools, fullName)
		}
	}
	names := make([]string, 0, len(result.Tools))
	for _, wt := range result.Tools {
		tool := domain.MCPTool{
			LocalName:   wt.Name,
			Description: wt.Description,
			InputSchema: wt.InputSchema,
			ServerName:  name,
		}
		m.tools[tool.FullName()] = tool
		names = append(names, wt.Name)
	}
	m.mu.Unlock()

	m.log.Info().Str("mcp_server", name).Int("tool_count", len(names)).Strs("tools", names).Msg("mcp tools discovered")
	return nil
}

// CallTool invokes fullName ("server__local") with the given arguments
// and returns the extracted text content (or a stringified result if no
// text block is present).
func (m *Manager) CallTool(ctx context.Context, fullName string, arguments map[string]any) (string, error) {
	m.mu.RLock()
	tool, ok := m.tools[fullName]
	tr, hasTr := m.transport[tool.ServerName]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", fullName)
	}
	if !hasTr {
		return "", fmt.Errorf("mcp server not connected: %s", tool.ServerName)
	}

	raw, err := tr.call(ctx, "tools/call", toolsCallParams{Name: tool.LocalName, Arguments: arguments})
	if err != nil {
		return "", err
	}
	var result toolsCallResult
	if err := unmarshalIfPresent(raw, &result); err != nil {
		return string(raw), nil
	}
	if len(result.Content) > 0 && result.Content[0].Text != "" {
		return result.Content[0].Text, nil
	}
	return string(raw), nil
}

// HasTools reports whether any server has produced at least one tool.
func (m *Manager) HasTools() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tools) > 0
}

// ToolCount returns the number of discovered tools across all servers.
func (m *Manager) ToolCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tools)
}

// SearchTools returns up to limit tools whose namespaced name,
// description, or server name contains query (case-insensitive).
func (m *Manager) SearchTools(query string, limit int) []domain.MCPTool {
	q := strings.ToLower(query)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []domain.MCPTool
	for _, name := range m.sortedToolNames() {
		tool := m.tools[name]
		if strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(tool.Description), q) ||
			strings.Contains(strings.ToLower(tool.ServerName), q) {
			matches = append(matches, tool)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

// sortedToolNames must be called with m.mu held.
func (m *Manager) sortedToolNames() []string {
	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolsForQuery implements the smart-routing tool subset: core
// server tools and every tool matched by a keyword in query are always
// included (no cap); the remainder fill the soft cap; a hard safety cap
// of 100 bounds the final result.
func (m *Manager) GetToolsForQuery(query string) []domain.MCPTool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var core, other []domain.MCPTool
	for _, name := range m.sortedToolNames() {
		tool := m.tools[name]
		if coreServers[tool.ServerName] {
			core = append(core, tool)
		} else {
			other = append(other, tool)
		}
	}

	essential := append([]domain.MCPTool{}, core...)
	if query != "" {
		essential = append(essential, m.queryMatchedLocked(query, core)...)
	}

	remaining := m.maxTools - len(essential)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > len(other) {
		remaining = len(other)
	}
	combined := append(essential, other[:remaining]...)

	seen := make(map[string]bool, len(combined))
	unique := make([]domain.MCPTool, 0, len(combined))
	for _, tool := range combined {
		if seen[tool.FullName()] {
			continue
		}
		seen[tool.FullName()] = true
		unique = append(unique, tool)
	}

	if len(unique) > safetyCapTools {
		unique = unique[:safetyCapTools]
	}
	return unique
}

// queryMatchedLocked must be called with m.mu held (read or write).
func (m *Manager) queryMatchedLocked(query string, exclude []domain.MCPTool) []domain.MCPTool {
	excluded := make(map[string]bool, len(exclude))
	for _, tool := range exclude {
		excluded[tool.FullName()] = true
	}

	ql := strings.ToLower(query)
	var matched []domain.MCPTool
	seen := make(map[string]bool)
	for _, keyword := range queryKeywords {
		if !strings.Contains(ql, keyword) {
			continue
		}
		for _, name := range m.sortedToolNames() {
			tool := m.tools[name]
			if excluded[tool.FullName()] || seen[tool.FullName()] {
				continue
			}
			if strings.Contains(strings.ToLower(name), keyword) || strings.Contains(strings.ToLower(tool.Description), keyword) {
				matched = append(matched, tool)
				seen[tool.FullName()] = true
			}
		}
	}
	return matched
}

// StopAll terminates every connected server: stdio children get SIGTERM
// with a 5s grace period then SIGKILL; HTTP transports have no
// connection to tear down.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, tr := range m.transport {
		if err := tr.close(); err != nil {
			m.log.Warn().Err(err).Str("mcp_server", name).Msg("error stopping mcp server")
		}
	}
	m.transport = make(map[string]transport)
	m.tools = make(map[string]domain.MCPTool)
}
