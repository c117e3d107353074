package brain

import "github.com/inkling-labs/inkling-core/internal/domain"

// thinkConfig holds the per-call knobs for Brain.Think, defaulted by Think
// itself and overridden by ThinkOption values.
type thinkConfig struct {
	maxRetries     int
	useTools       bool
	maxToolRounds  int
	maxNewPerTurn  int
	statusCallback domain.StatusCallback
}

// maxNewMemories returns the configured cap on rule-based captures for this
// call, defaulting to 3 when unset.
func (c thinkConfig) maxNewMemories() int {
	if c.maxNewPerTurn > 0 {
		return c.maxNewPerTurn
	}
	return 3
}

// ThinkOption customizes a single Brain.Think call.
type ThinkOption func(*thinkConfig)

// WithTools enables or disables MCP tool use for this call.
func WithTools(enabled bool) ThinkOption {
	return func(c *thinkConfig) { c.useTools = enabled }
}

// WithMaxRetries overrides the per-provider retry count.
func WithMaxRetries(n int) ThinkOption {
	return func(c *thinkConfig) { c.maxRetries = n }
}

// WithMaxToolRounds overrides the tool-call round cap.
func WithMaxToolRounds(n int) ThinkOption {
	return func(c *thinkConfig) { c.maxToolRounds = n }
}

// WithMaxNewMemories overrides how many rule-based captures one call may
// store.
func WithMaxNewMemories(n int) ThinkOption {
	return func(c *thinkConfig) { c.maxNewPerTurn = n }
}

// WithStatusCallback wires a UI status callback for the tool-call loop.
func WithStatusCallback(cb domain.StatusCallback) ThinkOption {
	return func(c *thinkConfig) { c.statusCallback = cb }
}
