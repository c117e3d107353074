package controller

import (
	"context"
	"strings"

	"github.com/inkling-labs/inkling-core/internal/commandregistry"
)

// capabilities reports which gated command dependencies are currently wired.
func (c *Controller) capabilities() commandregistry.Capabilities {
	return commandregistry.Capabilities{
		BrainAvailable: len(c.Brain.GetStats().Providers) > 0,
		APIAvailable:   c.Config.MCP.Enabled,
	}
}

// HandleInput is the single entry point any front-end calls for one line of
// user input: slash-prefixed text is dispatched as a command, anything else
// goes to Chat. This mirrors ssh_chat.py's split between _handle_command and
// _handle_message at the top of its read loop.
//
// The actual work is marshaled onto the heartbeat's main loop via Submit, so
// a chat turn never runs concurrently with a tick touching the same
// personality/brain state, the same way ssh_chat.py and the heartbeat poller
// shared one asyncio event loop.
func (c *Controller) HandleInput(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}

	var reply string
	var handleErr error
	if err := c.Heartbeat.Submit(ctx, func(ctx context.Context) {
		reply, handleErr = c.dispatchInput(ctx, line)
	}); err != nil {
		return "", err
	}
	return reply, handleErr
}

func (c *Controller) dispatchInput(ctx context.Context, line string) (string, error) {
	if !strings.HasPrefix(line, "/") {
		return c.Chat(ctx, line)
	}

	result, gate, err := c.Registry.Dispatch(ctx, line, c.capabilities())
	if err != nil {
		return "", err
	}
	switch gate {
	case commandregistry.GateOK:
		return result, nil
	case commandregistry.GateUnknown:
		return "Unknown command. Type /help for available commands.", nil
	case commandregistry.GateNoBrain:
		return "This command requires AI features to be enabled.", nil
	case commandregistry.GateNoAPI:
		return "This command requires MCP tools to be enabled.", nil
	case commandregistry.GateNoHandler:
		return "Command recognized but not yet wired up.", nil
	default:
		return "", nil
	}
}
