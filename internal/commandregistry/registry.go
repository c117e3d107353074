// Package commandregistry is the shared command dispatcher used by any
// chat front-end: a flat table of command descriptors plus the gating and
// lookup logic, grounded on original_source/core/commands.py's COMMANDS
// list and original_source/modes/ssh_chat.py's dispatch loop.
package commandregistry

import (
	"context"
	"fmt"
	"strings"
)

// HandlerFunc executes a command. args is the raw text after the command
// name, already trimmed, empty if none was given. Unlike the Python
// original (which introspects the handler method's signature to decide
// whether to pass args), every Go handler takes args unconditionally;
// handlers that never need it just ignore the parameter.
type HandlerFunc func(ctx context.Context, args string) (string, error)

// Command is one entry in the registry.
type Command struct {
	Name          string
	Description   string
	Category      string
	RequiresBrain bool
	RequiresAPI   bool
	Handler       HandlerFunc
}

// Registry is a flat, ordered table of commands keyed by name.
type Registry struct {
	order  []string
	byName map[string]Command
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds or replaces a command. Registering the same name twice
// keeps its original position in the iteration order of Commands and
// ByCategory.
func (r *Registry) Register(cmd Command) {
	if _, exists := r.byName[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	r.byName[cmd.Name] = cmd
}

// Get looks up a command by name, accepting an optional leading slash and
// any casing, mirroring get_command's lstrip("/").lower().
func (r *Registry) Get(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Commands returns every registered command in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// ByCategory groups commands by category, preserving registration order
// within each category.
func (r *Registry) ByCategory() map[string][]Command {
	out := make(map[string][]Command)
	for _, name := range r.order {
		cmd := r.byName[name]
		out[cmd.Category] = append(out[cmd.Category], cmd)
	}
	return out
}

// GateResult is why Dispatch declined to run a handler.
type GateResult string

const (
	GateOK        GateResult = ""
	GateUnknown   GateResult = "unknown_command"
	GateNoBrain   GateResult = "requires_brain"
	GateNoAPI     GateResult = "requires_api"
	GateNoHandler GateResult = "handler_not_registered"
)

// Capabilities reports which optional dependencies the caller currently
// has available, used to gate RequiresBrain/RequiresAPI commands.
type Capabilities struct {
	BrainAvailable bool
	APIAvailable   bool
}

// Dispatch trims a leading '/', looks up the command, gates it against the
// caller's capabilities, and invokes its handler with whatever follows the
// command name. Returns GateOK with the handler's result on success, or a
// non-OK GateResult (and no error) when the command is declined before
// ever calling a handler.
func (r *Registry) Dispatch(ctx context.Context, line string, caps Capabilities) (string, GateResult, error) {
	line = strings.TrimSpace(line)
	name, args, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)

	cmd, ok := r.byName[name]
	if !ok {
		return "", GateUnknown, nil
	}
	if cmd.RequiresBrain && !caps.BrainAvailable {
		return "", GateNoBrain, nil
	}
	if cmd.RequiresAPI && !caps.APIAvailable {
		return "", GateNoAPI, nil
	}
	if cmd.Handler == nil {
		return "", GateNoHandler, nil
	}

	result, err := cmd.Handler(ctx, args)
	if err != nil {
		return "", GateOK, fmt.Errorf("command %q: %w", name, err)
	}
	return result, GateOK, nil
}
