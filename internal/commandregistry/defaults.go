package commandregistry

// DefaultDescriptors returns the command table for the domains this
// module actually implements (info, personality, tasks, session), ported
// from original_source/core/commands.py's COMMANDS list. Handlers are nil
// here; a controller wires each one to a live component via Register,
// which replaces the descriptor in place. Commands whose domain isn't
// built in this module (pentest, wifi, bluetooth, display hardware) are
// intentionally omitted rather than registered with a stub handler.
func DefaultDescriptors() []Command {
	return []Command{
		{Name: "help", Description: "Show available commands", Category: "info"},
		{Name: "level", Description: "Show XP and progression", Category: "info"},
		{Name: "prestige", Description: "Reset level with XP bonus", Category: "info"},
		{Name: "stats", Description: "Show token usage statistics", Category: "info", RequiresBrain: true},
		{Name: "history", Description: "Show recent messages", Category: "info", RequiresBrain: true},
		{Name: "tools", Description: "List available MCP tools, or refresh a server's with 'tools refresh <server>'", Category: "info", RequiresAPI: true},

		{Name: "mood", Description: "Show current mood", Category: "personality"},
		{Name: "energy", Description: "Show energy level", Category: "personality"},
		{Name: "traits", Description: "Show personality traits", Category: "personality"},

		{Name: "tasks", Description: "List tasks with optional filters", Category: "tasks"},
		{Name: "task", Description: "Create or show a task", Category: "tasks"},
		{Name: "done", Description: "Mark a task as complete", Category: "tasks"},
		{Name: "cancel", Description: "Cancel a task", Category: "tasks"},
		{Name: "delete", Description: "Delete a task permanently", Category: "tasks"},
		{Name: "taskstats", Description: "Show task statistics", Category: "tasks"},
		{Name: "find", Description: "Search tasks by keyword", Category: "tasks"},
		{Name: "journal", Description: "Show recent journal entries", Category: "tasks"},
		{Name: "thoughts", Description: "Show recent autonomous thoughts", Category: "info"},

		{Name: "rest", Description: "Take a break (calms down +2 XP)", Category: "session"},
		{Name: "ask", Description: "Explicit chat command", Category: "session", RequiresBrain: true},
		{Name: "clear", Description: "Clear conversation history", Category: "session", RequiresBrain: true},
	}
}

// NewWithDefaults builds a Registry pre-populated with DefaultDescriptors.
func NewWithDefaults() *Registry {
	r := New()
	for _, cmd := range DefaultDescriptors() {
		r.Register(cmd)
	}
	return r
}
