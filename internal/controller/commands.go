package controller

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/inkling-labs/inkling-core/internal/commandregistry"
	"github.com/inkling-labs/inkling-core/internal/domain"
	"github.com/inkling-labs/inkling-core/internal/personality"
	"github.com/inkling-labs/inkling-core/internal/progression"
)

// buildRegistry wires a concrete handler into every descriptor that
// DefaultDescriptors names, keyed by name so wiring order doesn't matter.
func (c *Controller) buildRegistry() *commandregistry.Registry {
	handlers := map[string]commandregistry.HandlerFunc{
		"help":      c.cmdHelp,
		"level":     c.cmdLevel,
		"prestige":  c.cmdPrestige,
		"stats":     c.cmdStats,
		"history":   c.cmdHistory,
		"tools":     c.cmdTools,
		"mood":      c.cmdMood,
		"energy":    c.cmdEnergy,
		"traits":    c.cmdTraits,
		"tasks":     c.cmdTasks,
		"task":      c.cmdTask,
		"done":      c.cmdDone,
		"cancel":    c.cmdCancel,
		"delete":    c.cmdDelete,
		"taskstats": c.cmdTaskStats,
		"find":      c.cmdFind,
		"journal":   c.cmdJournal,
		"thoughts":  c.cmdThoughts,
		"rest":      c.cmdRest,
		"ask":       c.cmdAsk,
		"clear":     c.cmdClear,
	}

	reg := commandregistry.NewWithDefaults()
	for _, cmd := range reg.Commands() {
		if h, ok := handlers[cmd.Name]; ok {
			cmd.Handler = h
			reg.Register(cmd)
		}
	}
	return reg
}

// wireSchedulerActions registers the ActionHandler symbols a scheduler.json
// config may reference by name. Unregistered action names simply fail to
// dispatch (logged by scheduler.Manager), nothing here requires them.
func (c *Controller) wireSchedulerActions() {
	c.Scheduler.RegisterAction("prune_old_memories", func(ctx context.Context) error {
		if c.Memory == nil {
			return nil
		}
		_, err := c.Memory.ForgetOld(90, 0.3)
		return err
	})
	c.Scheduler.RegisterAction("save_personality", func(ctx context.Context) error {
		c.Personality.Save()
		return nil
	})
}

func (c *Controller) cmdHelp(ctx context.Context, args string) (string, error) {
	var b strings.Builder
	categories := c.Registry.ByCategory()
	order := []string{"info", "personality", "tasks", "session"}
	for _, cat := range order {
		cmds := categories[cat]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", strings.ToUpper(cat[:1])+cat[1:])
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "  /%-10s %s\n", cmd.Name, cmd.Description)
		}
	}
	return b.String(), nil
}

func (c *Controller) cmdLevel(ctx context.Context, args string) (string, error) {
	tr := c.Personality.Progression
	return fmt.Sprintf("Level %d %s (prestige %d), %d XP, next level at %d XP",
		tr.Level, progression.LevelName(tr.Level), tr.Prestige, tr.XP, progression.XPForLevel(tr.Level+1)), nil
}

func (c *Controller) cmdPrestige(ctx context.Context, args string) (string, error) {
	if !c.Personality.Progression.CanPrestige() {
		return "Not ready to prestige yet, reach the max level first.", nil
	}
	if !c.Personality.Progression.DoPrestige() {
		return "Prestige failed.", nil
	}
	return fmt.Sprintf("Prestiged! Now at prestige %d, back to level 1.", c.Personality.Progression.Prestige), nil
}

func (c *Controller) cmdStats(ctx context.Context, args string) (string, error) {
	s := c.Brain.GetStats()
	return fmt.Sprintf("Tokens used today: %d, messages in history: %d, providers: %s",
		s.TokensUsedToday, s.MessageCount, strings.Join(s.Providers, ", ")), nil
}

func (c *Controller) cmdHistory(ctx context.Context, args string) (string, error) {
	s := c.Brain.GetStats()
	return fmt.Sprintf("%d messages in history", s.MessageCount), nil
}

// cmdTools lists discovered MCP tools, or with "refresh <server>" re-lists
// one server's tools (concurrent refreshes of the same server collapse into
// one in-flight call, see mcp.Manager.RefreshTools).
func (c *Controller) cmdTools(ctx context.Context, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 2 && fields[0] == "refresh" {
		if err := c.MCP.RefreshTools(ctx, fields[1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("refreshed tools for %s", fields[1]), nil
	}

	count := c.MCP.ToolCount()
	if count == 0 {
		return "No MCP tools discovered.", nil
	}
	matches := c.MCP.SearchTools("", count)
	var b strings.Builder
	fmt.Fprintf(&b, "%d tools:\n", count)
	for _, tool := range matches {
		fmt.Fprintf(&b, "  %s: %s\n", tool.FullName(), tool.Description)
	}
	return b.String(), nil
}

func (c *Controller) cmdMood(ctx context.Context, args string) (string, error) {
	return fmt.Sprintf("%s, feeling %s (intensity %.2f)", c.Personality.Face(), c.Personality.CurrentMood(), c.Personality.Mood.Intensity), nil
}

func (c *Controller) cmdEnergy(ctx context.Context, args string) (string, error) {
	energy := c.Personality.Energy()
	filled := int(energy * 5)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", 5-filled)
	return fmt.Sprintf("Energy: [%s] %.0f%%", bar, energy*100), nil
}

func (c *Controller) cmdTraits(ctx context.Context, args string) (string, error) {
	t := c.Personality.Traits
	return fmt.Sprintf("curiosity %.2f, cheerfulness %.2f, verbosity %.2f, playfulness %.2f, empathy %.2f, independence %.2f",
		t.Curiosity, t.Cheerfulness, t.Verbosity, t.Playfulness, t.Empathy, t.Independence), nil
}

func (c *Controller) cmdTasks(ctx context.Context, args string) (string, error) {
	tasks, err := c.Tasks.ListTasks(nil, nil, nil, 20)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "No tasks.", nil
	}
	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "[%s] %s (%s, %s)\n", t.ID[:8], t.Title, t.Status, t.Priority)
	}
	return b.String(), nil
}

func (c *Controller) cmdTask(ctx context.Context, args string) (string, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "Usage: /task <title>", nil
	}
	created, err := c.Tasks.CreateTask(domain.Task{Title: args, MoodOnCreation: string(c.Personality.CurrentMood())})
	if err != nil {
		return "", err
	}
	result := c.Personality.OnTaskEvent("task_created", TaskEventDataFrom(created))
	reply := fmt.Sprintf("Created task %s: %q", created.ID[:8], created.Title)
	if result.Message != "" {
		reply += "\n" + result.Message
	}
	return reply, nil
}

func (c *Controller) cmdDone(ctx context.Context, args string) (string, error) {
	id, err := c.resolveTaskID(args)
	if err != nil {
		return err.Error(), nil
	}
	completed, err := c.Tasks.CompleteTask(id)
	if err != nil {
		return "", err
	}
	if completed == nil {
		return "No such task.", nil
	}
	onTime := completed.DueDate == nil || !completed.DueDate.Before(*completed.CompletedAt)
	data := TaskEventDataFrom(*completed)
	data.OnTime = onTime
	data.Streak = c.Personality.Progression.CurrentStreak
	result := c.Personality.OnTaskEvent("task_completed", data)
	reply := fmt.Sprintf("Completed %q", completed.Title)
	if result.XPAwarded > 0 {
		reply += fmt.Sprintf(" (+%d XP)", result.XPAwarded)
	}
	if result.Message != "" {
		reply += "\n" + result.Message
	}
	return reply, nil
}

func (c *Controller) cmdCancel(ctx context.Context, args string) (string, error) {
	id, err := c.resolveTaskID(args)
	if err != nil {
		return err.Error(), nil
	}
	t, ok, err := c.Tasks.GetTask(id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "No such task.", nil
	}
	t.Status = domain.TaskStatusCancelled
	if err := c.Tasks.UpdateTask(t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Cancelled %q", t.Title), nil
}

func (c *Controller) cmdDelete(ctx context.Context, args string) (string, error) {
	id, err := c.resolveTaskID(args)
	if err != nil {
		return err.Error(), nil
	}
	ok, err := c.Tasks.DeleteTask(id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "No such task.", nil
	}
	return "Deleted.", nil
}

func (c *Controller) cmdTaskStats(ctx context.Context, args string) (string, error) {
	stats, err := c.Tasks.GetStats()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Total %d, pending %d, in progress %d, completed %d, overdue %d, due soon %d, 30d completion %.0f%%",
		stats.Total, stats.Pending, stats.InProgress, stats.Completed, stats.Overdue, stats.DueSoon, stats.CompletionRate30d*100), nil
}

func (c *Controller) cmdFind(ctx context.Context, args string) (string, error) {
	term := strings.ToLower(strings.TrimSpace(args))
	if term == "" {
		return "Usage: /find <keyword>", nil
	}
	tasks, err := c.Tasks.ListTasks(nil, nil, nil, 0)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), term) || strings.Contains(strings.ToLower(t.Description), term) {
			fmt.Fprintf(&b, "[%s] %s (%s)\n", t.ID[:8], t.Title, t.Status)
		}
	}
	if b.Len() == 0 {
		return "No matching tasks.", nil
	}
	return b.String(), nil
}

func (c *Controller) cmdJournal(ctx context.Context, args string) (string, error) {
	return tailLines(c.Config.DataDir+"/journal.log", 10)
}

func (c *Controller) cmdThoughts(ctx context.Context, args string) (string, error) {
	return tailLines(c.Config.DataDir+"/thoughts.log", 10)
}

func (c *Controller) cmdRest(ctx context.Context, args string) (string, error) {
	c.Personality.OnInteraction(true, progression.SourceGreeting, 2, "rest")
	c.Personality.Mood.Intensity = 0.3
	return "Taking a breather. Back to it shortly.", nil
}

func (c *Controller) cmdAsk(ctx context.Context, args string) (string, error) {
	if strings.TrimSpace(args) == "" {
		return "Usage: /ask <question>", nil
	}
	return c.Chat(ctx, args)
}

func (c *Controller) cmdClear(ctx context.Context, args string) (string, error) {
	c.Brain.ClearHistory()
	return "Conversation history cleared.", nil
}

// TaskEventDataFrom translates a stored Task into the narrow shape
// Personality.OnTaskEvent reacts to.
func TaskEventDataFrom(t domain.Task) personality.TaskEventData {
	return personality.TaskEventData{
		Title:    t.Title,
		Priority: string(t.Priority),
	}
}

func (c *Controller) resolveTaskID(args string) (string, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", fmt.Errorf("usage: provide a task ID")
	}
	if len(args) >= 8 {
		if _, ok, _ := c.Tasks.GetTask(args); ok {
			return args, nil
		}
	}
	tasks, err := c.Tasks.ListTasks(nil, nil, nil, 0)
	if err != nil {
		return "", err
	}
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, args) {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("no task matching %q", args)
}

func tailLines(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "(nothing yet)", nil
		}
		return "", err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "(nothing yet)", nil
	}
	return strings.Join(lines, "\n"), nil
}
