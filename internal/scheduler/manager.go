package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ActionHandler is a registered scheduled action. It receives whatever
// context the owning controller closed over when the handler was
// registered.
type ActionHandler func(ctx context.Context) error

// Manager owns the task table, the action registry, and the run-pending
// pump invoked from the heartbeat tick.
type Manager struct {
	mu         sync.Mutex
	tasks      []*Task
	actions    map[string]ActionHandler
	enabled    bool
	configPath string
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a Manager persisting enable/disable changes to configPath.
func New(log zerolog.Logger, configPath string) *Manager {
	return &Manager{
		enabled:    true,
		actions:    make(map[string]ActionHandler),
		configPath: configPath,
		log:        log.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
	}
}

// RegisterAction stores a callable under name for later scheduling.
func (m *Manager) RegisterAction(name string, handler ActionHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[name] = handler
}

// AddTask parses expr and appends a new task. An expression rejected by the
// whitelist grammar is logged and returned as an error, and no task is
// added. An unregistered action is only logged and does not prevent the
// task from being added — the action may be registered later, per the
// registry's late-binding contract.
func (m *Manager) AddTask(name, expr, action string, enabled bool) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.Name == name {
			return nil, fmt.Errorf("task already exists: %s", name)
		}
	}

	parsed, err := ParseExpr(expr)
	if err != nil {
		m.log.Error().Err(err).Str("task", name).Msg("failed to parse schedule expression")
		return nil, err
	}
	if _, ok := m.actions[action]; !ok {
		m.log.Warn().Str("task", name).Str("action", action).Msg("action not yet registered")
	}

	task := &Task{Name: name, ScheduleExpr: expr, Action: action, Enabled: enabled, expr: parsed}
	task.NextRun = parsed.Next(m.now())
	m.tasks = append(m.tasks, task)
	m.log.Info().Str("task", name).Str("schedule", expr).Msg("added scheduled task")
	return task, nil
}

// RemoveTask removes a task by name, returning true if it existed.
func (m *Manager) RemoveTask(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.Name == name {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled flips a task's enabled flag and persists the change. A
// persistence failure is logged but does not revert the in-memory flag.
func (m *Manager) SetEnabled(name string, enabled bool) bool {
	m.mu.Lock()
	var found *Task
	for _, t := range m.tasks {
		if t.Name == name {
			t.Enabled = enabled
			found = t
			break
		}
	}
	m.mu.Unlock()
	if found == nil {
		return false
	}
	if err := m.persistEnabled(name, enabled); err != nil {
		m.log.Warn().Err(err).Str("task", name).Msg("failed to persist task enabled state")
	}
	return true
}

// Tasks returns a snapshot of the current task table.
func (m *Manager) Tasks() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// RunPending dispatches every enabled, due task asynchronously and
// recomputes its next run time. A handler's error (or panic) is captured
// into LastError without aborting the pump or the other tasks.
func (m *Manager) RunPending(ctx context.Context) {
	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return
	}
	now := m.now()
	var due []*Task
	for _, t := range m.tasks {
		if t.Enabled && t.expr != nil && !t.NextRun.After(now) {
			due = append(due, t)
			t.NextRun = t.expr.Next(now)
		}
	}
	handlers := make(map[string]ActionHandler, len(m.actions))
	for k, v := range m.actions {
		handlers[k] = v
	}
	m.mu.Unlock()

	for _, t := range due {
		go m.dispatch(ctx, t, handlers[t.Action])
	}
}

func (m *Manager) dispatch(ctx context.Context, t *Task, handler ActionHandler) {
	defer func() {
		if r := recover(); r != nil {
			m.mu.Lock()
			t.LastError = fmt.Sprintf("action panicked: %v", r)
			m.mu.Unlock()
			m.log.Error().Interface("panic", r).Str("task", t.Name).Msg("scheduled action panicked")
		}
	}()

	if handler == nil {
		m.mu.Lock()
		t.LastError = "action handler not found: " + t.Action
		m.mu.Unlock()
		m.log.Error().Str("task", t.Name).Str("action", t.Action).Msg("action handler not found")
		return
	}

	m.log.Info().Str("task", t.Name).Str("action", t.Action).Msg("running scheduled task")
	err := handler(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		t.LastError = err.Error()
		m.log.Error().Err(err).Str("task", t.Name).Msg("scheduled action failed")
		return
	}
	t.LastRun = m.now()
	t.RunCount++
	t.LastError = ""
}

// configDoc is the minimal shape read back to locate the scheduler
// section without discarding unrelated keys.
type configDoc = map[string]interface{}

func (m *Manager) taskByName(name string) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (m *Manager) persistEnabled(name string, enabled bool) error {
	if m.configPath == "" {
		return nil
	}
	data, err := os.ReadFile(m.configPath)
	var doc configDoc
	if err == nil {
		if uerr := yaml.Unmarshal(data, &doc); uerr != nil {
			return uerr
		}
	}
	if doc == nil {
		doc = configDoc{}
	}

	schedSection, _ := doc["scheduler"].(configDoc)
	if schedSection == nil {
		schedSection = configDoc{}
	}
	tasksRaw, _ := schedSection["tasks"].([]interface{})
	found := false
	for _, raw := range tasksRaw {
		entry, ok := raw.(configDoc)
		if !ok {
			continue
		}
		if entry["name"] == name {
			entry["enabled"] = enabled
			found = true
		}
	}
	if !found {
		if t := m.taskByName(name); t != nil {
			tasksRaw = append(tasksRaw, configDoc{
				"name": t.Name, "schedule": t.ScheduleExpr, "action": t.Action, "enabled": enabled,
			})
		}
	}
	schedSection["tasks"] = tasksRaw
	doc["scheduler"] = schedSection

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	tmp := m.configPath + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.configPath)
}

// LoadFromConfig populates tasks from a parsed config section, skipping
// (and logging) any task whose name/expression/action is incomplete or
// whose expression AddTask rejects. A task whose action hasn't been
// registered yet is still added.
func (m *Manager) LoadFromConfig(enabled bool, entries []Task) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()

	for _, e := range entries {
		if e.Name == "" || e.ScheduleExpr == "" || e.Action == "" {
			m.log.Warn().Interface("task", e).Msg("incomplete scheduled task config entry")
			continue
		}
		if _, err := m.AddTask(e.Name, e.ScheduleExpr, e.Action, e.Enabled); err != nil {
			m.log.Error().Err(err).Str("task", e.Name).Msg("failed to load scheduled task")
		}
	}
}
