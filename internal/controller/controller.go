// Package controller wires the persistent stores, personality, brain, MCP
// manager, scheduler, and heartbeat into one long-lived process and owns
// their startup/shutdown order.
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/brain"
	"github.com/inkling-labs/inkling-core/internal/commandregistry"
	"github.com/inkling-labs/inkling-core/internal/config"
	"github.com/inkling-labs/inkling-core/internal/domain"
	"github.com/inkling-labs/inkling-core/internal/heartbeat"
	"github.com/inkling-labs/inkling-core/internal/mcp"
	"github.com/inkling-labs/inkling-core/internal/memorystore"
	"github.com/inkling-labs/inkling-core/internal/personality"
	"github.com/inkling-labs/inkling-core/internal/ratelimit"
	"github.com/inkling-labs/inkling-core/internal/scheduler"
	"github.com/inkling-labs/inkling-core/internal/taskstore"
)

// Controller owns every long-lived component and the registry that front-ends
// dispatch commands through.
type Controller struct {
	Config      *config.Config
	Personality *personality.Personality
	Brain       *brain.Brain
	Heartbeat   *heartbeat.Heartbeat
	Scheduler   *scheduler.Manager
	MCP         *mcp.Manager
	Tasks       *taskstore.Store
	Memory      *memorystore.Store
	Limiter     *ratelimit.Limiter
	Registry    *commandregistry.Registry

	log zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs every component from cfg, wires their cross-dependencies,
// and builds a command registry with live handlers bound to them. Stores
// that fail to open return an error; nothing is partially left running.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Controller, error) {
	personalityPath := cfg.DataDir + "/personality.json"
	p := personality.New(log, "Inkling", personalityPath)

	tasks, err := taskstore.Open(cfg.DataDir + "/tasks.db")
	if err != nil {
		return nil, fmt.Errorf("controller: open task store: %w", err)
	}

	mem, err := memorystore.Open(cfg.DataDir + "/memory.db")
	if err != nil {
		tasks.Close()
		return nil, fmt.Errorf("controller: open memory store: %w", err)
	}

	limiter := ratelimit.New(log, cfg.DataDir+"/rate_limits.json")

	mcpServers := make(map[string]domain.MCPServerConfig, len(cfg.MCP.Servers))
	for name, entry := range cfg.MCP.Servers {
		mcpServers[name] = domain.MCPServerConfig{
			Command:   entry.Command,
			Args:      entry.Args,
			Env:       entry.Env,
			URL:       entry.URL,
			Headers:   entry.Headers,
			Transport: domain.MCPTransport(entry.Transport),
		}
	}
	mcpMgr := mcp.New(log, mcpServers, cfg.MCP.MaxTools)

	providers := brain.BuildProviders(ctx, cfg.AI, log)
	var memoryForBrain domain.MemoryStore
	if cfg.Memory.Enabled {
		memoryForBrain = mem
	}
	// mcpMgr is always passed; when MCP is disabled or nothing is started,
	// HasTools() reports false and the Brain skips tool wiring entirely.
	b := brain.New(providers, mcpMgr, memoryForBrain, cfg.DataDir, cfg.AI, cfg.Memory, log)

	sched := scheduler.New(log, cfg.DataDir+"/scheduler.json")
	sched.LoadFromConfig(cfg.Scheduler.Enabled, schedulerTasks(cfg.Scheduler.Tasks))

	hb := heartbeat.New(log, p, cfg.DataDir, cfg.Heartbeat,
		heartbeat.WithBrain(b),
		heartbeat.WithMemory(mem),
		heartbeat.WithTasks(tasks),
		heartbeat.WithScheduler(sched),
		heartbeat.WithBattery(MainsPowerReader{}),
		heartbeat.WithDisplay(heartbeat.NewLoggingDisplay(log)),
	)

	c := &Controller{
		Config:      cfg,
		Personality: p,
		Brain:       b,
		Heartbeat:   hb,
		Scheduler:   sched,
		MCP:         mcpMgr,
		Tasks:       tasks,
		Memory:      mem,
		Limiter:     limiter,
		log:         log.With().Str("component", "controller").Logger(),
	}
	c.Registry = c.buildRegistry()
	c.wireSchedulerActions()
	return c, nil
}

func schedulerTasks(entries []config.ScheduledEntry) []scheduler.Task {
	out := make([]scheduler.Task, 0, len(entries))
	for _, e := range entries {
		out = append(out, scheduler.Task{Name: e.Name, ScheduleExpr: e.Schedule, Action: e.Action, Enabled: e.Enabled})
	}
	return out
}

// Run starts the MCP manager's configured servers and the heartbeat tick
// loop, blocking until ctx is cancelled or Stop is called.
func (c *Controller) Run(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.done = make(chan struct{})
	c.mu.Unlock()

	if c.Config.MCP.Enabled {
		c.MCP.StartAll(runCtx)
	}

	c.Heartbeat.Run(runCtx)
	close(c.done)
}

// Stop requests the heartbeat loop exit, stops any MCP child processes, and
// waits for Run to return.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	c.Heartbeat.Stop()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	c.MCP.StopAll()

	c.Personality.Save()
	c.Brain.SaveMessages()
	c.Tasks.Close()
	c.Memory.Close()

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}
