// Package heartbeat runs the cooperative proactive-behavior tick loop:
// mood/battery/time updates, the scheduled-task pump, a table of
// probability-and-cooldown gated behaviors, and the autonomous-thought
// cadence. A tick is run-to-completion and never overlaps the next one.
package heartbeat

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/inkling-labs/inkling-core/internal/config"
	"github.com/inkling-labs/inkling-core/internal/domain"
	"github.com/inkling-labs/inkling-core/internal/personality"
	"github.com/inkling-labs/inkling-core/internal/scheduler"
)

// commandQueueSize bounds how many front-end requests can be waiting for the
// main loop at once before Submit blocks its caller.
const commandQueueSize = 16

// workItem is one piece of front-end work marshaled onto the main loop,
// mirroring run_coroutine_threadsafe: submit, wait for done, read the result
// the closure wrote.
type workItem struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// MessageCallback is invoked when a behavior or thought wants to surface
// text to the display. face is the companion's current mood face token.
type MessageCallback func(ctx context.Context, message, face string)

// thinker is the narrow slice of internal/brain.Brain the heartbeat needs
// for autonomous thoughts and introspective/journal generations.
type thinker interface {
	GenerateThought(ctx context.Context, systemPrompt string) (string, error)
}

// Heartbeat is the proactive behavior scheduler. Zero value is not usable;
// construct with New.
type Heartbeat struct {
	mu sync.Mutex

	personality *personality.Personality
	display     domain.DisplaySink
	brain       thinker
	memory      domain.MemoryStore
	tasks       domain.TaskStore
	scheduler   *scheduler.Manager
	battery     BatteryReader
	focus       FocusQuietChecker
	cfg         config.HeartbeatConfig

	dataDir string
	log     zerolog.Logger

	running   bool
	tickCount int
	lastTick  time.Time

	behaviors []*Behavior
	onMessage MessageCallback

	commands chan workItem

	nextThoughtAt time.Time

	batteryKnown    bool
	lastBatteryPct  int
	lastCharging    bool
	prevCharging    bool
	prevBatteryFull bool

	now    func() time.Time
	random func() float64
}

// Option configures optional Heartbeat dependencies at construction.
type Option func(*Heartbeat)

// WithDisplay wires a display sink. The heartbeat only consults it for the
// screensaver: a tick starts the screensaver when the sink reports idle, and
// behavior messages and thoughts are not surfaced while it does. Messages
// themselves always go to the registered MessageCallback, with or without a
// display.
func WithDisplay(d domain.DisplaySink) Option {
	return func(h *Heartbeat) { h.display = d }
}

// WithBrain wires the thought-generation dependency.
func WithBrain(b thinker) Option {
	return func(h *Heartbeat) { h.brain = b }
}

// WithMemory wires the memory store for pruning and thought capture.
func WithMemory(m domain.MemoryStore) Option {
	return func(h *Heartbeat) { h.memory = m }
}

// WithTasks wires the task store for the reminder/suggestion/celebration
// behaviors.
func WithTasks(t domain.TaskStore) Option {
	return func(h *Heartbeat) { h.tasks = t }
}

// WithScheduler wires the scheduled-task manager whose RunPending is
// pumped once per tick.
func WithScheduler(s *scheduler.Manager) Option {
	return func(h *Heartbeat) { h.scheduler = s }
}

// FocusQuietChecker reports whether a focus session is currently asking
// for quiet. Only BATTERY and MAINTENANCE behaviors bypass it; everything
// else is suppressed while it's active.
type FocusQuietChecker interface {
	IsQuietModeActive() bool
}

// WithFocusQuietChecker wires a focus-session quiet-mode check. Without
// one, focus quiet mode is treated as never active.
func WithFocusQuietChecker(f FocusQuietChecker) Option {
	return func(h *Heartbeat) { h.focus = f }
}

// New builds a Heartbeat around a Personality, applying any Options.
// dataDir is where thoughts.log and journal.log are appended.
func New(log zerolog.Logger, p *personality.Personality, dataDir string, cfg config.HeartbeatConfig, opts ...Option) *Heartbeat {
	h := &Heartbeat{
		personality: p,
		cfg:         cfg,
		dataDir:     dataDir,
		log:         log.With().Str("component", "heartbeat").Logger(),
		now:         time.Now,
		random:      rand.Float64,
		commands:    make(chan workItem, commandQueueSize),
	}
	for _, o := range opts {
		o(h)
	}
	h.registerDefaultBehaviors()
	h.scheduleNextThought()
	return h
}

// OnMessage registers the callback invoked whenever a behavior or thought
// wants to surface a message to the display.
func (h *Heartbeat) OnMessage(cb MessageCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = cb
}

// RegisterBehavior appends a custom behavior to the table.
func (h *Heartbeat) RegisterBehavior(b *Behavior) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.behaviors = append(h.behaviors, b)
}

// Stats is a snapshot of heartbeat bookkeeping for status surfaces.
type Stats struct {
	Running             bool
	TickCount           int
	LastTick            time.Time
	BehaviorsRegistered int
	TickIntervalSeconds int
	QuietHours          string
}

func (h *Heartbeat) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		Running:             h.running,
		TickCount:           h.tickCount,
		LastTick:            h.lastTick,
		BehaviorsRegistered: len(h.behaviors),
		TickIntervalSeconds: h.cfg.TickIntervalSeconds,
		QuietHours:          quietHoursLabel(h.cfg.QuietHoursStart, h.cfg.QuietHoursEnd),
	}
}

// Run runs the tick loop and the front-end command queue until ctx is
// cancelled or Stop is called. The two run on an errgroup so that a cancelled
// ctx tears both down together and Run doesn't return until they both have:
// this is the "single background OS thread" every Submit call is marshaled
// onto, so chat handling never races a tick's personality/brain access.
// Each tick runs to completion before the next sleep begins; cancellation is
// observed at the next sleep boundary, never mid-tick.
func (h *Heartbeat) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	loopCtx, stopLoops := context.WithCancel(ctx)
	defer stopLoops()
	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		defer stopLoops()
		h.tickLoop(gctx)
		return nil
	})
	g.Go(func() error {
		h.commandLoop(gctx)
		return nil
	})
	_ = g.Wait()

	h.mu.Lock()
	h.running = false
	h.mu.Unlock()
}

func (h *Heartbeat) tickLoop(ctx context.Context) {
	for {
		h.mu.Lock()
		running := h.running
		h.mu.Unlock()
		if !running {
			return
		}

		h.Tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.cfg.TickInterval()):
		}
	}
}

func (h *Heartbeat) commandLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-h.commands:
			item.fn(ctx)
			close(item.done)
		}
	}
}

// Submit marshals fn onto the main loop goroutine, the same one Tick runs on,
// and blocks until it has run or ctx is done. When the loop isn't running
// (Run hasn't been called, or Stop already fired), fn runs inline: there is
// no tick loop left to race against.
func (h *Heartbeat) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	if !running {
		fn(ctx)
		return nil
	}

	item := workItem{fn: fn, done: make(chan struct{})}
	select {
	case h.commands <- item:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-item.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop requests the loop exit at its next sleep boundary.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
}

// Tick executes one heartbeat tick. It is also exposed directly for tests
// and a manual "force tick" command.
func (h *Heartbeat) Tick(ctx context.Context) {
	h.mu.Lock()
	h.tickCount++
	h.lastTick = h.now()
	h.mu.Unlock()

	h.updateTimeBasedMood()
	h.updateBatteryBasedMood()
	h.personality.Decay()

	if h.display != nil && h.display.ShouldActivateScreensaver() {
		h.log.Debug().Msg("activating screensaver, idle detected")
		h.display.StartScreensaver()
	}

	if h.scheduler != nil {
		h.scheduler.RunPending(ctx)
	}

	h.runBehaviors(ctx)
	h.maybeGenerateThought(ctx)

	h.mu.Lock()
	if h.batteryKnown {
		h.prevCharging = h.lastCharging
		h.prevBatteryFull = h.lastCharging && h.lastBatteryPct >= h.cfg.BatteryFullThreshold
	}
	h.mu.Unlock()
}
