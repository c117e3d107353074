package heartbeat

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/inkling-labs/inkling-core/internal/domain"
	"github.com/inkling-labs/inkling-core/internal/storex"
)

const (
	thoughtsLogName = "thoughts.log"
	journalLogName  = "journal.log"
)

// scheduleNextThought picks the next autonomous-thought timestamp uniformly
// within [min, max] minutes from now.
func (h *Heartbeat) scheduleNextThought() {
	minS := h.cfg.ThoughtIntervalMinMinutes * 60
	if minS < 60 {
		minS = 60
	}
	maxS := h.cfg.ThoughtIntervalMaxMinutes * 60
	if maxS < minS {
		maxS = minS
	}
	interval := time.Duration(float64(minS)+h.random()*float64(maxS-minS)) * time.Second
	h.mu.Lock()
	h.nextThoughtAt = h.now().Add(interval)
	h.mu.Unlock()
}

func (h *Heartbeat) logToFile(name, text string) {
	path := filepath.Join(h.dataDir, name)
	timestamp := h.now().Format("2006-01-02 15:04:05")
	storex.AppendLine(h.log, path, fmt.Sprintf("%s | %s", timestamp, text))
}

// maybeGenerateThought runs the autonomous-thought cadence: when due and
// not in quiet hours, it asks the brain for one brief thought, journals
// it, optionally stores it to memory, and surfaces it to the display with
// the configured probability.
func (h *Heartbeat) maybeGenerateThought(ctx context.Context) {
	if h.brain == nil {
		return
	}

	h.mu.Lock()
	due := h.nextThoughtAt
	h.mu.Unlock()
	if due.IsZero() {
		h.scheduleNextThought()
		return
	}
	if h.now().Before(due) {
		return
	}

	if h.isQuietHours(h.now().Hour()) {
		h.scheduleNextThought()
		return
	}

	thought, err := h.brain.GenerateThought(ctx, h.personality.PromptContext()+" You are thinking to yourself, jotting a quiet observation.")
	h.scheduleNextThought()
	if err != nil || thought == "" {
		if err != nil {
			h.log.Debug().Err(err).Msg("thought generation failed")
		}
		return
	}

	h.personality.SetLastThought(thought)
	h.logToFile(thoughtsLogName, thought)

	if h.memory != nil {
		key := fmt.Sprintf("thought_%d", h.now().Unix())
		_, _ = h.memory.Remember(key, "Thought: "+thought, domain.MemoryCategoryEvent, 0.5)
	}

	if h.focus != nil && h.focus.IsQuietModeActive() {
		return
	}
	if h.display != nil && h.display.ShouldActivateScreensaver() {
		return
	}
	if h.random() < h.cfg.ThoughtSurfaceProbability {
		h.surface(ctx, "Thought: "+truncate(thought, 140))
	}
}
