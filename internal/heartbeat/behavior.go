package heartbeat

import (
	"context"
	"time"

	"github.com/inkling-labs/inkling-core/internal/personality"
)

// BehaviorKind classifies a Behavior for config gating and quiet-hours
// suppression.
type BehaviorKind string

const (
	BehaviorMood        BehaviorKind = "mood"
	BehaviorTime        BehaviorKind = "time"
	BehaviorSocial      BehaviorKind = "social"
	BehaviorMaintenance BehaviorKind = "maint"
	BehaviorBattery     BehaviorKind = "battery"
)

// Handler produces an optional message to surface. A returned error is
// logged and disables the behavior for the remainder of this tick only;
// LastTriggered is left untouched so it remains eligible next tick.
type Handler func(ctx context.Context, h *Heartbeat) (string, error)

// Behavior is one entry in the proactive behavior table.
type Behavior struct {
	Name          string
	Kind          BehaviorKind
	Handler       Handler
	Probability   float64
	Cooldown      time.Duration
	LastTriggered time.Time
}

func (b *Behavior) canTrigger(now time.Time) bool {
	return now.Sub(b.LastTriggered) >= b.Cooldown
}

func (b *Behavior) shouldTrigger(now time.Time, roll float64) bool {
	return b.canTrigger(now) && roll < b.Probability
}

// moodEligibility maps a mood-driven behavior's name to the moods it is
// allowed to fire in. Behaviors not listed here (and all non-mood
// behaviors) are eligible in every mood.
var moodEligibility = map[string][]personality.Mood{
	"lonely_reach_out":       {personality.MoodLonely},
	"bored_suggest_activity": {personality.MoodBored},
	"happy_share_thought":    {personality.MoodHappy, personality.MoodExcited, personality.MoodGrateful},
	"autonomous_exploration": {personality.MoodCurious},
}

func (h *Heartbeat) behaviorEnabled(kind BehaviorKind) bool {
	switch kind {
	case BehaviorMood:
		return h.cfg.EnableMoodBehaviors
	case BehaviorTime:
		return h.cfg.EnableTimeBehaviors
	case BehaviorSocial:
		return h.cfg.EnableSocialBehaviors
	case BehaviorMaintenance:
		return h.cfg.EnableMaintenanceBehaviors
	case BehaviorBattery:
		return h.cfg.EnableBatteryBehaviors
	default:
		return true
	}
}

// moodMatches reports whether a mood-driven behavior's name-to-mood
// eligibility map permits the current mood. Non-mood and battery
// behaviors are always eligible here; battery has its own edge-trigger
// guards inside its handler.
func moodMatches(b *Behavior, current personality.Mood) bool {
	if b.Kind == BehaviorBattery || b.Kind != BehaviorMood {
		return true
	}
	allowed, listed := moodEligibility[b.Name]
	if !listed {
		return true
	}
	for _, m := range allowed {
		if m == current {
			return true
		}
	}
	return false
}

// runBehaviors walks the behavior table once, firing every eligible
// behavior whose cooldown has elapsed and probability roll succeeds.
func (h *Heartbeat) runBehaviors(ctx context.Context) {
	hour := h.now().Hour()
	quietHours := h.isQuietHours(hour)

	h.mu.Lock()
	behaviors := append([]*Behavior(nil), h.behaviors...)
	h.mu.Unlock()

	if quietHours {
		for _, b := range behaviors {
			if b.Kind != BehaviorMaintenance {
				continue
			}
			if b.shouldTrigger(h.now(), h.random()) {
				h.fire(ctx, b, false)
			}
		}
		return
	}

	quietFocus := h.focus != nil && h.focus.IsQuietModeActive()

	current := h.personality.CurrentMood()
	for _, b := range behaviors {
		if !h.behaviorEnabled(b.Kind) {
			continue
		}
		if quietFocus && b.Kind != BehaviorBattery && b.Kind != BehaviorMaintenance {
			continue
		}
		if !moodMatches(b, current) {
			continue
		}
		if !b.shouldTrigger(h.now(), h.random()) {
			continue
		}
		surface := !quietFocus || b.Kind == BehaviorBattery
		h.fire(ctx, b, surface)
	}
}

// fire executes a behavior's handler and, on a non-empty result, surfaces
// it through the message callback (skipping display if a screensaver is
// active). A handler error is logged and the behavior stays eligible next
// tick since LastTriggered is only set on a clean run.
func (h *Heartbeat) fire(ctx context.Context, b *Behavior, surface bool) {
	message, err := b.Handler(ctx, h)
	if err != nil {
		h.log.Warn().Str("behavior", b.Name).Err(err).Msg("behavior error, skipped for this tick")
		return
	}
	b.LastTriggered = h.now()
	if message == "" || !surface {
		return
	}
	if h.display != nil && h.display.ShouldActivateScreensaver() {
		return
	}
	h.surface(ctx, message)
}

func (h *Heartbeat) surface(ctx context.Context, message string) {
	h.mu.Lock()
	cb := h.onMessage
	h.mu.Unlock()
	if cb == nil {
		return
	}
	cb(ctx, message, h.personality.Face())
}
