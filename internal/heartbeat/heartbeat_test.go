package heartbeat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/config"
	"github.com/inkling-labs/inkling-core/internal/personality"
)

func newTestHeartbeat(t *testing.T, opts ...Option) *Heartbeat {
	t.Helper()
	dir := t.TempDir()
	p := personality.New(zerolog.Nop(), "Test", filepath.Join(dir, "personality.json"))
	cfg := config.HeartbeatConfig{
		EnableMoodBehaviors:        true,
		EnableTimeBehaviors:        true,
		EnableSocialBehaviors:      true,
		EnableMaintenanceBehaviors: true,
		EnableBatteryBehaviors:     true,
		QuietHoursStart:            23,
		QuietHoursEnd:              7,
		ThoughtIntervalMinMinutes:  15,
		ThoughtIntervalMaxMinutes:  30,
		ThoughtSurfaceProbability:  1.0,
		BatteryLowThreshold:        20,
		BatteryCriticalThreshold:   10,
		BatteryFullThreshold:       95,
	}
	h := New(zerolog.Nop(), p, dir, cfg, opts...)
	h.now = func() time.Time { return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC) }
	h.random = func() float64 { return 0 }
	return h
}

func TestTickIncrementsCounterAndRecordsLastTick(t *testing.T) {
	h := newTestHeartbeat(t)
	h.Tick(context.Background())
	require.Equal(t, 1, h.tickCount)
	require.False(t, h.lastTick.IsZero())
	h.Tick(context.Background())
	require.Equal(t, 2, h.tickCount)
}

func TestRunBehaviorsFiresAndCallsMessageCallback(t *testing.T) {
	h := newTestHeartbeat(t)

	var received []string
	h.OnMessage(func(ctx context.Context, message, face string) {
		received = append(received, message)
	})

	h.RegisterBehavior(&Behavior{
		Name: "always_message", Kind: BehaviorMaintenance,
		Handler:     func(ctx context.Context, h *Heartbeat) (string, error) { return "Test message", nil },
		Probability: 1.0,
	})

	h.runBehaviors(context.Background())
	require.Contains(t, received, "Test message")
}

func TestBehaviorErrorLeavesItEligibleNextTick(t *testing.T) {
	h := newTestHeartbeat(t)

	calls := 0
	h.RegisterBehavior(&Behavior{
		Name: "always_fails", Kind: BehaviorMaintenance,
		Handler: func(ctx context.Context, h *Heartbeat) (string, error) {
			calls++
			return "", errors.New("boom")
		},
		Probability: 1.0,
	})

	h.runBehaviors(context.Background())
	h.runBehaviors(context.Background())

	require.Equal(t, 2, calls)
	var custom *Behavior
	for _, b := range h.behaviors {
		if b.Name == "always_fails" {
			custom = b
		}
	}
	require.NotNil(t, custom)
	require.True(t, custom.LastTriggered.IsZero())
}

func TestQuietHoursOnlyRunsMaintenanceBehaviors(t *testing.T) {
	h := newTestHeartbeat(t)
	h.now = func() time.Time { return time.Date(2026, 7, 30, 2, 0, 0, 0, time.UTC) } // inside 23-7 quiet window

	moodCalls, maintCalls := 0, 0
	h.RegisterBehavior(&Behavior{
		Name: "mood_probe", Kind: BehaviorMood,
		Handler:     func(ctx context.Context, h *Heartbeat) (string, error) { moodCalls++; return "", nil },
		Probability: 1.0,
	})
	h.RegisterBehavior(&Behavior{
		Name: "maint_probe", Kind: BehaviorMaintenance,
		Handler:     func(ctx context.Context, h *Heartbeat) (string, error) { maintCalls++; return "", nil },
		Probability: 1.0,
	})

	h.runBehaviors(context.Background())
	require.Equal(t, 0, moodCalls)
	require.Equal(t, 1, maintCalls)
}

type fakeThinker struct {
	thought string
	err     error
	calls   int
}

func (f *fakeThinker) GenerateThought(ctx context.Context, systemPrompt string) (string, error) {
	f.calls++
	return f.thought, f.err
}

func TestAutonomousThoughtFiresWhenDueAndNotQuietHours(t *testing.T) {
	brain := &fakeThinker{thought: "A tiny reflective thought."}
	h := newTestHeartbeat(t, WithBrain(brain))
	h.nextThoughtAt = h.now().Add(-time.Minute)

	var surfaced string
	h.OnMessage(func(ctx context.Context, message, face string) { surfaced = message })

	h.maybeGenerateThought(context.Background())

	require.Equal(t, 1, brain.calls)
	require.Equal(t, "A tiny reflective thought.", h.personality.LastThought)
	require.Contains(t, surfaced, "A tiny reflective thought.")
}

func TestAutonomousThoughtSkippedDuringQuietHours(t *testing.T) {
	brain := &fakeThinker{thought: "should not appear"}
	h := newTestHeartbeat(t, WithBrain(brain))
	h.now = func() time.Time { return time.Date(2026, 7, 30, 2, 0, 0, 0, time.UTC) }
	h.nextThoughtAt = h.now().Add(-time.Minute)

	h.maybeGenerateThought(context.Background())

	require.Equal(t, 0, brain.calls)
}

func TestAutonomousThoughtNotYetDueDoesNothing(t *testing.T) {
	brain := &fakeThinker{thought: "later"}
	h := newTestHeartbeat(t, WithBrain(brain))
	h.nextThoughtAt = h.now().Add(time.Hour)

	h.maybeGenerateThought(context.Background())

	require.Equal(t, 0, brain.calls)
}
