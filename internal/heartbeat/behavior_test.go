package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/personality"
)

func TestBehaviorCanTriggerFresh(t *testing.T) {
	b := &Behavior{Name: "test", Cooldown: 60 * time.Second}
	require.True(t, b.canTrigger(time.Now()))
}

func TestBehaviorCanTriggerOnCooldown(t *testing.T) {
	now := time.Now()
	b := &Behavior{Name: "test", Cooldown: 60 * time.Second, LastTriggered: now}
	require.False(t, b.canTrigger(now))
}

func TestShouldTriggerRespectsProbabilityZero(t *testing.T) {
	b := &Behavior{Name: "test", Probability: 0}
	for i := 0; i < 20; i++ {
		require.False(t, b.shouldTrigger(time.Now(), float64(i)/20))
	}
}

func TestShouldTriggerHighProbability(t *testing.T) {
	b := &Behavior{Name: "test", Probability: 1.0}
	require.True(t, b.shouldTrigger(time.Now(), 0.0))
	require.True(t, b.shouldTrigger(time.Now(), 0.999))
}

func TestMoodMatchesLonelyOnlyWhenLonely(t *testing.T) {
	b := &Behavior{Name: "lonely_reach_out", Kind: BehaviorMood}
	require.True(t, moodMatches(b, personality.MoodLonely))
	require.False(t, moodMatches(b, personality.MoodHappy))
}

func TestMoodMatchesNonMoodBehaviorAlwaysTrue(t *testing.T) {
	b := &Behavior{Name: "prune_memories", Kind: BehaviorMaintenance}
	require.True(t, moodMatches(b, personality.MoodSad))
}

func TestMoodMatchesUnlistedMoodBehaviorAlwaysTrue(t *testing.T) {
	b := &Behavior{Name: "mood_responsive_greeting", Kind: BehaviorMood}
	require.True(t, moodMatches(b, personality.MoodSad))
	require.True(t, moodMatches(b, personality.MoodIntense))
}
