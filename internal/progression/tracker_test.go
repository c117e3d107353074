package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLevelFromXPMatchesCurve(t *testing.T) {
	require.Equal(t, 1, LevelFromXP(0))
	for level := 2; level <= 25; level++ {
		xp := XPForLevel(level)
		require.Equal(t, level, LevelFromXP(xp), "level %d boundary", level)
		require.Equal(t, level-1, LevelFromXP(xp-1), "level %d boundary-1", level)
	}
}

func TestAwardXPChatGateWithin5Seconds(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	tr := newTrackerWithClock(clock)

	ok, amt := tr.AwardXP(SourceQuickChat, 5, "hello there", nil)
	require.True(t, ok)
	require.Equal(t, 5, amt)

	ok, amt = tr.AwardXP(SourceQuickChat, 5, "hello again", nil)
	require.False(t, ok)
	require.Zero(t, amt)
}

func TestAwardXPSimilarPromptHalved(t *testing.T) {
	cur := time.Now()
	clock := func() time.Time { return cur }
	tr := newTrackerWithClock(clock)

	ok, _ := tr.AwardXP(SourceQuickChat, 10, "what is the weather today please", nil)
	require.True(t, ok)

	cur = cur.Add(10 * time.Second)
	ok, amt := tr.AwardXP(SourceQuickChat, 10, "what is the weather today", nil)
	require.True(t, ok)
	require.Equal(t, 5, amt)
}

func TestHourlyCapAcrossSources(t *testing.T) {
	cur := time.Now()
	clock := func() time.Time { return cur }
	tr := newTrackerWithClock(clock)

	total := 0
	for i := 0; i < 20; i++ {
		ok, amt := tr.AwardXP(SourceTaskCompletedUrgent, 40, "", nil)
		if ok {
			total += amt
		}
		cur = cur.Add(time.Second)
	}
	require.LessOrEqual(t, total, 100)
}

func TestPrestigeResetsAndMultiplies(t *testing.T) {
	tr := NewTracker()
	tr.XP = XPForLevel(25)
	tr.Level = LevelFromXP(tr.XP)
	require.True(t, tr.CanPrestige())

	ok := tr.DoPrestige()
	require.True(t, ok)
	require.Equal(t, 1, tr.Level)
	require.Equal(t, 0, tr.XP)
	require.Equal(t, 1, tr.Prestige)
	require.Contains(t, tr.Badges, "prestige_1")

	ok2, amt := tr.AwardXP(SourceQuickChat, 5, "", nil)
	require.True(t, ok2)
	require.Equal(t, 10, amt)
}

func TestStreakUnlocksAchievement(t *testing.T) {
	tr := NewTracker()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		day := base.AddDate(0, 0, i)
		tr.now = func() time.Time { return day }
		tr.limiter.now = tr.now
		first := tr.UpdateStreak()
		require.True(t, first)
	}
	require.Equal(t, 7, tr.CurrentStreak)
	require.True(t, tr.Achievements["streak_7"].Unlocked)
}
