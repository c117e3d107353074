package progression

import (
	"strings"
	"sync"
	"time"
)

const (
	maxXPPerHour  = 100
	chatXPGateSec = 5
	xpHistoryCap  = 50
)

// XPHistoryEntry records one award for the ring buffer.
type XPHistoryEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Source    XPSource          `json:"source"`
	Amount    int               `json:"amount"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// rateLimiter enforces the anti-farming rules: an hourly XP cap, a cooldown
// between chat awards, and similarity dampening against recent prompts. The
// chat-XP gate is a single per-tracker cooldown shared across all chat
// sources, not one per source.
type rateLimiter struct {
	xpThisHour    int
	hourStart     time.Time
	recentPrompts []string // last 10, lowercased
	lastChatXP    time.Time
	now           func() time.Time
}

func newRateLimiter(now func() time.Time) *rateLimiter {
	return &rateLimiter{now: now, hourStart: now()}
}

func (r *rateLimiter) resetIfNeeded() {
	now := r.now()
	if now.Sub(r.hourStart) >= time.Hour {
		r.xpThisHour = 0
		r.hourStart = now
	}
}

// canAward returns (allowed, actualAmount) after applying the hourly cap,
// the chat cooldown, and similarity dampening.
func (r *rateLimiter) canAward(source XPSource, amount int, prompt string) (bool, int) {
	r.resetIfNeeded()
	if r.xpThisHour >= maxXPPerHour {
		return false, 0
	}
	remaining := maxXPPerHour - r.xpThisHour
	if amount > remaining {
		amount = remaining
	}
	if isChatSource(source) {
		if !r.lastChatXP.IsZero() && r.now().Sub(r.lastChatXP) < chatXPGateSec*time.Second {
			return false, 0
		}
	}
	if prompt != "" && isChatSource(source) {
		sim := r.promptSimilarity(prompt)
		switch {
		case sim > 0.8:
			amount /= 2
		case sim > 0.6:
			amount = int(float64(amount) * 0.75)
		}
	}
	return amount > 0, amount
}

func (r *rateLimiter) record(source XPSource, amount int, prompt string) {
	r.xpThisHour += amount
	if isChatSource(source) {
		r.lastChatXP = r.now()
	}
	if prompt != "" {
		r.recentPrompts = append(r.recentPrompts, strings.ToLower(prompt))
		if len(r.recentPrompts) > 10 {
			r.recentPrompts = r.recentPrompts[len(r.recentPrompts)-10:]
		}
	}
}

// promptSimilarity is a cheap, deterministic word-set Jaccard similarity
// against the last 3 prompts. Intentionally crude; do not replace with an
// embedding model.
func (r *rateLimiter) promptSimilarity(prompt string) float64 {
	words := wordSet(prompt)
	if len(words) < 2 {
		return 0
	}
	start := 0
	if len(r.recentPrompts) > 3 {
		start = len(r.recentPrompts) - 3
	}
	max := 0.0
	for _, prev := range r.recentPrompts[start:] {
		prevWords := wordSet(prev)
		if len(prevWords) < 2 {
			continue
		}
		sim := jaccard(words, prevWords)
		if sim > max {
			max = sim
		}
	}
	return max
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	overlap := 0
	for w := range a {
		if _, ok := b[w]; ok {
			overlap++
		}
	}
	denom := len(a) + len(b) - overlap
	if denom == 0 {
		return 0
	}
	return float64(overlap) / float64(denom)
}

// Tracker is the per-agent XP / level / prestige / achievement state.
type Tracker struct {
	mu sync.Mutex

	XP                  int                    `json:"xp"`
	Level               int                    `json:"level"`
	Prestige            int                    `json:"prestige"`
	Badges              []string               `json:"badges"`
	XPHistory           []XPHistoryEntry       `json:"xp_history"`
	Achievements        map[string]Achievement `json:"achievements"`
	LastInteractionDate string                 `json:"last_interaction_date,omitempty"`
	CurrentStreak       int                    `json:"current_streak"`

	limiter *rateLimiter
	now     func() time.Time
}

// NewTracker creates a Tracker at level 1 with the default achievement
// catalog and no badges.
func NewTracker() *Tracker {
	return newTrackerWithClock(time.Now)
}

func newTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		Level:        1,
		Badges:       []string{},
		XPHistory:    []XPHistoryEntry{},
		Achievements: AchievementCatalog(),
		limiter:      newRateLimiter(now),
		now:          now,
	}
}

// Hydrate restores runtime-only state (the rate limiter clock) after a
// Tracker has been populated by unmarshaling persisted JSON, and merges in
// any achievements added to the catalog since the state was last saved.
func (t *Tracker) Hydrate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.now == nil {
		t.now = time.Now
	}
	if t.limiter == nil {
		t.limiter = newRateLimiter(t.now)
	}
	if t.Achievements == nil {
		t.Achievements = AchievementCatalog()
		return
	}
	for id, a := range AchievementCatalog() {
		if _, ok := t.Achievements[id]; !ok {
			t.Achievements[id] = a
		}
	}
}

func (t *Tracker) multiplier() int { return 1 + t.Prestige }

// AwardXP applies the prestige multiplier and rate limiter to a base
// amount, then records and returns what was actually awarded.
func (t *Tracker) AwardXP(source XPSource, baseAmount int, prompt string, metadata map[string]string) (awarded bool, actual int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	amount := baseAmount * t.multiplier()
	ok, amount := t.limiter.canAward(source, amount, prompt)
	if !ok || amount <= 0 {
		return false, 0
	}

	oldLevel := t.Level
	t.XP += amount
	t.Level = LevelFromXP(t.XP)
	t.appendHistory(source, amount, metadata)
	t.limiter.record(source, amount, prompt)

	if t.Level > oldLevel && t.Level == MaxLevel {
		t.unlockAchievementLocked("legendary")
	}
	return true, amount
}

func (t *Tracker) appendHistory(source XPSource, amount int, metadata map[string]string) {
	t.XPHistory = append(t.XPHistory, XPHistoryEntry{
		Timestamp: t.now(), Source: source, Amount: amount, Metadata: metadata,
	})
	if len(t.XPHistory) > xpHistoryCap {
		t.XPHistory = t.XPHistory[len(t.XPHistory)-xpHistoryCap:]
	}
}

// UnlockAchievement awards an achievement's XP reward, bypassing the rate
// limiter, and returns the XP awarded (0 if already unlocked or unknown).
func (t *Tracker) UnlockAchievement(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unlockAchievementLocked(id)
}

func (t *Tracker) unlockAchievementLocked(id string) int {
	a, ok := t.Achievements[id]
	if !ok || a.Unlocked {
		return 0
	}
	a.Unlocked = true
	a.UnlockedAt = t.now().Unix()
	t.Achievements[id] = a

	for _, b := range t.Badges {
		if b == id {
			return a.XPReward
		}
	}
	t.Badges = append(t.Badges, id)

	oldLevel := t.Level
	t.XP += a.XPReward
	t.Level = LevelFromXP(t.XP)
	t.appendHistory(SourceAchievement, a.XPReward, map[string]string{"achievement_id": id})
	if t.Level > oldLevel && t.Level == MaxLevel {
		t.unlockAchievementLocked("legendary")
	}
	return a.XPReward
}

// UpdateStreak advances the daily streak and returns true if this is the
// first interaction of the day.
func (t *Tracker) UpdateStreak() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.now().Format("2006-01-02")
	if t.LastInteractionDate == today {
		return false
	}
	if t.LastInteractionDate != "" {
		last, err := time.Parse("2006-01-02", t.LastInteractionDate)
		cur, _ := time.Parse("2006-01-02", today)
		if err == nil && cur.Sub(last) == 24*time.Hour {
			t.CurrentStreak++
		} else {
			t.CurrentStreak = 1
		}
	} else {
		t.CurrentStreak = 1
	}
	t.LastInteractionDate = today
	if t.CurrentStreak >= 7 {
		t.unlockAchievementLocked("streak_7")
	}
	return true
}

// CanPrestige reports whether the tracker is eligible to prestige.
func (t *Tracker) CanPrestige() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Level >= MaxLevel && t.Prestige < 10
}

// DoPrestige performs the irreversible prestige reset.
func (t *Tracker) DoPrestige() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !(t.Level >= MaxLevel && t.Prestige < 10) {
		return false
	}
	t.Prestige++
	t.Level = 1
	t.XP = 0
	badge := prestigeBadge(t.Prestige)
	for _, b := range t.Badges {
		if b == badge {
			return true
		}
	}
	t.Badges = append(t.Badges, badge)
	return true
}
