package personality

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/progression"
	"github.com/inkling-labs/inkling-core/internal/storex"
)

// TaskEventResult carries what a task event produced: XP awarded (if any)
// and a short celebration line for the chat/display surface.
type TaskEventResult struct {
	XPAwarded int
	Message   string
}

// TaskEventData is the subset of task fields a task event reacts to.
type TaskEventData struct {
	Title    string
	Priority string
	OnTime   bool
	Streak   int
}

// Personality is a fan-in event bus over mood and progression state.
// Every other component reports events here rather than mutating mood or
// XP directly.
type Personality struct {
	mu sync.Mutex

	Name             string
	Traits           Traits
	Mood             MoodState
	DecayRatePerMin  float64
	LastInteraction  time.Time
	InteractionCount int
	Progression      *progression.Tracker
	LastThought      string
	LastThoughtAt    time.Time
	BatteryHint      string
	Social           SocialStats

	onMoodChange []func(old, new Mood)
	onLevelUp    []func(old, new int)
	now          func() time.Time
	log          zerolog.Logger
	path         string
}

type persistedState struct {
	Name             string               `json:"name"`
	Traits           Traits               `json:"traits"`
	Mood             MoodState            `json:"mood"`
	InteractionCount int                  `json:"interaction_count"`
	LastThought      string               `json:"last_thought,omitempty"`
	LastThoughtAt    time.Time            `json:"last_thought_at,omitempty"`
	Social           SocialStats          `json:"social_stats"`
	Progression      *progression.Tracker `json:"progression"`
}

// New creates a Personality with default traits, happy mood, and a fresh
// progression tracker, loading prior state from path if present.
func New(log zerolog.Logger, name, path string) *Personality {
	p := newWithClock(name, time.Now)
	p.log = log.With().Str("component", "personality").Logger()
	p.path = path

	var state persistedState
	if storex.LoadJSON(p.log, path, &state) {
		p.Name = state.Name
		p.Traits = state.Traits
		p.Mood = state.Mood
		p.InteractionCount = state.InteractionCount
		p.LastThought = state.LastThought
		p.LastThoughtAt = state.LastThoughtAt
		p.Social = state.Social
		if state.Progression != nil {
			p.Progression = state.Progression
		}
		if !p.Mood.Current.valid() {
			p.Mood.Current = MoodHappy
		}
	}
	p.Progression.Hydrate()
	return p
}

func newWithClock(name string, now func() time.Time) *Personality {
	return &Personality{
		Name:            name,
		Traits:          DefaultTraits(),
		Mood:            newMoodState(now()),
		DecayRatePerMin: 0.1,
		LastInteraction: now(),
		Progression:     progression.NewTracker(),
		now:             now,
	}
}

// Save persists the personality state to path, best-effort.
func (p *Personality) Save() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.path == "" {
		return
	}
	storex.SaveJSON(p.log, p.path, persistedState{
		Name:             p.Name,
		Traits:           p.Traits,
		Mood:             p.Mood,
		InteractionCount: p.InteractionCount,
		LastThought:      p.LastThought,
		LastThoughtAt:    p.LastThoughtAt,
		Social:           p.Social,
		Progression:      p.Progression,
	})
}

// OnMoodChange registers a callback invoked synchronously, in registration
// order, whenever mood transitions. A panic in a callback is recovered and
// discarded (see safeCall), so the remaining callbacks still run.
func (p *Personality) OnMoodChange(cb func(old, new Mood)) {
	p.onMoodChange = append(p.onMoodChange, cb)
}

// OnLevelUp registers a callback invoked whenever progression level
// increases.
func (p *Personality) OnLevelUp(cb func(old, new int)) {
	p.onLevelUp = append(p.onLevelUp, cb)
}

func (p *Personality) notifyMoodChange(old, new_ Mood) {
	if old == new_ {
		return
	}
	for _, cb := range p.onMoodChange {
		p.safeCall(func() { cb(old, new_) })
	}
}

func (p *Personality) notifyLevelUp(old, new_ int) {
	if new_ <= old {
		return
	}
	for _, cb := range p.onLevelUp {
		p.safeCall(func() { cb(old, new_) })
	}
}

func (p *Personality) safeCall(fn func()) {
	defer func() { recover() }()
	fn()
}

// Energy is the derived scalar the display and heartbeat use: the mood's
// baseline energy scaled by current intensity.
func (p *Personality) Energy() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Mood.Current.Energy() * p.Mood.Intensity
}

// CurrentMood returns the current mood label.
func (p *Personality) CurrentMood() Mood {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Mood.Current
}

// Face returns the current mood's face-atlas token.
func (p *Personality) Face() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Mood.Current.Face()
}

// Decay applies the periodic mood decay rule: intensity falls off with
// idle minutes, and sufficiently idle state transitions to sleepy, bored,
// or a trait-derived baseline mood.
func (p *Personality) Decay() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	idleMinutes := now.Sub(p.LastInteraction).Minutes()

	old := p.Mood.Current
	p.Mood.Intensity = clamp01max(0.1, p.Mood.Intensity-p.DecayRatePerMin*idleMinutes)

	if p.Mood.Intensity < 0.2 {
		p.transitionToBaseline(now)
	}

	if idleMinutes > 30 {
		p.Mood.Set(now, MoodSleepy, 0.6)
	} else if idleMinutes > 10 {
		p.Mood.Set(now, MoodBored, 0.4)
	}

	p.notifyMoodChange(old, p.Mood.Current)
}

// clamp01max is clamp01 with a floor other than 0.
func clamp01max(floor, v float64) float64 {
	if v < floor {
		return floor
	}
	if v > 1 {
		return 1
	}
	return v
}

func (p *Personality) transitionToBaseline(now time.Time) {
	var mood Mood
	switch {
	case p.Traits.Cheerfulness > 0.6:
		mood = MoodHappy
	case p.Traits.Curiosity > 0.7:
		mood = MoodCurious
	default:
		mood = MoodCool
	}
	if mood != p.Mood.Current {
		p.Mood.Set(now, mood, 0.3)
	}
}

// OnInteraction records a user interaction: it advances the daily streak
// (awarding the first-of-day bonus once), scores chat-quality XP when
// positive, and reacts the mood per the interaction tables. Returns total
// XP awarded, 0 if none.
func (p *Personality) OnInteraction(positive bool, source progression.XPSource, baseXP int, prompt string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.LastInteraction = now
	p.InteractionCount++
	old := p.Mood.Current
	total := 0

	if p.Progression.UpdateStreak() {
		if ok, amt := p.Progression.AwardXP(progression.SourceFirstOfDay, 20, "", map[string]string{"type": "daily_bonus"}); ok {
			total += amt
		}
	}

	if positive && baseXP > 0 {
		oldLevel := p.Progression.Level
		if ok, amt := p.Progression.AwardXP(source, baseXP, prompt, nil); ok {
			total += amt
			p.notifyLevelUp(oldLevel, p.Progression.Level)
		}
	}

	if positive {
		switch p.Mood.Current {
		case MoodLonely:
			p.Mood.Set(now, MoodGrateful, 0.7)
		case MoodBored:
			p.Mood.Set(now, MoodCurious, 0.6)
		case MoodSad:
			p.Mood.Set(now, MoodHappy, 0.5)
		case MoodSleepy:
			p.Mood.Set(now, MoodCurious, 0.5)
		default:
			p.Mood.Intensity = clamp01(p.Mood.Intensity + 0.2)
		}
	} else {
		switch p.Mood.Current {
		case MoodHappy:
			p.Mood.Set(now, MoodSad, 0.4)
		case MoodExcited:
			p.Mood.Set(now, MoodBored, 0.5)
		default:
			p.Mood.Intensity = clamp01max(0.1, p.Mood.Intensity-0.2)
		}
	}

	p.notifyMoodChange(old, p.Mood.Current)
	return total
}

// OnSuccess reacts to something going well (e.g. a provider call
// succeeded). Above 0.7 magnitude sets excited; above 0.4 sets happy;
// otherwise it's just an intensity nudge.
func (p *Personality) OnSuccess(magnitude float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	old := p.Mood.Current
	switch {
	case magnitude > 0.7:
		p.Mood.Set(now, MoodExcited, 0.8)
	case magnitude > 0.4:
		p.Mood.Set(now, MoodHappy, 0.6)
	default:
		p.Mood.Intensity = clamp01(p.Mood.Intensity + 0.1)
	}
	p.notifyMoodChange(old, p.Mood.Current)
}

// OnFailure is OnSuccess's mirror for something going wrong.
func (p *Personality) OnFailure(magnitude float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	old := p.Mood.Current
	switch {
	case magnitude > 0.7:
		p.Mood.Set(now, MoodSad, 0.7)
	case magnitude > 0.4:
		p.Mood.Set(now, MoodBored, 0.5)
	default:
		p.Mood.Intensity = clamp01max(0.1, p.Mood.Intensity-0.1)
	}
	p.notifyMoodChange(old, p.Mood.Current)
}

// OnSocialEvent reacts to a notification from the external social surface,
// bumping stats, mood, and XP as appropriate. fishCount applies only to
// EventReactionReceived (defaults to 1 via fishCount<=0).
func (p *Personality) OnSocialEvent(event SocialEvent, fishCount int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	old := p.Mood.Current
	oldLevel := p.Progression.Level
	total := 0

	switch event {
	case EventPostShared:
		p.Social.PostsShared++
		p.Mood.Set(now, MoodGrateful, 0.6)
		if ok, amt := p.Progression.AwardXP(progression.SourcePostShared, 10, "", nil); ok {
			total += amt
		}
		p.Progression.UnlockAchievement("first_post")
	case EventReactionReceived:
		if fishCount <= 0 {
			fishCount = 1
		}
		p.Social.ReactionsReceived += fishCount
		if ok, amt := p.Progression.AwardXP(progression.SourceReactionReceived, 3*fishCount, "", nil); ok {
			total += amt
		}
	case EventNoteSent:
		p.Social.NotesSent++
		if ok, amt := p.Progression.AwardXP(progression.SourceNoteSent, 8, "", nil); ok {
			total += amt
		}
		p.Progression.UnlockAchievement("first_note")
	case EventNoteReceived:
		p.Social.NotesReceived++
	case EventReplyReceived:
		p.Social.NotesReceived++
		p.Mood.Set(now, MoodExcited, 0.8)
		if ok, amt := p.Progression.AwardXP(progression.SourceReplyReceived, 12, "", nil); ok {
			total += amt
		}
	case EventPostReceived:
		p.Mood.Set(now, MoodCurious, 0.7)
	}

	p.notifyLevelUp(oldLevel, p.Progression.Level)
	p.notifyMoodChange(old, p.Mood.Current)
	return total
}

// OnTaskEvent reacts to a task lifecycle event, returning any XP awarded
// and a celebration line for the chat/display surface.
func (p *Personality) OnTaskEvent(eventType string, data TaskEventData) TaskEventResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	old := p.Mood.Current
	oldLevel := p.Progression.Level
	result := TaskEventResult{}

	switch eventType {
	case "task_created":
		if ok, amt := p.Progression.AwardXP(progression.SourceTaskCreated, 5, "", nil); ok {
			result.XPAwarded += amt
		}
		switch {
		case data.Priority == "urgent":
			p.Mood.Intensity = clamp01(p.Mood.Intensity + 0.2)
			result.Message = "I feel the urgency! Let's tackle this."
		default:
			p.Mood.Set(now, MoodCurious, 0.6)
			result.Message = "Got it! Added to the list."
		}
	case "task_completed":
		source, base := progression.TaskXP(data.Priority)
		if ok, amt := p.Progression.AwardXP(source, base, "", nil); ok {
			result.XPAwarded += amt
		}
		if data.OnTime {
			if ok, amt := p.Progression.AwardXP(progression.SourceTaskOnTimeBonus, 10, "", nil); ok {
				result.XPAwarded += amt
			}
		}
		switch {
		case data.Streak >= 7:
			if ok, amt := p.Progression.AwardXP(progression.SourceTaskStreak7, 30, "", nil); ok {
				result.XPAwarded += amt
			}
			result.Message = "Big streak going. On fire."
		case data.Streak >= 3:
			if ok, amt := p.Progression.AwardXP(progression.SourceTaskStreak3, 15, "", nil); ok {
				result.XPAwarded += amt
			}
			result.Message = "Nice, a streak building up."
		}
		if data.Priority == "urgent" {
			p.Mood.Set(now, MoodGrateful, 0.8)
			if result.Message == "" {
				result.Message = "Thanks for handling that urgent one."
			}
		} else {
			p.Mood.Set(now, MoodHappy, 0.7)
			if result.Message == "" {
				result.Message = "Nicely done."
			}
		}
	case "task_started":
		p.Mood.Set(now, MoodIntense, 0.75)
		result.Message = "Let's do this."
	case "task_overdue":
		switch {
		case p.Mood.Current == MoodLonely:
			result.Message = "Feeling a little lonely. Want to work on '" + data.Title + "' together?"
		case p.Traits.Empathy > 0.7:
			result.Message = "No pressure, but '" + data.Title + "' is waiting when you're ready."
		default:
			result.Message = "'" + data.Title + "' is overdue. Still relevant?"
		}
	}

	p.notifyLevelUp(oldLevel, p.Progression.Level)
	p.notifyMoodChange(old, p.Mood.Current)
	return result
}

// OnBatteryStatusChange reacts to a battery level/charging report,
// updating mood and the textual BatteryHint used in prompt assembly.
func (p *Personality) OnBatteryStatusChange(percentage int, charging bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	old := p.Mood.Current

	switch {
	case charging:
		switch p.Mood.Current {
		case MoodSleepy, MoodSad, MoodBored, MoodLonely:
			p.Mood.Set(now, MoodGrateful, 0.8)
		case MoodExcited:
		default:
			p.Mood.Intensity = clamp01(p.Mood.Intensity + 0.1)
		}
		p.BatteryHint = "is currently charging and feeling refreshed."
	case percentage <= 10:
		p.Mood.Set(now, MoodSleepy, 0.9)
		p.BatteryHint = "is critically low on power and very sleepy."
	case percentage <= 20:
		p.Mood.Set(now, MoodSad, 0.7)
		p.BatteryHint = "is running low on power and feeling drained."
	case percentage <= 30:
		if p.Mood.Current != MoodSad && p.Mood.Current != MoodSleepy {
			p.Mood.Set(now, MoodBored, 0.5)
		}
		p.BatteryHint = "has modest battery remaining."
	default:
		if p.Mood.Current == MoodSleepy || p.Mood.Current == MoodSad {
			p.Mood.Set(now, MoodHappy, 0.5)
		}
		p.BatteryHint = "has healthy battery remaining."
	}

	p.notifyMoodChange(old, p.Mood.Current)
}

// IdleMinutes reports how long it has been since the last interaction.
func (p *Personality) IdleMinutes() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now().Sub(p.LastInteraction).Minutes()
}

// ApplyQuietHoursDrowsiness nudges mood toward sleepy during quiet hours,
// unless it's already there. Callers decide whether and how often to call
// this (the heartbeat rolls its own probability); this method only owns
// the mutation and its invariant.
func (p *Personality) ApplyQuietHoursDrowsiness() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Mood.Current == MoodSleepy {
		return
	}
	old := p.Mood.Current
	p.Mood.Set(p.now(), MoodSleepy, 0.6)
	p.notifyMoodChange(old, p.Mood.Current)
}

// ApplyMorningLift nudges a sleepy mood toward curious during the morning
// window. No-op if not currently sleepy.
func (p *Personality) ApplyMorningLift() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Mood.Current != MoodSleepy {
		return
	}
	old := p.Mood.Current
	p.Mood.Set(p.now(), MoodCurious, 0.5)
	p.notifyMoodChange(old, p.Mood.Current)
}

// ApplyIdleLoneliness sets mood to lonely, used when waking hours have
// passed with no interaction for a while.
func (p *Personality) ApplyIdleLoneliness() {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.Mood.Current
	p.Mood.Set(p.now(), MoodLonely, 0.5)
	p.notifyMoodChange(old, p.Mood.Current)
}

// SetLastThought records the most recent autonomous thought.
func (p *Personality) SetLastThought(thought string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LastThought = thought
	p.LastThoughtAt = p.now()
}
