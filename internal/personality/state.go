package personality

import "time"

const moodHistoryCap = 20

// MoodChange is one entry in a MoodState's history: a mood that was
// current before a transition, and when it had become current.
type MoodChange struct {
	Mood Mood      `json:"mood"`
	At   time.Time `json:"at"`
}

// MoodState is the current affective state plus a bounded history of
// prior moods.
type MoodState struct {
	Current    Mood         `json:"current"`
	Intensity  float64      `json:"intensity"`
	LastChange time.Time    `json:"last_change"`
	History    []MoodChange `json:"history,omitempty"`
}

func newMoodState(now time.Time) MoodState {
	return MoodState{Current: MoodHappy, Intensity: 0.5, LastChange: now}
}

// Set transitions to a new mood, pushing the prior mood onto history
// (capped at the most recent 20 entries) and clamping intensity to [0,1].
func (s *MoodState) Set(now time.Time, mood Mood, intensity float64) {
	s.History = append(s.History, MoodChange{Mood: s.Current, At: s.LastChange})
	if len(s.History) > moodHistoryCap {
		s.History = s.History[len(s.History)-moodHistoryCap:]
	}
	s.Current = mood
	s.Intensity = clamp01(intensity)
	s.LastChange = now
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Traits are six independent scalars in [0,1] that bias behavior
// probability and prompt tone. Mutations always clamp.
type Traits struct {
	Curiosity    float64 `json:"curiosity"`
	Cheerfulness float64 `json:"cheerfulness"`
	Verbosity    float64 `json:"verbosity"`
	Playfulness  float64 `json:"playfulness"`
	Empathy      float64 `json:"empathy"`
	Independence float64 `json:"independence"`
}

// DefaultTraits mirrors the reference personality's starting values.
func DefaultTraits() Traits {
	return Traits{
		Curiosity:    0.7,
		Cheerfulness: 0.6,
		Verbosity:    0.5,
		Playfulness:  0.6,
		Empathy:      0.7,
		Independence: 0.4,
	}
}

func (t *Traits) clamp() {
	t.Curiosity = clamp01(t.Curiosity)
	t.Cheerfulness = clamp01(t.Cheerfulness)
	t.Verbosity = clamp01(t.Verbosity)
	t.Playfulness = clamp01(t.Playfulness)
	t.Empathy = clamp01(t.Empathy)
	t.Independence = clamp01(t.Independence)
}
