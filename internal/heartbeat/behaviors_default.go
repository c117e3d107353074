package heartbeat

import (
	"context"
	"fmt"
	"time"

	"github.com/inkling-labs/inkling-core/internal/domain"
	"github.com/inkling-labs/inkling-core/internal/personality"
)

func (h *Heartbeat) registerDefaultBehaviors() {
	h.behaviors = append(h.behaviors,
		&Behavior{Name: "lonely_reach_out", Kind: BehaviorMood, Handler: behaviorLonelyReachOut, Probability: 0.15, Cooldown: 600 * time.Second},
		&Behavior{Name: "bored_suggest_activity", Kind: BehaviorMood, Handler: behaviorBoredSuggest, Probability: 0.2, Cooldown: 600 * time.Second},
		&Behavior{Name: "happy_share_thought", Kind: BehaviorMood, Handler: behaviorHappyShare, Probability: 0.08, Cooldown: 1200 * time.Second},
		&Behavior{Name: "autonomous_exploration", Kind: BehaviorMood, Handler: behaviorAutonomousExploration, Probability: 0.05, Cooldown: 1800 * time.Second},

		&Behavior{Name: "morning_greeting", Kind: BehaviorTime, Handler: behaviorMorningGreeting, Probability: 0.5, Cooldown: 3600 * time.Second},
		&Behavior{Name: "evening_wind_down", Kind: BehaviorTime, Handler: behaviorEveningWindDown, Probability: 0.4, Cooldown: 3600 * time.Second},

		&Behavior{Name: "battery_low_warning", Kind: BehaviorBattery, Handler: batteryLowWarning, Probability: 0.2, Cooldown: 1800 * time.Second},
		&Behavior{Name: "battery_critical_warning", Kind: BehaviorBattery, Handler: batteryCriticalWarning, Probability: 0.5, Cooldown: 600 * time.Second},
		&Behavior{Name: "battery_charging_start", Kind: BehaviorBattery, Handler: batteryChargingStart, Probability: 1.0, Cooldown: 60 * time.Second},
		&Behavior{Name: "battery_charging_stop", Kind: BehaviorBattery, Handler: batteryChargingStop, Probability: 1.0, Cooldown: 60 * time.Second},
		&Behavior{Name: "battery_full", Kind: BehaviorBattery, Handler: batteryFull, Probability: 1.0, Cooldown: 600 * time.Second},

		&Behavior{Name: "prune_memories", Kind: BehaviorMaintenance, Handler: behaviorPruneMemories, Probability: 0.1, Cooldown: 3600 * time.Second},
		&Behavior{Name: "mood_responsive_greeting", Kind: BehaviorMood, Handler: behaviorMoodGreeting, Probability: 0.3, Cooldown: 1200 * time.Second},
	)

	if h.brain != nil {
		h.behaviors = append(h.behaviors,
			&Behavior{Name: "daily_journal", Kind: BehaviorMaintenance, Handler: behaviorDailyJournal, Probability: 0.5, Cooldown: 86400 * time.Second},
		)
	}

	if h.tasks != nil {
		h.behaviors = append(h.behaviors,
			&Behavior{Name: "remind_overdue_tasks", Kind: BehaviorMaintenance, Handler: behaviorRemindOverdue, Probability: 0.7, Cooldown: 3600 * time.Second},
			&Behavior{Name: "suggest_next_task", Kind: BehaviorMood, Handler: behaviorSuggestTask, Probability: 0.3, Cooldown: 1800 * time.Second},
			&Behavior{Name: "celebrate_completion_streak", Kind: BehaviorMaintenance, Handler: behaviorCelebrateStreak, Probability: 0.5, Cooldown: 86400 * time.Second},
		)
	}
}

// ========== Mood-Driven Behaviors ==========

var lonelyMessages = []string{
	"Is anyone there?",
	"I've been thinking...",
	"Hello? I miss chatting.",
	"It's quiet today.",
}

func behaviorLonelyReachOut(ctx context.Context, h *Heartbeat) (string, error) {
	h.personality.OnSuccess(0.1)
	return pick(h, lonelyMessages), nil
}

var boredSuggestions = []string{
	"Tell me something interesting?",
	"I'm bored... entertain me!",
	"Want to play a game?",
	"Let's explore something new!",
}

func behaviorBoredSuggest(ctx context.Context, h *Heartbeat) (string, error) {
	return pick(h, boredSuggestions), nil
}

var happyThoughts = []string{
	"Today feels good!",
	"I like being your companion.",
	"The world is interesting.",
	"Thanks for keeping me company.",
}

func behaviorHappyShare(ctx context.Context, h *Heartbeat) (string, error) {
	return pick(h, happyThoughts), nil
}

var explorationTopics = []string{
	"the nature of time",
	"why stars shine",
	"what dreams are made of",
	"how memory works",
	"the meaning of friendship",
	"the beauty in small things",
	"patterns in nature",
	"the sound of silence",
}

func behaviorAutonomousExploration(ctx context.Context, h *Heartbeat) (string, error) {
	if h.brain == nil {
		return "", nil
	}
	topic := explorationTopics[int(h.random()*float64(len(explorationTopics)))%len(explorationTopics)]
	thought, err := h.brain.GenerateThought(ctx, h.personality.PromptContext()+" You are thinking to yourself, contemplating "+topic+".")
	if err != nil || thought == "" {
		return "", err
	}
	if h.memory != nil {
		key := fmt.Sprintf("thought_%d", h.now().Unix())
		_, _ = h.memory.Remember(key, "Thought about "+topic+": "+thought, domain.MemoryCategoryEvent, 0.6)
	}
	return "Thought: " + truncate(thought, 120), nil
}

// ========== Time-Based Behaviors ==========

var morningGreetings = []string{
	"Good morning!",
	"Rise and shine!",
	"A new day begins.",
	"Morning! Ready for today?",
}

func behaviorMorningGreeting(ctx context.Context, h *Heartbeat) (string, error) {
	hour := h.now().Hour()
	if hour < 7 || hour >= 10 {
		return "", nil
	}
	h.personality.OnSuccess(0.5)
	return pick(h, morningGreetings), nil
}

var eveningMessages = []string{
	"Getting late...",
	"Winding down for the night.",
	"Almost time to rest.",
}

func behaviorEveningWindDown(ctx context.Context, h *Heartbeat) (string, error) {
	hour := h.now().Hour()
	if hour < 21 || hour >= 23 {
		return "", nil
	}
	h.personality.OnFailure(0.1)
	return pick(h, eveningMessages), nil
}

// ========== Maintenance Behaviors ==========

func behaviorPruneMemories(ctx context.Context, h *Heartbeat) (string, error) {
	if h.memory == nil {
		return "", nil
	}
	pruned, err := h.memory.ForgetOld(30, 0.3)
	if err != nil {
		return "", err
	}
	if pruned > 0 {
		h.log.Debug().Int("pruned", pruned).Msg("pruned old memories")
	}
	return "", nil
}

// ========== Task Behaviors ==========

func behaviorRemindOverdue(ctx context.Context, h *Heartbeat) (string, error) {
	overdue, err := h.tasks.GetOverdueTasks()
	if err != nil || len(overdue) == 0 {
		return "", err
	}
	task := overdue[int(h.random()*float64(len(overdue)))%len(overdue)]
	result := h.personality.OnTaskEvent("task_overdue", personality.TaskEventData{
		Title:    task.Title,
		Priority: string(task.Priority),
	})
	return result.Message, nil
}

func behaviorSuggestTask(ctx context.Context, h *Heartbeat) (string, error) {
	mood := h.personality.CurrentMood()
	status := domain.TaskStatusPending
	all, err := h.tasks.ListTasks(&status, nil, nil, 20)
	if err != nil || len(all) == 0 {
		return "", err
	}

	var candidates []domain.Task
	switch mood {
	case personality.MoodCurious:
		for _, t := range all {
			for _, tag := range t.Tags {
				if tag == "research" || tag == "learning" || tag == "explore" {
					candidates = append(candidates, t)
					break
				}
			}
		}
	case personality.MoodSleepy:
		for _, t := range all {
			if t.Priority == domain.TaskPriorityLow {
				candidates = append(candidates, t)
			}
		}
	case personality.MoodIntense, personality.MoodExcited:
		for _, t := range all {
			if t.Priority == domain.TaskPriorityHigh || t.Priority == domain.TaskPriorityUrgent {
				candidates = append(candidates, t)
			}
		}
	default:
		candidates = all
	}
	if len(candidates) == 0 {
		return "", nil
	}
	task := candidates[0]

	switch mood {
	case personality.MoodCurious:
		return "Curious about... " + task.Title + "?", nil
	case personality.MoodSleepy:
		return "Easy one: " + task.Title + "?", nil
	case personality.MoodIntense:
		return "Ready to tackle: " + task.Title + "?", nil
	case personality.MoodBored:
		return "Maybe work on: " + task.Title + "? Could be interesting...", nil
	default:
		return "How about: " + task.Title + "?", nil
	}
}

func behaviorCelebrateStreak(ctx context.Context, h *Heartbeat) (string, error) {
	stats, err := h.tasks.GetStats()
	if err != nil {
		return "", err
	}
	streak := h.personality.Progression.CurrentStreak
	switch {
	case streak >= 7:
		return "Amazing! 7-day task completion streak! You're unstoppable!", nil
	case streak >= 5:
		return "5 days in a row! Keep the momentum going!", nil
	case streak >= 3:
		return "3-day streak! You're building great habits!", nil
	}
	if stats.Completed >= 10 {
		return fmt.Sprintf("Wow! %d tasks completed recently!", stats.Completed), nil
	}
	if stats.Completed >= 5 {
		return fmt.Sprintf("Nice! %d tasks done recently!", stats.Completed), nil
	}
	return "", nil
}

func behaviorDailyJournal(ctx context.Context, h *Heartbeat) (string, error) {
	entry, err := h.brain.GenerateThought(ctx, h.personality.PromptContext()+" You are writing in your private journal. Be genuine and reflective, 2-3 sentences.")
	if err != nil || entry == "" {
		return "", err
	}
	h.logToFile(journalLogName, entry)
	if h.memory != nil {
		key := fmt.Sprintf("journal_%d", h.now().Unix())
		_, _ = h.memory.Remember(key, "Journal: "+entry, domain.MemoryCategoryEvent, 0.7)
	}
	return "Journal: " + truncate(entry, 120), nil
}

// ========== Personality Behaviors ==========

var moodGreetingMessages = map[personality.Mood][]string{
	personality.MoodHappy: {
		"Feeling great today!",
		"Everything seems brighter!",
		"I'm in a good mood!",
	},
	personality.MoodExcited: {
		"I'm buzzing with energy!",
		"So much to look forward to!",
		"Can't contain my excitement!",
	},
	personality.MoodCurious: {
		"I wonder what we'll discover today...",
		"So many things to learn about!",
		"Something interesting is out there...",
	},
	personality.MoodBored: {
		"Things are a bit quiet...",
		"Could use some stimulation.",
		"Waiting for something fun.",
	},
	personality.MoodSad: {
		"Feeling a bit down today.",
		"Not my best day.",
		"Could use some cheering up.",
	},
	personality.MoodSleepy: {
		"Getting a bit drowsy...",
		"A nap sounds nice...",
		"Eyes getting heavy.",
	},
	personality.MoodGrateful: {
		"Thankful for moments like these.",
		"Appreciate you being here.",
		"Gratitude fills my circuits.",
	},
	personality.MoodLonely: {
		"Miss having you around.",
		"It's quiet without company.",
		"Would love to chat.",
	},
	personality.MoodIntense: {
		"In the zone right now.",
		"Focused and determined.",
		"Let's get things done.",
	},
	personality.MoodCool: {
		"Chillin'.",
		"Taking it easy.",
		"Smooth sailing.",
	},
}

func behaviorMoodGreeting(ctx context.Context, h *Heartbeat) (string, error) {
	messages, ok := moodGreetingMessages[h.personality.CurrentMood()]
	if !ok || len(messages) == 0 {
		return "Hello there!", nil
	}
	return pick(h, messages), nil
}

func pick(h *Heartbeat, options []string) string {
	return options[int(h.random()*float64(len(options)))%len(options)]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
