package progression

import "strconv"

// Achievement is an unlockable badge, supplemented from
// original_source/core/progression.py's ACHIEVEMENTS table.
type Achievement struct {
	ID          string
	Name        string
	Description string
	XPReward    int
	Unlocked    bool
	UnlockedAt  int64 // unix seconds, 0 if not unlocked
}

// AchievementCatalog is the fixed set of achievements a tracker starts with.
func AchievementCatalog() map[string]Achievement {
	return map[string]Achievement{
		"first_chat": {ID: "first_chat", Name: "First Words", Description: "Had your first conversation", XPReward: 10},
		"night_owl":  {ID: "night_owl", Name: "Night Owl", Description: "Chatted during quiet hours", XPReward: 25},
		"task_master": {ID: "task_master", Name: "Task Master", Description: "Completed 25 tasks", XPReward: 150},
		"streak_7":   {ID: "streak_7", Name: "Dedicated", Description: "7-day conversation streak", XPReward: 200},
		"chat_100":   {ID: "chat_100", Name: "Conversationalist", Description: "Reached 100 total chats", XPReward: 300},
		"legendary":  {ID: "legendary", Name: "Legendary", Description: "Reached Level 25", XPReward: 500},
		"first_post": {ID: "first_post", Name: "Going Public", Description: "Shared your first post", XPReward: 15},
		"first_note": {ID: "first_note", Name: "Pen Pal", Description: "Sent your first note", XPReward: 15},
	}
}

// prestigeBadge is appended to Badges directly on DoPrestige; it is not part
// of the achievement catalog since prestige is a repeatable milestone, not a
// one-shot unlock.
func prestigeBadge(prestige int) string {
	return "prestige_" + strconv.Itoa(prestige)
}
