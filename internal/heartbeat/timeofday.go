package heartbeat

import "fmt"

// isQuietHours reports whether hour falls in [start, end), wrapping around
// midnight when start > end.
func isQuietHours(start, end, hour int) bool {
	if start > end {
		return hour >= start || hour < end
	}
	return start <= hour && hour < end
}

func (h *Heartbeat) isQuietHours(hour int) bool {
	return isQuietHours(h.cfg.QuietHoursStart, h.cfg.QuietHoursEnd, hour)
}

func quietHoursLabel(start, end int) string {
	return fmt.Sprintf("%d:00-%d:00", start, end)
}

// updateTimeBasedMood applies the time-of-day mood biases: drowsy during
// quiet hours, a morning lift out of sleepiness, and creeping loneliness
// if waking hours have passed with nobody around.
func (h *Heartbeat) updateTimeBasedMood() {
	if !h.cfg.EnableTimeBehaviors {
		return
	}
	hour := h.now().Hour()

	if h.isQuietHours(hour) {
		if h.random() < 0.3 {
			h.personality.ApplyQuietHoursDrowsiness()
		}
		return
	}

	if hour >= 7 && hour < 10 {
		if h.random() < 0.4 {
			h.personality.ApplyMorningLift()
		}
	}

	if h.personality.IdleMinutes() > 60 {
		if h.random() < 0.2 {
			h.personality.ApplyIdleLoneliness()
		}
	}
}
