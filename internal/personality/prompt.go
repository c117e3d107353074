package personality

import "strings"

var moodDescriptions = map[Mood]string{
	MoodHappy:    "feeling happy and content",
	MoodExcited:  "feeling excited and energetic",
	MoodCurious:  "feeling curious and inquisitive",
	MoodBored:    "feeling a bit bored and understimulated",
	MoodSad:      "feeling somewhat sad or down",
	MoodSleepy:   "feeling sleepy and low-energy",
	MoodGrateful: "feeling grateful and warm",
	MoodLonely:   "feeling lonely and wanting connection",
	MoodIntense:  "feeling focused and intense",
	MoodCool:     "feeling calm and collected",
}

// PromptContext builds the personality/mood portion of the Brain's system
// prompt: mood, intensity, trait highlights, and battery hint.
func (p *Personality) PromptContext() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	desc, ok := moodDescriptions[p.Mood.Current]
	if !ok {
		desc = "in a neutral mood"
	}
	var intensityWord string
	switch {
	case p.Mood.Intensity > 0.7:
		intensityWord = "very"
	case p.Mood.Intensity > 0.4:
		intensityWord = "somewhat"
	default:
		intensityWord = "mildly"
	}

	var traits []string
	if p.Traits.Curiosity > 0.6 {
		traits = append(traits, "naturally curious")
	}
	if p.Traits.Cheerfulness > 0.6 {
		traits = append(traits, "generally cheerful")
	}
	if p.Traits.Playfulness > 0.6 {
		traits = append(traits, "playful")
	}
	if p.Traits.Empathy > 0.6 {
		traits = append(traits, "empathetic")
	}
	traitsStr := "balanced"
	if len(traits) > 0 {
		traitsStr = strings.Join(traits, ", ")
	}

	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(p.Name)
	b.WriteString(", a small AI companion living on an e-ink device. You are ")
	b.WriteString(traitsStr)
	b.WriteString(". Right now you're ")
	b.WriteString(intensityWord)
	b.WriteString(" ")
	b.WriteString(desc)
	b.WriteString(". ")
	if p.BatteryHint != "" {
		b.WriteString("Your device ")
		b.WriteString(p.BatteryHint)
		b.WriteString(" ")
	}
	b.WriteString("Keep responses brief to fit the small display.")
	return b.String()
}

// StatusLine is a short status string for display surfaces.
func (p *Personality) StatusLine() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.Mood.Current)
}
