package brain

import (
	"regexp"
	"strings"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

type captureRule struct {
	pattern    *regexp.Regexp
	category   domain.MemoryCategory
	key        string // fixed key, or "" to derive a slug key from the capture
	keyPrefix  string
	importance float64
	valueGroup int
}

var captureRules = []captureRule{
	{
		pattern:    regexp.MustCompile(`(?i)my name is ([a-z][a-z'-]*(?:\s+[a-z][a-z'-]*)?)`),
		category:   domain.MemoryCategoryUser,
		key:        "user_name",
		importance: 0.95,
		valueGroup: 1,
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bi (?:like|love|prefer) ([^.!?,;]+)`),
		category:   domain.MemoryCategoryPreference,
		keyPrefix:  "pref_",
		importance: 0.9,
		valueGroup: 1,
	},
	{
		pattern:    regexp.MustCompile(`(?i)i(?:'m| am) allergic to ([^.!?,;]+)`),
		category:   domain.MemoryCategoryUser,
		keyPrefix:  "allergy_",
		importance: 0.95,
		valueGroup: 1,
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bi work(?:ed)? at ([^.!?,;]+)`),
		category:   domain.MemoryCategoryUser,
		key:        "workplace",
		importance: 0.85,
		valueGroup: 1,
	},
	{
		pattern:    regexp.MustCompile(`(?i)\bi work as (?:an? )?([^.!?,;]+)`),
		category:   domain.MemoryCategoryUser,
		key:        "occupation",
		importance: 0.85,
		valueGroup: 1,
	},
}

// capturedFact is one rule-based capture pending storage.
type capturedFact struct {
	Category   domain.MemoryCategory
	Key        string
	Value      string
	Importance float64
}

// cleanCapturedValue trims whitespace, strips surrounding quotes, and cuts
// at the first remaining punctuation.
func cleanCapturedValue(raw string) string {
	v := strings.TrimSpace(raw)
	v = strings.Trim(v, `"'`)
	if idx := strings.IndexAny(v, ".!?,;"); idx >= 0 {
		v = v[:idx]
	}
	return strings.Trim(strings.TrimSpace(v), `"'`)
}

// titleCase upper-cases the first letter of each whitespace-separated word,
// lower-casing the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('_')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// captureFacts scans a raw user message against the fixed rule family and
// returns up to maxNew facts to remember.
func captureFacts(userText string, maxNew int) []capturedFact {
	var facts []capturedFact
	for _, rule := range captureRules {
		if len(facts) >= maxNew {
			break
		}
		m := rule.pattern.FindStringSubmatch(userText)
		if m == nil {
			continue
		}
		value := cleanCapturedValue(m[rule.valueGroup])
		if value == "" {
			continue
		}
		key := rule.key
		if key == "" {
			key = rule.keyPrefix + slugify(value)
		}
		if rule.category == domain.MemoryCategoryUser && key == "user_name" {
			value = titleCase(value)
		}
		facts = append(facts, capturedFact{
			Category:   rule.category,
			Key:        key,
			Value:      value,
			Importance: rule.importance,
		})
	}
	if len(facts) > maxNew {
		facts = facts[:maxNew]
	}
	return facts
}
