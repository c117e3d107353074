package brain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

var termPattern = regexp.MustCompile(`[a-z][a-z0-9_'-]{2,}`)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "your": true, "with": true, "this": true,
	"that": true, "have": true, "has": true, "was": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"can": true, "could": true, "would": true, "should": true, "will": true,
	"about": true, "from": true, "into": true, "just": true, "like": true,
}

// extractQueryTerms lowercases text, pulls word-shaped terms, drops stop
// words, and keeps the first 4 unique terms in order of appearance.
func extractQueryTerms(text string) []string {
	matches := termPattern.FindAllString(strings.ToLower(text), -1)
	seen := map[string]bool{}
	var terms []string
	for _, m := range matches {
		if stopWords[m] || seen[m] {
			continue
		}
		seen[m] = true
		terms = append(terms, m)
		if len(terms) == 4 {
			break
		}
	}
	return terms
}

// buildMemoryContext renders up to maxItems/2 preference memories plus
// memories matched by query terms extracted from text, as
// "Things I remember:\n- key: value\n...", truncated at maxChars. Returns
// "" when there is nothing to say or no store is wired.
func buildMemoryContext(store domain.MemoryStore, text string, maxItems, maxChars int) string {
	if store == nil || maxItems <= 0 {
		return ""
	}

	seen := map[string]bool{}
	var entries []domain.MemoryEntry

	prefCategory := domain.MemoryCategoryPreference
	prefs, _ := store.RecallByCategory(prefCategory, maxItems/2)
	for _, e := range prefs {
		key := string(e.Category) + "|" + e.Key
		if !seen[key] {
			seen[key] = true
			entries = append(entries, e)
		}
	}

	for _, term := range extractQueryTerms(text) {
		matched, _ := store.Recall(term, nil, maxItems)
		for _, e := range matched {
			key := string(e.Category) + "|" + e.Key
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, e)
			if len(entries) >= maxItems {
				break
			}
		}
		if len(entries) >= maxItems {
			break
		}
	}

	if len(entries) == 0 {
		return ""
	}
	if len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	var b strings.Builder
	b.WriteString("Things I remember:\n")
	for _, e := range entries {
		line := fmt.Sprintf("- %s: %s\n", e.Key, e.Value)
		if maxChars > 0 && b.Len()+len(line) > maxChars {
			break
		}
		b.WriteString(line)
	}

	out := b.String()
	if maxChars > 0 && len(out) > maxChars {
		out = out[:maxChars]
	}
	return out
}

// sortedMemoryKeys returns the entries' keys in sorted order, independent
// of the order the entries are given in.
func sortedMemoryKeys(entries []domain.MemoryEntry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	sort.Strings(keys)
	return keys
}
