package brain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

type stubMemoryStore struct {
	byCategory map[domain.MemoryCategory][]domain.MemoryEntry
	byTerm     map[string][]domain.MemoryEntry
}

func (s *stubMemoryStore) Remember(key, value string, category domain.MemoryCategory, importance float64) (domain.MemoryEntry, error) {
	return domain.MemoryEntry{Key: key, Value: value, Category: category, Importance: importance}, nil
}

func (s *stubMemoryStore) Get(key string, category domain.MemoryCategory) (domain.MemoryEntry, bool, error) {
	return domain.MemoryEntry{}, false, nil
}

func (s *stubMemoryStore) Recall(queryTerm string, category *domain.MemoryCategory, limit int) ([]domain.MemoryEntry, error) {
	return s.byTerm[queryTerm], nil
}

func (s *stubMemoryStore) RecallByCategory(category domain.MemoryCategory, limit int) ([]domain.MemoryEntry, error) {
	entries := s.byCategory[category]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *stubMemoryStore) RecallRecent(limit int) ([]domain.MemoryEntry, error) { return nil, nil }
func (s *stubMemoryStore) RecallImportant(limit int) ([]domain.MemoryEntry, error) {
	return nil, nil
}
func (s *stubMemoryStore) ForgetOld(maxAgeDays int, importanceThreshold float64) (int, error) {
	return 0, nil
}
func (s *stubMemoryStore) Count(category *domain.MemoryCategory) (int, error) { return 0, nil }

func TestExtractQueryTermsFiltersStopWordsAndCaps(t *testing.T) {
	terms := extractQueryTerms("What is the best way to brew green tea with your kettle?")
	require.LessOrEqual(t, len(terms), 4)
	require.NotContains(t, terms, "what")
	require.NotContains(t, terms, "the")
}

func TestBuildMemoryContextEmptyWithoutStore(t *testing.T) {
	require.Equal(t, "", buildMemoryContext(nil, "hello", 6, 600))
}

func TestBuildMemoryContextIncludesPreferencesAndMatches(t *testing.T) {
	store := &stubMemoryStore{
		byCategory: map[domain.MemoryCategory][]domain.MemoryEntry{
			domain.MemoryCategoryPreference: {{Key: "pref_tea", Value: "green tea", Category: domain.MemoryCategoryPreference}},
		},
		byTerm: map[string][]domain.MemoryEntry{
			"kettle": {{Key: "gift_kettle", Value: "a kettle from mom", Category: domain.MemoryCategoryFact}},
		},
	}
	out := buildMemoryContext(store, "tell me about the kettle", 6, 600)
	require.Contains(t, out, "Things I remember:")
	require.Contains(t, out, "pref_tea: green tea")
	require.Contains(t, out, "gift_kettle: a kettle from mom")
}

func TestBuildMemoryContextTruncatesAtMaxChars(t *testing.T) {
	store := &stubMemoryStore{
		byCategory: map[domain.MemoryCategory][]domain.MemoryEntry{
			domain.MemoryCategoryPreference: {
				{Key: "pref_a", Value: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Category: domain.MemoryCategoryPreference},
			},
		},
	}
	out := buildMemoryContext(store, "hi", 6, 20)
	require.LessOrEqual(t, len(out), 20)
}
