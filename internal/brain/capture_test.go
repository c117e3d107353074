package brain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

func TestCaptureFactsName(t *testing.T) {
	facts := captureFacts("Hi there, my name is jane doe.", 5)
	require.Len(t, facts, 1)
	require.Equal(t, "user_name", facts[0].Key)
	require.Equal(t, "Jane Doe", facts[0].Value)
	require.Equal(t, domain.MemoryCategoryUser, facts[0].Category)
}

func TestCaptureFactsPreference(t *testing.T) {
	facts := captureFacts("I love hiking in the mountains", 5)
	require.Len(t, facts, 1)
	require.Equal(t, "pref_hiking_in_the_mountains", facts[0].Key)
	require.Equal(t, domain.MemoryCategoryPreference, facts[0].Category)
}

func TestCaptureFactsAllergy(t *testing.T) {
	facts := captureFacts("I'm allergic to peanuts.", 5)
	require.Len(t, facts, 1)
	require.Equal(t, "allergy_peanuts", facts[0].Key)
	require.Equal(t, domain.MemoryCategoryUser, facts[0].Category)
}

func TestCaptureFactsWorkplace(t *testing.T) {
	facts := captureFacts("I work at Acme Corp", 5)
	require.Len(t, facts, 1)
	require.Equal(t, "workplace", facts[0].Key)
	require.Equal(t, "Acme Corp", facts[0].Value)
}

func TestCaptureFactsOccupation(t *testing.T) {
	facts := captureFacts("I work as an engineer", 5)
	require.Len(t, facts, 1)
	require.Equal(t, "occupation", facts[0].Key)
	require.Equal(t, "engineer", facts[0].Value)
}

func TestCaptureFactsNoMatch(t *testing.T) {
	facts := captureFacts("What time is it?", 5)
	require.Empty(t, facts)
}

func TestCaptureFactsRespectsMaxNew(t *testing.T) {
	facts := captureFacts("my name is Sam. I love tea. I work at Globex. I work as a baker. I'm allergic to dust.", 2)
	require.Len(t, facts, 2)
}

func TestSlugifyCollapsesPunctuation(t *testing.T) {
	require.Equal(t, "hiking_in_the_mountains", slugify("hiking in the mountains"))
	require.Equal(t, "foo_bar", slugify("  Foo!! Bar??  "))
}

func TestCleanCapturedValueCutsAtPunctuation(t *testing.T) {
	require.Equal(t, "jane", cleanCapturedValue(`"jane", she said`))
	require.Equal(t, "tea", cleanCapturedValue("tea."))
}
