package brain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

func TestEstimateTokensGrowsWithHistory(t *testing.T) {
	short := estimateTokens("gpt-4", "you are helpful", nil)
	long := estimateTokens("gpt-4", "you are helpful", []domain.Message{
		{Role: domain.RoleUser, Content: "tell me about your day in great detail please"},
		{Role: domain.RoleAssistant, Content: "it was a long and eventful day full of tasks"},
	})
	require.Greater(t, long, short)
}

func TestEstimateTokensFallsBackForUnknownModel(t *testing.T) {
	n := estimateTokens("some-local-ollama-model", "system prompt", []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
	})
	require.Positive(t, n)
}

func TestGetTokenizerCachesByModel(t *testing.T) {
	a, err := getTokenizer("gpt-4")
	require.NoError(t, err)
	b, err := getTokenizer("gpt-4")
	require.NoError(t, err)
	require.Same(t, a, b)
}
