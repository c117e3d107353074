package memorystore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/domain"
	"github.com/inkling-labs/inkling-core/internal/memorystore"
)

func open(t *testing.T) *memorystore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.db")
	s, err := memorystore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRememberGetRoundTrip(t *testing.T) {
	s := open(t)
	_, err := s.Remember("user_name", "Alice", domain.MemoryCategoryUser, 0.95)
	require.NoError(t, err)

	entry, found, err := s.Get("user_name", domain.MemoryCategoryUser)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Alice", entry.Value)
}

func TestRememberUpdatesIdentityNotDuplicate(t *testing.T) {
	s := open(t)
	_, err := s.Remember("pref_pizza", "pizza", domain.MemoryCategoryPreference, 0.9)
	require.NoError(t, err)
	_, err = s.Remember("pref_pizza", "deep dish pizza", domain.MemoryCategoryPreference, 0.8)
	require.NoError(t, err)

	n, err := s.Count(nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	entry, _, err := s.Get("pref_pizza", domain.MemoryCategoryPreference)
	require.NoError(t, err)
	require.Equal(t, "deep dish pizza", entry.Value)
}

func TestImportanceClamped(t *testing.T) {
	s := open(t)
	e, err := s.Remember("k", "v", domain.MemoryCategoryFact, 5.0)
	require.NoError(t, err)
	require.Equal(t, 1.0, e.Importance)

	e, err = s.Remember("k2", "v", domain.MemoryCategoryFact, -5.0)
	require.NoError(t, err)
	require.Equal(t, 0.0, e.Importance)
}

func TestRecallRanksByImportance(t *testing.T) {
	s := open(t)
	_, _ = s.Remember("alpha", "pizza lover", domain.MemoryCategoryFact, 0.2)
	_, _ = s.Remember("beta", "pizza hater", domain.MemoryCategoryFact, 0.9)

	results, err := s.Recall("pizza", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "beta", results[0].Key)
}

func TestForgetOldPrunesLowImportance(t *testing.T) {
	s := open(t)
	_, _ = s.Remember("old", "stale", domain.MemoryCategoryFact, 0.1)
	n, err := s.ForgetOld(-1, 0.5)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
