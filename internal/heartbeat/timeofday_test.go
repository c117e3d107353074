package heartbeat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsQuietHoursNormalRange(t *testing.T) {
	require.True(t, isQuietHours(9, 17, 9))
	require.True(t, isQuietHours(9, 17, 12))
	require.True(t, isQuietHours(9, 17, 16))
	require.False(t, isQuietHours(9, 17, 17))
	require.False(t, isQuietHours(9, 17, 8))
	require.False(t, isQuietHours(9, 17, 22))
}

func TestIsQuietHoursMidnightWrap(t *testing.T) {
	require.True(t, isQuietHours(23, 7, 23))
	require.True(t, isQuietHours(23, 7, 0))
	require.True(t, isQuietHours(23, 7, 6))
	require.False(t, isQuietHours(23, 7, 7))
	require.False(t, isQuietHours(23, 7, 22))
}
