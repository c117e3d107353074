package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseExprRejectsGarbage(t *testing.T) {
	for _, bad := range []string{
		"__import__('os').system('rm -rf /')",
		"every(5)",
		"every().fortnight",
		"every().day.at('25:00')",
		"every().day.at('12:5')",
	} {
		_, err := ParseExpr(bad)
		require.Error(t, err, bad)
	}
}

func TestParseExprAcceptsValidForms(t *testing.T) {
	for _, good := range []string{
		"every().hour",
		"every(5).minutes",
		"every().day.at('14:30')",
		"every().monday.at('09:00')",
		"every(2).weeks",
	} {
		_, err := ParseExpr(good)
		require.NoError(t, err, good)
	}
}

func TestNextEveryNMinutes(t *testing.T) {
	e, err := ParseExpr("every(5).minutes")
	require.NoError(t, err)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, base.Add(5*time.Minute), e.Next(base))
}

func TestNextDailyAt(t *testing.T) {
	e, err := ParseExpr("every().day.at('14:30')")
	require.NoError(t, err)
	before := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	next := e.Next(before)
	require.Equal(t, time.Date(2026, 1, 1, 14, 30, 0, 0, time.UTC), next)

	after := time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC)
	next2 := e.Next(after)
	require.Equal(t, time.Date(2026, 1, 2, 14, 30, 0, 0, time.UTC), next2)
}

func TestNextWeekday(t *testing.T) {
	e, err := ParseExpr("every().monday.at('09:00')")
	require.NoError(t, err)
	// 2026-01-01 is a Thursday.
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	next := e.Next(start)
	require.Equal(t, time.Monday, next.Weekday())
	require.True(t, next.After(start))
}
