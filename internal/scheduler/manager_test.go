package scheduler

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	return New(zerolog.Nop(), dir+"/config.yml")
}

func TestAddTaskRejectsBadExpression(t *testing.T) {
	m := newTestManager(t)
	_, err := m.AddTask("bad", "__import__('os')", "noop", true)
	require.Error(t, err)
}

func TestRunPendingDispatchesDueTask(t *testing.T) {
	m := newTestManager(t)
	var calls int32
	m.RegisterAction("tick", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	task, err := m.AddTask("ticker", "every(1).seconds", "tick", true)
	require.NoError(t, err)
	task.NextRun = time.Now().Add(-time.Second)

	m.RunPending(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
}

func TestRunPendingCapturesActionError(t *testing.T) {
	m := newTestManager(t)
	m.RegisterAction("fail", func(ctx context.Context) error {
		return errors.New("boom")
	})
	task, err := m.AddTask("failer", "every(1).seconds", "fail", true)
	require.NoError(t, err)
	task.NextRun = time.Now().Add(-time.Second)

	m.RunPending(context.Background())
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return task.LastError == "boom"
	}, time.Second, 5*time.Millisecond)
}

func TestSetEnabledPersistsToConfig(t *testing.T) {
	m := newTestManager(t)
	m.RegisterAction("noop", func(ctx context.Context) error { return nil })
	_, err := m.AddTask("daily", "every().day.at('08:00')", "noop", true)
	require.NoError(t, err)

	ok := m.SetEnabled("daily", false)
	require.True(t, ok)

	data, err := os.ReadFile(m.configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "enabled: false")
}

func TestRunPendingSkipsWhenDisabledGlobally(t *testing.T) {
	m := newTestManager(t)
	var calls int32
	m.RegisterAction("tick", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	task, err := m.AddTask("ticker", "every(1).seconds", "tick", true)
	require.NoError(t, err)
	task.NextRun = time.Now().Add(-time.Second)
	m.enabled = false

	m.RunPending(context.Background())
	time.Sleep(20 * time.Millisecond)
	require.EqualValues(t, 0, atomic.LoadInt32(&calls))
}
