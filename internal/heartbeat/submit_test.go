package heartbeat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubmitRunsInlineWhenNotRunning(t *testing.T) {
	h := newTestHeartbeat(t)

	var ran bool
	err := h.Submit(context.Background(), func(ctx context.Context) { ran = true })

	require.NoError(t, err)
	require.True(t, ran)
}

func TestSubmitRunsOnMainLoopWhileRunning(t *testing.T) {
	h := newTestHeartbeat(t)
	h.cfg.TickIntervalSeconds = 3600 // keep ticks from interfering

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the command loop goroutine a moment to start selecting on commands.
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.running
	}, time.Second, time.Millisecond)

	var mainGoroutine bool
	err := h.Submit(context.Background(), func(ctx context.Context) { mainGoroutine = true })
	require.NoError(t, err)
	require.True(t, mainGoroutine)
}

func TestSubmitSerializesConcurrentCalls(t *testing.T) {
	h := newTestHeartbeat(t)
	h.cfg.TickIntervalSeconds = 3600

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.running
	}, time.Second, time.Millisecond)

	var counter int64
	var inFlight int32
	var maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Submit(context.Background(), func(ctx context.Context) {
				n := atomic.AddInt32(&inFlight, 1)
				if n > atomic.LoadInt32(&maxInFlight) {
					atomic.StoreInt32(&maxInFlight, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&counter, 1)
				atomic.AddInt32(&inFlight, -1)
			})
		}()
	}
	wg.Wait()

	require.Equal(t, int64(20), counter)
	require.Equal(t, int32(1), maxInFlight)
}

func TestSubmitReturnsContextErrorWhenCancelledBeforeAccepted(t *testing.T) {
	h := newTestHeartbeat(t)
	h.mu.Lock()
	h.running = true // pretend the loop is up, but nothing ever drains h.commands
	h.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Submit(ctx, func(ctx context.Context) {})
	require.ErrorIs(t, err, context.Canceled)
}
