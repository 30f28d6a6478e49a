package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/tabvault/internal/logger"
)

func newTestDebouncer(base time.Duration) *Debouncer {
	return NewDebouncer(context.Background(), base, logger.Nop())
}

func TestDebouncer_BurstCollapsesToOneExecution(t *testing.T) {
	d := newTestDebouncer(10 * time.Millisecond)

	var runs atomic.Int32
	for i := 0; i < 10; i++ {
		d.Debounce("k", func(context.Context) { runs.Add(1) }, ReasonRealtimeEvent, 0)
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "replaced tasks must never fire")
	assert.False(t, d.HasPendingTask("k"))
}

func TestDebouncer_ReplacementRunsLatestTask(t *testing.T) {
	d := newTestDebouncer(10 * time.Millisecond)

	var got atomic.Value
	d.Debounce("k", func(context.Context) { got.Store("first") }, ReasonRealtimeEvent, 0)
	d.Debounce("k", func(context.Context) { got.Store("second") }, ReasonRealtimeEvent, 0)

	require.Eventually(t, func() bool { return got.Load() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "second", got.Load())
}

func TestDebouncer_IndependentKeys(t *testing.T) {
	d := newTestDebouncer(10 * time.Millisecond)

	var runs atomic.Int32
	d.Debounce("a", func(context.Context) { runs.Add(1) }, ReasonRealtimeEvent, 0)
	d.Debounce("b", func(context.Context) { runs.Add(1) }, ReasonRealtimeEvent, 0)
	assert.Equal(t, 2, d.PendingTaskCount())

	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_FlushRunsImmediately(t *testing.T) {
	d := newTestDebouncer(time.Hour)

	var runs atomic.Int32
	d.Debounce("k", func(context.Context) { runs.Add(1) }, ReasonManual, 0)

	d.Flush("k")

	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.HasPendingTask("k"))

	// Flushing again is a no-op.
	d.Flush("k")
	assert.Equal(t, int32(1), runs.Load())
}

func TestDebouncer_CancelAllDropsWithoutRunning(t *testing.T) {
	d := newTestDebouncer(20 * time.Millisecond)

	var runs atomic.Int32
	d.Debounce("a", func(context.Context) { runs.Add(1) }, ReasonRealtimeEvent, 0)
	d.Debounce("b", func(context.Context) { runs.Add(1) }, ReasonRealtimeEvent, 0)

	d.CancelAll()

	assert.Equal(t, 0, d.PendingTaskCount())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestDebouncer_DelayOverrideTakesPrecedence(t *testing.T) {
	d := newTestDebouncer(time.Hour)

	var runs atomic.Int32
	d.Debounce("k", func(context.Context) { runs.Add(1) }, ReasonRealtimeEvent, 5*time.Millisecond)

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
}

func TestDebouncer_EffectiveDelayScaling(t *testing.T) {
	d := newTestDebouncer(100 * time.Millisecond)

	assert.Equal(t, 100*time.Millisecond, d.effectiveDelayLocked(ReasonRealtimeEvent))
	assert.Equal(t, 150*time.Millisecond, d.effectiveDelayLocked(ReasonNetworkChange))
	assert.Equal(t, 200*time.Millisecond, d.effectiveDelayLocked(ReasonReconnect))
	assert.Equal(t, 50*time.Millisecond, d.effectiveDelayLocked(ReasonManual))

	d.SetNetworkQuality(NetworkPoor)
	assert.Equal(t, 400*time.Millisecond, d.effectiveDelayLocked(ReasonRealtimeEvent))

	d.SetNetworkQuality(NetworkExcellent)
	assert.Equal(t, 50*time.Millisecond, d.effectiveDelayLocked(ReasonRealtimeEvent))
}
