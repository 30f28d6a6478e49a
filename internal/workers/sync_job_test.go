package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/models"
)

type fakeSyncer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSyncer) FullSync(context.Context) models.SyncResult {
	f.calls.Add(1)
	return models.SyncResult{Success: f.err == nil, Err: f.err}
}

func waitForCalls(t *testing.T, s *fakeSyncer, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.calls.Load() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected at least %d sync calls, got %d", want, s.calls.Load())
}

func TestSyncJob_TicksRepeatedly(t *testing.T) {
	syncer := &fakeSyncer{}
	job := NewSyncJob(syncer, 5*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	defer job.Stop()

	waitForCalls(t, syncer, 3)
}

func TestSyncJob_FailedSyncDoesNotStopTheTicker(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("server unreachable")}
	job := NewSyncJob(syncer, 5*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	defer job.Stop()

	waitForCalls(t, syncer, 2)
}

func TestSyncJob_StopHaltsTicking(t *testing.T) {
	syncer := &fakeSyncer{}
	job := NewSyncJob(syncer, 5*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	waitForCalls(t, syncer, 1)
	job.Stop()

	settled := syncer.calls.Load()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, settled, syncer.calls.Load())
}

func TestSyncJob_StopWithoutStartIsSafe(t *testing.T) {
	job := NewSyncJob(&fakeSyncer{}, time.Minute, logger.Nop())
	job.Stop()
	job.Stop()
}

func TestSyncJob_ContextCancelStopsTheJob(t *testing.T) {
	syncer := &fakeSyncer{}
	job := NewSyncJob(syncer, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	job.Start(ctx)
	waitForCalls(t, syncer, 1)
	cancel()

	// Stop still joins cleanly after the context already killed the loop.
	job.Stop()
	settled := syncer.calls.Load()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, settled, syncer.calls.Load())
}

func TestSyncJob_RestartReplacesPreviousRun(t *testing.T) {
	syncer := &fakeSyncer{}
	job := NewSyncJob(syncer, 5*time.Millisecond, logger.Nop())

	job.Start(context.Background())
	job.Start(context.Background())
	defer job.Stop()

	waitForCalls(t, syncer, 2)
}

func TestNewSyncJob_DefaultsInterval(t *testing.T) {
	job := NewSyncJob(&fakeSyncer{}, 0, logger.Nop())
	require.Equal(t, 5*time.Minute, job.interval)
}

func TestWorkers_StartAndStopAll(t *testing.T) {
	first := &fakeSyncer{}
	second := &fakeSyncer{}
	ws := NewWorkers(
		NewSyncJob(first, 5*time.Millisecond, logger.Nop()),
		NewSyncJob(second, 5*time.Millisecond, logger.Nop()),
	)

	ws.Start(context.Background())
	waitForCalls(t, first, 1)
	waitForCalls(t, second, 1)
	ws.Stop()
}
