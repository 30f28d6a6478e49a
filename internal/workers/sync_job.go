package workers

import (
	"context"
	"sync"
	"time"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/models"
)

// FullSyncer is the slice of the sync service the job needs.
type FullSyncer interface {
	FullSync(ctx context.Context) models.SyncResult
}

// SyncJob runs a full pull-merge-push cycle on a ticker. The realtime
// layer reacts to individual events; the job guarantees convergence even
// when the feed is down or events were missed.
type SyncJob struct {
	syncer   FullSyncer
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a SyncJob that is idle until Start is called. A
// non-positive interval defaults to 5 minutes.
func NewSyncJob(syncer FullSyncer, interval time.Duration, log *logger.Logger) *SyncJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SyncJob{syncer: syncer, interval: interval, logger: log}
}

// Start stops any previous run, then launches the ticker goroutine. The
// goroutine exits when ctx is cancelled or Stop is called.
func (j *SyncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				res := j.syncer.FullSync(jobCtx)
				if res.Err != nil {
					j.logger.Warn().Err(res.Err).Msg("periodic sync failed; next tick retries")
				}
			}
		}
	}()
}

// Stop cancels the goroutine and blocks until it has exited. Safe to call
// when the job is not running.
func (j *SyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
