package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/tabvault/tabvault/internal/logger"
)

// DebounceReason labels why a task was scheduled. Each reason carries a
// delay multiplier so different trigger classes batch differently under
// the same base delay.
type DebounceReason string

const (
	ReasonRealtimeEvent DebounceReason = "realtime_event"
	ReasonNetworkChange DebounceReason = "network_change"
	ReasonReconnect     DebounceReason = "reconnect"
	ReasonManual        DebounceReason = "manual"
)

// DefaultDebounceDelay is the base delay before a scheduled task runs when
// no override is given and network quality is "good".
const DefaultDebounceDelay = 2 * time.Second

var reasonMultipliers = map[DebounceReason]float64{
	ReasonRealtimeEvent: 1.0,
	ReasonNetworkChange: 1.5,
	ReasonReconnect:     2.0,
	ReasonManual:        0.5,
}

type pendingTask struct {
	timer  *time.Timer
	task   func(context.Context)
	reason DebounceReason
}

// Debouncer is a keyed task scheduler that collapses bursts of trigger
// events into one delayed execution. Scheduling under an already-pending
// key fully replaces the previous task, including its timer.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*pendingTask

	baseDelay time.Duration
	quality   NetworkQuality

	runCtx context.Context
	log    *logger.Logger
}

// NewDebouncer constructs a Debouncer whose tasks run with runCtx. A
// non-positive baseDelay falls back to DefaultDebounceDelay.
func NewDebouncer(runCtx context.Context, baseDelay time.Duration, log *logger.Logger) *Debouncer {
	if baseDelay <= 0 {
		baseDelay = DefaultDebounceDelay
	}
	return &Debouncer{
		pending:   make(map[string]*pendingTask),
		baseDelay: baseDelay,
		quality:   NetworkGood,
		runCtx:    runCtx,
		log:       log,
	}
}

// Debounce cancels any previously scheduled task under key and schedules
// task after the effective delay: delayOverride when positive, otherwise
// the base delay scaled by the reason's multiplier and the current network
// quality.
func (d *Debouncer) Debounce(key string, task func(context.Context), reason DebounceReason, delayOverride time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}

	delay := delayOverride
	if delay <= 0 {
		delay = d.effectiveDelayLocked(reason)
	}

	p := &pendingTask{task: task, reason: reason}
	p.timer = time.AfterFunc(delay, func() {
		d.fire(key, p)
	})
	d.pending[key] = p

	d.log.Debug().
		Str("key", key).
		Str("reason", string(reason)).
		Dur("delay", delay).
		Msg("debounced task scheduled")
}

// Flush runs the pending task for key immediately and returns once it has
// completed. It is a no-op when nothing is pending under key.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		p.task(d.runCtx)
	}
}

// CancelAll clears every pending timer without running the tasks. Used on
// explicit disable and on transition to offline.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

// HasPendingTask reports whether a task is scheduled under key.
func (d *Debouncer) HasPendingTask(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.pending[key]
	return ok
}

// PendingTaskCount returns the number of scheduled tasks.
func (d *Debouncer) PendingTaskCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.pending)
}

// SetNetworkQuality retunes the delay scaling for subsequent schedules.
// Already-pending timers keep their original delay.
func (d *Debouncer) SetNetworkQuality(q NetworkQuality) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.quality = q
}

func (d *Debouncer) effectiveDelayLocked(reason DebounceReason) time.Duration {
	mult, ok := reasonMultipliers[reason]
	if !ok {
		mult = 1.0
	}
	return time.Duration(float64(d.baseDelay) * mult * d.quality.delayFactor())
}

func (d *Debouncer) fire(key string, p *pendingTask) {
	d.mu.Lock()
	current, ok := d.pending[key]
	if !ok || current != p {
		// Replaced or cancelled between timer expiry and acquiring the lock.
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	p.task(d.runCtx)
}
