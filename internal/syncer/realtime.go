// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tabvault/tabvault/internal/adapter"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/models"
)

// ConnectionState describes the realtime subscription lifecycle.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
	StateClosed       ConnectionState = "closed"
)

// RealtimeDebounceKey is the fixed debounce key under which all
// feed-triggered pulls are scheduled, so bursts of events collapse into a
// single PullLatestData call.
const RealtimeDebounceKey = "realtime_sync"

// Puller is the slice of the optimistic sync service the realtime layer
// needs. *Service satisfies it.
type Puller interface {
	PullLatestData(ctx context.Context, ownOperationID string) models.SyncResult
}

// RealtimeConfig tunes subscription lifecycle behaviour.
type RealtimeConfig struct {
	// ReconnectBaseDelay is multiplied by the attempt number for
	// exponential backoff. Default 1s.
	ReconnectBaseDelay time.Duration

	// MaxReconnectAttempts caps retries before the state settles on
	// StateError until ForceReconnect. Default 5.
	MaxReconnectAttempts int

	// HeartbeatInterval is how often the session is re-verified while
	// connected. Default 30s.
	HeartbeatInterval time.Duration

	// PollInterval, when positive, replaces the change feed with
	// short-interval polling through the same coordinator/debouncer path.
	// For backends without a row-level change feed.
	PollInterval time.Duration
}

func (c *RealtimeConfig) applyDefaults() {
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
}

// RealtimeSync consumes the change feed and turns foreign-device events
// into debounced pulls. Per event it applies, in order: the device filter
// (never react to our own writes), the coordinator gate (never race a
// pending local operation), and a priority judgment that converts user
// activity, network quality and pending-operation pressure into a debounce
// delay.
type RealtimeSync struct {
	feed         adapter.FeedClient
	puller       Puller
	coord        *Coordinator
	filter       *DeviceFilter
	deb          *Debouncer
	sessionValid func() bool
	cfg          RealtimeConfig
	log          *logger.Logger

	mu        sync.Mutex
	state     ConnectionState
	attempts  int
	quality   NetworkQuality
	activity  UserActivity
	parentCtx context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewRealtimeSync wires the realtime layer. sessionValid is consulted by
// the heartbeat; returning false transitions to disconnected without a
// reconnect attempt.
func NewRealtimeSync(feed adapter.FeedClient, puller Puller, coord *Coordinator, filter *DeviceFilter, deb *Debouncer, sessionValid func() bool, cfg RealtimeConfig, log *logger.Logger) *RealtimeSync {
	cfg.applyDefaults()
	return &RealtimeSync{
		feed:         feed,
		puller:       puller,
		coord:        coord,
		filter:       filter,
		deb:          deb,
		sessionValid: sessionValid,
		cfg:          cfg,
		log:          log,
		state:        StateDisconnected,
		quality:      NetworkGood,
		activity:     ActivityForeground,
	}
}

// Start launches the subscription (or polling) loop. It returns
// immediately; connection state is observable via State.
func (r *RealtimeSync) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	r.parentCtx = ctx
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.attempts = 0
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if r.cfg.PollInterval > 0 {
			r.pollLoop(runCtx)
			return
		}
		r.subscribeLoop(runCtx)
	}()
}

// Stop tears the subscription down, cancels pending debounced pulls and
// waits for the loop goroutine to exit.
func (r *RealtimeSync) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = r.feed.Close()
	r.deb.CancelAll()
	r.wg.Wait()
	r.setState(StateClosed)
}

// ForceReconnect resets the attempt counter and restarts the loop. It is
// the only way out of StateError.
func (r *RealtimeSync) ForceReconnect() {
	r.mu.Lock()
	parent := r.parentCtx
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()

	if parent == nil || parent.Err() != nil {
		return
	}
	r.Start(parent)
}

// State returns the current connection state.
func (r *RealtimeSync) State() ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetUserActivity records foreground/background, feeding the priority
// judgment for subsequent events.
func (r *RealtimeSync) SetUserActivity(a UserActivity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activity = a
}

// SetNetworkQuality retunes debounce delays for the new quality level.
// Transitioning to offline cancels all pending debounced tasks and tears
// down the subscription; transitioning back online re-initialises it.
func (r *RealtimeSync) SetNetworkQuality(q NetworkQuality) {
	r.mu.Lock()
	prev := r.quality
	r.quality = q
	parent := r.parentCtx
	r.mu.Unlock()

	r.deb.SetNetworkQuality(q)

	switch {
	case q == NetworkOffline && prev != NetworkOffline:
		r.log.Info().Msg("network offline; suspending realtime sync")
		r.mu.Lock()
		cancel := r.cancel
		r.cancel = nil
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		_ = r.feed.Close()
		r.deb.CancelAll()
		r.wg.Wait()
		r.setState(StateDisconnected)

	case q != NetworkOffline && prev == NetworkOffline:
		r.log.Info().Str("quality", string(q)).Msg("network restored; resuming realtime sync")
		if parent != nil && parent.Err() == nil {
			r.Start(parent)
		}
	}
}

// subscribeLoop maintains the feed subscription with exponential backoff.
func (r *RealtimeSync) subscribeLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			r.setState(StateDisconnected)
			return
		}

		r.setState(StateConnecting)
		events, errs, err := r.feed.Subscribe(ctx)
		if err != nil {
			if errors.Is(err, adapter.ErrUnauthorized) {
				r.log.Warn().Msg("feed subscription unauthorized; staying down until re-auth")
				r.setState(StateDisconnected)
				return
			}
			if !r.backoff(ctx) {
				return
			}
			continue
		}

		r.mu.Lock()
		r.attempts = 0
		r.mu.Unlock()
		r.setState(StateConnected)
		r.log.Info().Msg("change feed connected")

		if terminal := r.consume(ctx, events, errs); terminal {
			return
		}
		if !r.backoff(ctx) {
			return
		}
	}
}

// consume drains events until the connection drops. It returns true when
// the loop must not reconnect (context done, auth lost).
func (r *RealtimeSync) consume(ctx context.Context, events <-chan models.ChangeEvent, errs <-chan error) bool {
	heartbeat := time.NewTicker(r.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			r.setState(StateDisconnected)
			return true

		case <-heartbeat.C:
			if r.sessionValid != nil && !r.sessionValid() {
				r.log.Warn().Msg("session no longer valid; disconnecting feed")
				_ = r.feed.Close()
				r.setState(StateDisconnected)
				return true
			}

		case ev, ok := <-events:
			if !ok {
				r.setState(StateDisconnected)
				return false
			}
			r.handleEvent(&ev)

		case err, ok := <-errs:
			if !ok {
				r.setState(StateDisconnected)
				return false
			}
			if err != nil {
				r.log.Warn().Err(err).Msg("change feed dropped")
			}
			r.setState(StateDisconnected)
			return false
		}
	}
}

// handleEvent runs the filter chain for one incoming event and, when it
// survives, schedules a debounced pull under the fixed key.
func (r *RealtimeSync) handleEvent(ev *models.ChangeEvent) {
	if r.filter.IsLocalEvent(ev) {
		// Our own write echoed back; reacting would be a device loop.
		r.log.Debug().Str("group_id", ev.GroupID()).Msg("ignoring self-originated event")
		return
	}

	groupID := ev.GroupID()
	if groupID != "" && r.coord.ShouldBlockRealtimeSync([]string{groupID}) {
		// A pending local operation owns this group; it will push its own
		// authoritative result.
		r.log.Debug().Str("group_id", groupID).Msg("dropping event; local operation pending")
		return
	}

	delay := r.recommendedDelay()
	r.log.Debug().
		Str("group_id", groupID).
		Str("event_type", string(ev.EventType)).
		Dur("delay", delay).
		Msg("scheduling debounced pull")

	r.deb.Debounce(RealtimeDebounceKey, func(ctx context.Context) {
		res := r.puller.PullLatestData(ctx, "")
		if res.Err != nil {
			r.log.Warn().Err(res.Err).Msg("realtime-triggered pull failed; next event retries")
		}
	}, ReasonRealtimeEvent, delay)
}

// recommendedDelay is the priority judgment: foreground activity and good
// network shorten the delay, pending-operation pressure and poor network
// lengthen it.
func (r *RealtimeSync) recommendedDelay() time.Duration {
	r.mu.Lock()
	quality := r.quality
	activity := r.activity
	r.mu.Unlock()

	delay := float64(DefaultDebounceDelay) * quality.delayFactor()
	if activity == ActivityForeground {
		delay *= 0.5
	} else {
		delay *= 2.0
	}
	delay *= 1.0 + 0.5*float64(r.coord.PendingCount())

	return time.Duration(delay)
}

// backoff sleeps baseDelay*attempt before the next reconnect try. It
// returns false once attempts exceed the cap, leaving state at StateError
// until ForceReconnect.
func (r *RealtimeSync) backoff(ctx context.Context) bool {
	r.mu.Lock()
	r.attempts++
	attempt := r.attempts
	r.mu.Unlock()

	if attempt > r.cfg.MaxReconnectAttempts {
		r.log.Error().Int("attempts", attempt-1).Msg("reconnect attempts exhausted")
		r.setState(StateError)
		return false
	}

	delay := time.Duration(attempt) * r.cfg.ReconnectBaseDelay
	r.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("scheduling feed reconnect")

	select {
	case <-ctx.Done():
		r.setState(StateDisconnected)
		return false
	case <-time.After(delay):
		return true
	}
}

// pollLoop is the fallback for backends without a change feed: a ticker
// drives the same coordinator/debouncer path a feed event would.
func (r *RealtimeSync) pollLoop(ctx context.Context) {
	r.setState(StateConnected)
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.setState(StateDisconnected)
			return
		case <-ticker.C:
			if r.sessionValid != nil && !r.sessionValid() {
				r.setState(StateDisconnected)
				return
			}
			if r.coord.PendingCount() > 0 {
				continue
			}
			r.deb.Debounce(RealtimeDebounceKey, func(ctx context.Context) {
				_ = r.puller.PullLatestData(ctx, "")
			}, ReasonRealtimeEvent, 0)
		}
	}
}

func (r *RealtimeSync) setState(s ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}
