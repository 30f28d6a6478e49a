package syncer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/tabvault/internal/logger"
)

func newTestCoordinator(ttl time.Duration) *Coordinator {
	return NewCoordinator(ttl, logger.Nop())
}

func TestCoordinator_RegisterAndComplete(t *testing.T) {
	c := newTestCoordinator(0)

	opID := c.RegisterOperation(OpUpdate, []string{"g1"}, map[string]int64{"g1": 3})
	require.NotEmpty(t, opID)
	assert.Equal(t, 1, c.PendingCount())
	assert.True(t, c.HasConflictingOperation([]string{"g1"}))
	assert.False(t, c.HasConflictingOperation([]string{"g2"}))

	c.CompleteOperation(opID)
	assert.Equal(t, 0, c.PendingCount())
	assert.False(t, c.HasConflictingOperation([]string{"g1"}))
}

func TestCoordinator_CompleteUnknownIsNoop(t *testing.T) {
	c := newTestCoordinator(0)

	c.CompleteOperation("no-such-op")
	assert.Equal(t, 0, c.PendingCount())
}

func TestCoordinator_EmptyGroupSetBlocksEverything(t *testing.T) {
	c := newTestCoordinator(0)

	c.RegisterOperation(OpDeduplicate, nil, nil)

	assert.True(t, c.ShouldBlockRealtimeSync([]string{"anything"}))
	assert.True(t, c.ShouldBlockRealtimeSync(nil))
}

func TestCoordinator_ConflictsExcludingOwnOperation(t *testing.T) {
	c := newTestCoordinator(0)

	own := c.RegisterOperation(OpUpdate, []string{"g1"}, nil)

	assert.False(t, c.ConflictsExcluding([]string{"g1"}, own))
	assert.True(t, c.ConflictsExcluding([]string{"g1"}, "someone-else"))

	// A second operation on the same group still blocks the first one's pull.
	c.RegisterOperation(OpDelete, []string{"g1"}, nil)
	assert.True(t, c.ConflictsExcluding([]string{"g1"}, own))
}

func TestCoordinator_TTLExpiryUnblocks(t *testing.T) {
	c := newTestCoordinator(30 * time.Second)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.RegisterOperation(OpCreate, []string{"g1"}, nil)
	assert.True(t, c.HasConflictingOperation([]string{"g1"}))

	current = current.Add(29 * time.Second)
	assert.True(t, c.HasConflictingOperation([]string{"g1"}), "not yet expired")

	current = current.Add(2 * time.Second)
	assert.False(t, c.HasConflictingOperation([]string{"g1"}), "expired record must be swept")
	assert.Equal(t, 0, c.PendingCount())
}

func TestCoordinator_GenerationAdvancesOnRegister(t *testing.T) {
	c := newTestCoordinator(0)

	gen := c.Generation()
	assert.False(t, c.ChangedSince(gen))

	opID := c.RegisterOperation(OpUpdate, []string{"g1"}, nil)
	assert.True(t, c.ChangedSince(gen))

	// Completion does not rewind the counter.
	c.CompleteOperation(opID)
	assert.True(t, c.ChangedSince(gen))
	assert.False(t, c.ChangedSince(c.Generation()))
}

func TestCoordinator_ConcurrentRegistrations(t *testing.T) {
	c := newTestCoordinator(0)

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ids[n] = c.RegisterOperation(OpUpdate, []string{"g"}, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.PendingCount())
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		require.NotEmpty(t, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 50, "operation ids must be unique")
}
