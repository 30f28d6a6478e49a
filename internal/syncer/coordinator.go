// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

package syncer

import (
	"sync"
	"time"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/utils"
)

// OperationType classifies a user-initiated local operation.
type OperationType string

const (
	OpCreate      OperationType = "create"
	OpUpdate      OperationType = "update"
	OpDelete      OperationType = "delete"
	OpDeduplicate OperationType = "deduplicate"
)

// DefaultOperationTTL bounds how long a pending operation can block
// realtime sync if CompleteOperation is never called (e.g. the flow
// crashed mid-way). Expired records are purged lazily on the next
// registration or check, which guarantees liveness.
const DefaultOperationTTL = 30 * time.Second

// PendingOperation records one in-flight local operation. It lives only in
// memory; in-flight operations cannot meaningfully survive a restart, so
// the coordinator is rebuilt fresh per process start.
type PendingOperation struct {
	ID               string
	Type             OperationType
	Timestamp        time.Time
	GroupIDs         map[string]struct{}
	ExpectedVersions map[string]int64
}

// Coordinator tracks in-flight user-initiated operations per group-id set.
// Realtime-driven pulls consult it to avoid racing with a pending local
// write; the pending operation is trusted to push its own authoritative
// result.
//
// All methods are safe for concurrent use. Registration also advances a
// generation counter, which lets a pull that was in flight while a new
// operation registered detect that its result is stale.
type Coordinator struct {
	mu  sync.Mutex
	ops map[string]PendingOperation
	gen uint64

	ttl time.Duration
	ids *utils.UUIDGenerator
	log *logger.Logger
	now func() time.Time
}

// NewCoordinator constructs a Coordinator with the given operation TTL.
// A non-positive ttl falls back to DefaultOperationTTL.
func NewCoordinator(ttl time.Duration, log *logger.Logger) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultOperationTTL
	}
	return &Coordinator{
		ops: make(map[string]PendingOperation),
		ttl: ttl,
		ids: utils.NewUUIDGenerator(),
		log: log,
		now: time.Now,
	}
}

// RegisterOperation records an in-flight local operation touching groupIDs
// and returns its operation id. expectedVersions may be nil; when given it
// captures the versions observed at registration time.
func (c *Coordinator) RegisterOperation(opType OperationType, groupIDs []string, expectedVersions map[string]int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()

	ids := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		ids[id] = struct{}{}
	}

	op := PendingOperation{
		ID:               c.ids.Generate(),
		Type:             opType,
		Timestamp:        c.now(),
		GroupIDs:         ids,
		ExpectedVersions: expectedVersions,
	}
	c.ops[op.ID] = op
	c.gen++

	c.log.Debug().
		Str("operation_id", op.ID).
		Str("type", string(opType)).
		Int("group_count", len(ids)).
		Msg("registered sync operation")

	return op.ID
}

// CompleteOperation removes the record. Callers must invoke it on a
// guaranteed-cleanup path (defer) so a failed operation does not leave a
// lingering block; the TTL sweep is only the safety net.
func (c *Coordinator) CompleteOperation(operationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ops[operationID]; !ok {
		return
	}
	delete(c.ops, operationID)

	c.log.Debug().Str("operation_id", operationID).Msg("completed sync operation")
}

// HasConflictingOperation reports whether any pending operation's group set
// intersects groupIDs. An operation with an empty group set is treated as
// touching everything.
func (c *Coordinator) HasConflictingOperation(groupIDs []string) bool {
	return c.hasConflict(groupIDs, "")
}

// ShouldBlockRealtimeSync is the convenience wrapper used by the realtime
// layer; semantics are identical to HasConflictingOperation.
func (c *Coordinator) ShouldBlockRealtimeSync(localGroupIDs []string) bool {
	return c.hasConflict(localGroupIDs, "")
}

// ConflictsExcluding behaves like HasConflictingOperation but ignores the
// caller's own operation, so an operation's own pull is never blocked by
// its own registration.
func (c *Coordinator) ConflictsExcluding(groupIDs []string, ownOperationID string) bool {
	return c.hasConflict(groupIDs, ownOperationID)
}

func (c *Coordinator) hasConflict(groupIDs []string, exclude string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()

	for id, op := range c.ops {
		if id == exclude {
			continue
		}
		if len(op.GroupIDs) == 0 {
			return true
		}
		for _, gid := range groupIDs {
			if _, ok := op.GroupIDs[gid]; ok {
				return true
			}
		}
	}
	return false
}

// PendingCount returns the number of live pending operations. The realtime
// layer feeds it into the debounce priority judgment.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
	return len(c.ops)
}

// Generation returns the current registration counter. A pull snapshots it
// before the network round-trip and compares afterwards via ChangedSince to
// reject stale results.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// ChangedSince reports whether any operation has registered after the
// given generation snapshot.
func (c *Coordinator) ChangedSince(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen != gen
}

// sweepLocked purges expired operations. Callers must hold c.mu.
func (c *Coordinator) sweepLocked() {
	cutoff := c.now().Add(-c.ttl)
	for id, op := range c.ops {
		if op.Timestamp.Before(cutoff) {
			delete(c.ops, id)
			c.log.Warn().
				Str("operation_id", id).
				Str("type", string(op.Type)).
				Msg("pending operation expired without completion")
		}
	}
}
