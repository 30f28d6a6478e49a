// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

package models

import "time"

// TabGroup is an ordered collection of tabs representing one saved session.
// It is the primary sync unit: conflict detection, merging and the
// optimistic-lock version counter all operate at group granularity.
type TabGroup struct {
	// ID is the unique identifier of the group, shared across devices.
	ID string `json:"id"`

	// Name is the human-readable group title.
	Name string `json:"name"`

	// Tabs is the ordered tab list. Order is significant.
	Tabs []Tab `json:"tabs"`

	// IsLocked protects the group from any automatic emptying or deletion
	// performed by merges. Locking is conservative: once locked on either
	// device, a merge keeps the group locked.
	IsLocked bool `json:"is_locked"`

	// CreatedAt is when the group was first saved.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last content modification.
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the monotonically increasing optimistic-lock counter.
	// A merge that reconciles two diverging copies produces
	// max(local, remote) + 1; it never decreases.
	Version int64 `json:"version"`

	// DisplayOrder is an optional explicit sort key. Zero means unset;
	// merges prefer whichever side has a defined value.
	DisplayOrder *int `json:"display_order,omitempty"`

	// IsDeleted is the soft-delete tombstone flag. A tombstoned group must
	// still be uploaded once so other devices observe the deletion, after
	// which it may be purged locally.
	IsDeleted bool `json:"is_deleted"`

	// SyncStatus tracks the group's relation to the remote store.
	SyncStatus SyncStatus `json:"sync_status,omitempty"`

	// LastSyncedAt is the time of the last confirmed sync, if any.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// OwnerID identifies the user owning this group.
	OwnerID int64 `json:"owner_id"`

	// OriginDeviceID identifies the device that produced the last write.
	OriginDeviceID string `json:"origin_device_id"`
}

// LiveTabs returns the group's non-tombstoned tabs in order.
func (g *TabGroup) LiveTabs() []Tab {
	live := make([]Tab, 0, len(g.Tabs))
	for _, t := range g.Tabs {
		if !t.IsDeleted {
			live = append(live, t)
		}
	}
	return live
}

// ContentEquals reports whether two groups carry the same user-visible
// content: name, lock flag and live tab set (compared by tab id). It
// deliberately ignores version, sync bookkeeping and tab order, and is used
// by conflict detection to spot equal-version divergence.
func (g *TabGroup) ContentEquals(other *TabGroup) bool {
	if g.Name != other.Name || g.IsLocked != other.IsLocked {
		return false
	}

	mine := g.LiveTabs()
	theirs := other.LiveTabs()
	if len(mine) != len(theirs) {
		return false
	}

	index := make(map[string]Tab, len(mine))
	for _, t := range mine {
		index[t.ID] = t
	}
	for _, t := range theirs {
		m, ok := index[t.ID]
		if !ok {
			return false
		}
		if m.URL != t.URL || m.Title != t.Title || m.Pinned != t.Pinned {
			return false
		}
	}
	return true
}
