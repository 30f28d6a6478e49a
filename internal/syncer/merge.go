// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

package syncer

import (
	"github.com/tabvault/tabvault/models"
)

// MergeStrategy selects how group-level field conflicts are settled.
type MergeStrategy string

const (
	// StrategyNewerWins resolves field conflicts by the later UpdatedAt.
	StrategyNewerWins MergeStrategy = "newer-wins"
	// StrategyPreferLocal forces the local side for contested fields.
	StrategyPreferLocal MergeStrategy = "prefer-local"
	// StrategyPreferRemote forces the remote side for contested fields.
	StrategyPreferRemote MergeStrategy = "prefer-remote"
	// StrategyManual refuses automatic resolution; the group is marked
	// with SyncStatusConflict and both versions are retained.
	StrategyManual MergeStrategy = "manual"
)

// MergeOptions tunes the pure merge functions.
type MergeOptions struct {
	// AllowDuplicateTabs disables the URL deduplication pass.
	AllowDuplicateTabs bool

	// Strategy picks the field-conflict resolution; empty means newer-wins.
	Strategy MergeStrategy
}

// MergeTabSets merges two tab lists into one. Identity resolution runs in
// two passes:
//
//  1. by id: tabs present in only one list are included as-is; for ids
//     present in both, the copy with the later LastAccessed wins;
//  2. by URL: if two different ids share the same non-empty URL, only the
//     one with the later LastAccessed survives (skipped when duplicates
//     are permitted).
//
// Tombstoned tabs are observed but excluded from the result. The output
// preserves a's order, with b-only survivors appended, so merging
// non-conflicting inputs in either argument order yields the same set.
func MergeTabSets(a, b []models.Tab, opts MergeOptions) []models.Tab {
	// Pass 1: resolve by id.
	byID := make(map[string]models.Tab, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))

	for _, t := range a {
		if _, seen := byID[t.ID]; !seen {
			order = append(order, t.ID)
		}
		byID[t.ID] = t
	}
	for _, t := range b {
		existing, seen := byID[t.ID]
		if !seen {
			order = append(order, t.ID)
			byID[t.ID] = t
			continue
		}
		if t.LastAccessed.After(existing.LastAccessed) {
			byID[t.ID] = t
		}
	}

	// Drop tombstones after identity resolution so a deletion on one side
	// does not resurrect via the other side's stale copy.
	merged := make([]models.Tab, 0, len(order))
	for _, id := range order {
		if t := byID[id]; !t.IsDeleted {
			merged = append(merged, t)
		}
	}

	if opts.AllowDuplicateTabs {
		return merged
	}

	// Pass 2: deduplicate by URL, later LastAccessed wins.
	winnerByURL := make(map[string]models.Tab, len(merged))
	for _, t := range merged {
		if t.URL == "" {
			continue
		}
		w, ok := winnerByURL[t.URL]
		if !ok || t.LastAccessed.After(w.LastAccessed) {
			winnerByURL[t.URL] = t
		}
	}

	deduped := merged[:0]
	for _, t := range merged {
		if t.URL != "" {
			if w := winnerByURL[t.URL]; w.ID != t.ID {
				continue
			}
		}
		deduped = append(deduped, t)
	}
	return deduped
}

// MergeGroups reconciles two diverging copies of one group field by field:
//
//   - Name: later UpdatedAt wins unless the strategy forces a side;
//   - IsLocked: logical OR — once locked by either device, stays locked;
//   - Tabs: MergeTabSets of both lists;
//   - Version: max(local, remote) + 1, keeping versions monotonic;
//   - DisplayOrder: whichever side has a defined value, local on ties;
//   - CreatedAt: the earlier of the two;
//   - UpdatedAt: the later of the two.
//
// The function is pure: it never consults a clock or mutates its inputs.
func MergeGroups(local, remote models.TabGroup, opts MergeOptions) models.TabGroup {
	remoteNewer := remote.UpdatedAt.After(local.UpdatedAt)

	merged := local
	merged.Tabs = MergeTabSets(local.Tabs, remote.Tabs, opts)
	merged.IsLocked = local.IsLocked || remote.IsLocked
	merged.Version = maxVersion(local.Version, remote.Version) + 1

	switch opts.Strategy {
	case StrategyPreferLocal:
		merged.Name = local.Name
	case StrategyPreferRemote:
		merged.Name = remote.Name
	default:
		if remoteNewer {
			merged.Name = remote.Name
		}
	}

	if merged.DisplayOrder == nil && remote.DisplayOrder != nil {
		merged.DisplayOrder = remote.DisplayOrder
	}

	if remoteNewer {
		merged.UpdatedAt = remote.UpdatedAt
		merged.IsDeleted = remote.IsDeleted
	}
	if !remote.CreatedAt.IsZero() && (local.CreatedAt.IsZero() || remote.CreatedAt.Before(local.CreatedAt)) {
		merged.CreatedAt = remote.CreatedAt
	}

	return merged
}

func maxVersion(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
