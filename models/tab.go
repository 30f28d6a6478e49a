package models

import "time"

// SyncStatus describes where a record currently stands relative to the
// remote store.
type SyncStatus string

const (
	// SyncStatusLocalOnly marks a record that exists locally but has never
	// been confirmed on the remote store.
	SyncStatusLocalOnly SyncStatus = "local-only"

	// SyncStatusRemoteOnly marks a record that was downloaded from the
	// remote store and has not yet completed a local round-trip.
	SyncStatusRemoteOnly SyncStatus = "remote-only"

	// SyncStatusSynced marks a record whose local and remote copies are
	// known to be identical.
	SyncStatusSynced SyncStatus = "synced"

	// SyncStatusConflict marks a record whose divergence could not be
	// resolved automatically; both versions are retained pending a manual
	// decision.
	SyncStatusConflict SyncStatus = "conflict"
)

// Tab is a single saved browser tab inside a TabGroup.
type Tab struct {
	// ID is an opaque unique identifier, generated once at creation.
	ID string `json:"id"`

	// URL is the tab's address. Non-deleted tabs within one merged group
	// are deduplicated by URL unless duplicates are explicitly permitted.
	URL string `json:"url"`

	// Title is the page title captured when the tab was saved.
	Title string `json:"title"`

	// Favicon is an optional icon URL.
	Favicon string `json:"favicon,omitempty"`

	// Pinned mirrors the browser's pinned state.
	Pinned bool `json:"pinned"`

	// CreatedAt is when the tab was first saved.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessed is the last time the user touched the tab. Merge
	// tie-breaks between duplicate tabs always favour the later value.
	LastAccessed time.Time `json:"last_accessed"`

	// IsDeleted is a soft-delete tombstone flag.
	IsDeleted bool `json:"is_deleted"`

	// SyncStatus tracks the tab's relation to the remote store.
	SyncStatus SyncStatus `json:"sync_status,omitempty"`

	// LastSyncedAt is the time of the last confirmed sync, if any.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}
