package models

import "time"

// EventType classifies a change-feed event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is the envelope pushed over the change feed for every row
// mutation on the groups and settings tables. It is consumed once and
// discarded, never persisted.
type ChangeEvent struct {
	EventType EventType    `json:"event_type"`
	Table     string       `json:"table"`
	NewRecord *GroupRecord `json:"new,omitempty"`
	OldRecord *GroupRecord `json:"old,omitempty"`
}

// GroupID returns the id of the affected group, preferring the new record.
func (e *ChangeEvent) GroupID() string {
	if e.NewRecord != nil {
		return e.NewRecord.ID
	}
	if e.OldRecord != nil {
		return e.OldRecord.ID
	}
	return ""
}

// OriginDeviceID returns the device that caused the event, preferring the
// new record. Empty when neither side carries one.
func (e *ChangeEvent) OriginDeviceID() string {
	if e.NewRecord != nil && e.NewRecord.OriginDeviceID != "" {
		return e.NewRecord.OriginDeviceID
	}
	if e.OldRecord != nil {
		return e.OldRecord.OriginDeviceID
	}
	return ""
}

// ConflictInfo describes one group whose local and remote copies diverged
// during a pull, and how the divergence was settled.
type ConflictInfo struct {
	GroupID       string `json:"group_id"`
	LocalVersion  int64  `json:"local_version"`
	RemoteVersion int64  `json:"remote_version"`
	// Resolution is "merged", "local-wins", "remote-wins" or "manual".
	Resolution string    `json:"resolution"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// SyncResult is the value returned by every pull/push cycle. Ordinary
// version conflicts are carried here as data, never surfaced as errors.
type SyncResult struct {
	Success      bool           `json:"success"`
	Conflicts    []ConflictInfo `json:"conflicts,omitempty"`
	MergedGroups []TabGroup     `json:"merged_groups,omitempty"`
	// SkippedRecords lists ids of remote records that failed to decode and
	// were left out of the merge.
	SkippedRecords []string `json:"skipped_records,omitempty"`
	Err            error    `json:"-"`
}

// Settings is the single per-owner settings row synced alongside groups.
// Settings conflicts are settled last-write-wins by UpdatedAt.
type Settings struct {
	OwnerID            int64     `json:"owner_id"`
	AllowDuplicateTabs bool      `json:"allow_duplicate_tabs"`
	AutoDeleteEmpty    bool      `json:"auto_delete_empty"`
	UpdatedAt          time.Time `json:"updated_at"`
	OriginDeviceID     string    `json:"origin_device_id"`
}
