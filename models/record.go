package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// GroupRecord is the wire and database row shape of a tab group. Everything
// the server needs for conflict checks and the change feed lives in typed
// columns; the group content itself travels as an opaque JSON payload.
type GroupRecord struct {
	ID             string          `json:"id"`
	Version        int64           `json:"version"`
	UpdatedAt      time.Time       `json:"updated_at"`
	OwnerID        int64           `json:"owner_id"`
	OriginDeviceID string          `json:"origin_device_id"`
	IsDeleted      bool            `json:"is_deleted"`
	Payload        json.RawMessage `json:"payload"`
}

// groupPayload is the JSON shape stored in GroupRecord.Payload.
type groupPayload struct {
	Name         string    `json:"name"`
	Tabs         []Tab     `json:"tabs"`
	IsLocked     bool      `json:"is_locked"`
	DisplayOrder *int      `json:"display_order,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecordFromGroup converts a TabGroup into its row representation.
func RecordFromGroup(g TabGroup) (GroupRecord, error) {
	payload, err := json.Marshal(groupPayload{
		Name:         g.Name,
		Tabs:         g.Tabs,
		IsLocked:     g.IsLocked,
		DisplayOrder: g.DisplayOrder,
		CreatedAt:    g.CreatedAt,
	})
	if err != nil {
		return GroupRecord{}, fmt.Errorf("marshal group payload %s: %w", g.ID, err)
	}

	return GroupRecord{
		ID:             g.ID,
		Version:        g.Version,
		UpdatedAt:      g.UpdatedAt,
		OwnerID:        g.OwnerID,
		OriginDeviceID: g.OriginDeviceID,
		IsDeleted:      g.IsDeleted,
		Payload:        payload,
	}, nil
}

// GroupFromRecord decodes a row back into a TabGroup. A malformed payload
// returns an error for that record only; callers skip and report it rather
// than aborting a whole pull.
func GroupFromRecord(r GroupRecord) (TabGroup, error) {
	var p groupPayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return TabGroup{}, fmt.Errorf("decode group payload %s: %w", r.ID, err)
	}

	return TabGroup{
		ID:             r.ID,
		Name:           p.Name,
		Tabs:           p.Tabs,
		IsLocked:       p.IsLocked,
		DisplayOrder:   p.DisplayOrder,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
		IsDeleted:      r.IsDeleted,
		OwnerID:        r.OwnerID,
		OriginDeviceID: r.OriginDeviceID,
	}, nil
}
