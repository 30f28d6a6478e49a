package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedTab(id, url string) Tab {
	return Tab{ID: id, URL: url, Title: "t-" + id}
}

func contentGroup(name string, tabs ...Tab) TabGroup {
	return TabGroup{ID: "g1", Name: name, Tabs: tabs, Version: 3}
}

func TestContentEquals_IgnoresBookkeeping(t *testing.T) {
	a := contentGroup("work", namedTab("t1", "https://a.example"))
	b := contentGroup("work", namedTab("t1", "https://a.example"))
	b.Version = 9
	b.SyncStatus = SyncStatusLocalOnly
	b.UpdatedAt = time.Now()
	b.OriginDeviceID = "device-2"

	assert.True(t, a.ContentEquals(&b))
	assert.True(t, b.ContentEquals(&a))
}

func TestContentEquals_IgnoresTabOrder(t *testing.T) {
	a := contentGroup("work", namedTab("t1", "https://a.example"), namedTab("t2", "https://b.example"))
	b := contentGroup("work", namedTab("t2", "https://b.example"), namedTab("t1", "https://a.example"))

	assert.True(t, a.ContentEquals(&b))
}

func TestContentEquals_DetectsDifferences(t *testing.T) {
	base := contentGroup("work", namedTab("t1", "https://a.example"))

	renamed := base
	renamed.Name = "play"
	assert.False(t, base.ContentEquals(&renamed))

	locked := base
	locked.IsLocked = true
	assert.False(t, base.ContentEquals(&locked))

	extra := contentGroup("work", namedTab("t1", "https://a.example"), namedTab("t2", "https://b.example"))
	assert.False(t, base.ContentEquals(&extra))

	moved := contentGroup("work", namedTab("t1", "https://elsewhere.example"))
	assert.False(t, base.ContentEquals(&moved))
}

func TestContentEquals_TombstonedTabsDoNotCount(t *testing.T) {
	gone := namedTab("t2", "https://b.example")
	gone.IsDeleted = true

	a := contentGroup("work", namedTab("t1", "https://a.example"), gone)
	b := contentGroup("work", namedTab("t1", "https://a.example"))

	assert.True(t, a.ContentEquals(&b))
}

func TestLiveTabs_FiltersTombstones(t *testing.T) {
	gone := namedTab("t2", "https://b.example")
	gone.IsDeleted = true
	g := contentGroup("work", namedTab("t1", "https://a.example"), gone, namedTab("t3", "https://c.example"))

	live := g.LiveTabs()
	require.Len(t, live, 2)
	assert.Equal(t, "t1", live[0].ID)
	assert.Equal(t, "t3", live[1].ID)
}

func TestRecordRoundTrip(t *testing.T) {
	order := 4
	g := TabGroup{
		ID:             "g1",
		Name:           "work",
		Tabs:           []Tab{namedTab("t1", "https://a.example")},
		IsLocked:       true,
		DisplayOrder:   &order,
		CreatedAt:      time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Version:        5,
		IsDeleted:      true,
		SyncStatus:     SyncStatusSynced,
		OwnerID:        42,
		OriginDeviceID: "device-1",
	}

	rec, err := RecordFromGroup(g)
	require.NoError(t, err)
	assert.Equal(t, g.Version, rec.Version)
	assert.True(t, rec.IsDeleted)

	back, err := GroupFromRecord(rec)
	require.NoError(t, err)

	// Sync bookkeeping deliberately does not travel over the wire.
	assert.Empty(t, back.SyncStatus)
	back.SyncStatus = g.SyncStatus
	assert.Equal(t, g, back)
}

func TestGroupFromRecord_MalformedPayload(t *testing.T) {
	_, err := GroupFromRecord(GroupRecord{ID: "broken", Payload: json.RawMessage("{oops")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestChangeEventGroupID(t *testing.T) {
	withNew := ChangeEvent{NewRecord: &GroupRecord{ID: "new-id"}, OldRecord: &GroupRecord{ID: "old-id"}}
	assert.Equal(t, "new-id", withNew.GroupID())

	deleteOnly := ChangeEvent{OldRecord: &GroupRecord{ID: "old-id"}}
	assert.Equal(t, "old-id", deleteOnly.GroupID())

	assert.Empty(t, (&ChangeEvent{}).GroupID())
}
