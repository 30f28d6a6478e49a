package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/models"
)

func newTestGroupRepo(t *testing.T) (*groupRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.NewLogger("test")
	repo := &groupRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func testRecord(id string, version int64) models.GroupRecord {
	return models.GroupRecord{
		ID:             id,
		Version:        version,
		UpdatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		OwnerID:        42,
		OriginDeviceID: "device-1",
		Payload:        json.RawMessage(`{"name":"work","tabs":[]}`),
	}
}

// ── reads ───────────────────────────────────────────────────────────────

func TestGetGroupRecords_AllForOwner(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.
		NewRows([]string{"id", "version", "updated_at", "owner_id", "origin_device_id", "is_deleted", "payload"}).
		AddRow("g1", int64(3), now, int64(42), "device-1", false, []byte(`{"name":"work"}`)).
		AddRow("g2", int64(1), now, int64(42), "device-2", true, []byte(`{"name":"old"}`))

	mock.ExpectQuery("SELECT id, version, updated_at, owner_id, origin_device_id, is_deleted, payload FROM tab_groups").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	records, err := repo.GetGroupRecords(context.Background(), 42, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "g1" || records[0].Version != 3 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if !records[1].IsDeleted {
		t.Error("expected second record to carry the tombstone flag")
	}
}

func TestGetGroupRecords_FilteredByIDs(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	rows := sqlmock.
		NewRows([]string{"id", "version", "updated_at", "owner_id", "origin_device_id", "is_deleted", "payload"}).
		AddRow("g1", int64(3), time.Now(), int64(42), "device-1", false, []byte(`{}`))

	// The id filter adds placeholders after the owner_id one.
	mock.ExpectQuery("SELECT id, version, updated_at, owner_id, origin_device_id, is_deleted, payload FROM tab_groups").
		WithArgs(int64(42), "g1", "g3").
		WillReturnRows(rows)

	records, err := repo.GetGroupRecords(context.Background(), 42, []string{"g1", "g3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "g1" {
		t.Fatalf("expected only g1, got %+v", records)
	}
}

func TestGetGroupRecords_QueryError(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, version, updated_at, owner_id, origin_device_id, is_deleted, payload FROM tab_groups").
		WithArgs(int64(42)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetGroupRecords(context.Background(), 42, nil)
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected ErrExecutingQuery, got %v", err)
	}
}

// ── upsert ──────────────────────────────────────────────────────────────

func TestUpsertGroupRecord_Applied(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	rec := testRecord("g1", 4)

	mock.ExpectQuery("INSERT INTO tab_groups").
		WithArgs(rec.ID, rec.Version, rec.UpdatedAt, rec.OwnerID, rec.OriginDeviceID, rec.IsDeleted, []byte(rec.Payload)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	applied, version, err := repo.UpsertGroupRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Error("expected the upsert to be applied")
	}
	if version != 4 {
		t.Errorf("expected version 4, got %d", version)
	}
}

func TestUpsertGroupRecord_RejectedByPrecondition(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	rec := testRecord("g1", 2)

	// The WHERE version precondition filtered the row: no RETURNING row.
	mock.ExpectQuery("INSERT INTO tab_groups").
		WithArgs(rec.ID, rec.Version, rec.UpdatedAt, rec.OwnerID, rec.OriginDeviceID, rec.IsDeleted, []byte(rec.Payload)).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery("SELECT version FROM tab_groups WHERE").
		WithArgs(rec.ID, rec.OwnerID).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))

	applied, version, err := repo.UpsertGroupRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("expected the upsert to be rejected")
	}
	if version != 5 {
		t.Errorf("expected the server version 5, got %d", version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsertGroupRecord_QueryError(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	rec := testRecord("g1", 2)

	mock.ExpectQuery("INSERT INTO tab_groups").
		WithArgs(rec.ID, rec.Version, rec.UpdatedAt, rec.OwnerID, rec.OriginDeviceID, rec.IsDeleted, []byte(rec.Payload)).
		WillReturnError(errors.New("deadlock detected"))

	_, _, err := repo.UpsertGroupRecord(context.Background(), rec)
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected ErrExecutingQuery, got %v", err)
	}
}

func TestUpsertGroupRecord_TransientErrorRetried(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	rec := testRecord("g1", 4)
	args := []driver.Value{rec.ID, rec.Version, rec.UpdatedAt, rec.OwnerID, rec.OriginDeviceID, rec.IsDeleted, []byte(rec.Payload)}

	mock.ExpectQuery("INSERT INTO tab_groups").
		WithArgs(args...).
		WillReturnError(pgError(pgerrcode.DeadlockDetected))
	mock.ExpectQuery("INSERT INTO tab_groups").
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	applied, version, err := repo.UpsertGroupRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied || version != 4 {
		t.Errorf("expected applied at version 4, got applied=%v version=%d", applied, version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsertGroupRecord_NonRetryableErrorFailsFast(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	rec := testRecord("g1", 4)

	mock.ExpectQuery("INSERT INTO tab_groups").
		WithArgs(rec.ID, rec.Version, rec.UpdatedAt, rec.OwnerID, rec.OriginDeviceID, rec.IsDeleted, []byte(rec.Payload)).
		WillReturnError(pgError(pgerrcode.NotNullViolation))

	_, _, err := repo.UpsertGroupRecord(context.Background(), rec)
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected ErrExecutingQuery, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("a non-retryable failure must not be re-attempted: %v", err)
	}
}

// ── settings ────────────────────────────────────────────────────────────

func TestGetSettings_Found(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.
		NewRows([]string{"owner_id", "allow_duplicate_tabs", "auto_delete_empty", "updated_at", "origin_device_id"}).
		AddRow(int64(42), true, false, now, "device-1")

	mock.ExpectQuery("SELECT owner_id, allow_duplicate_tabs, auto_delete_empty, updated_at, origin_device_id FROM settings").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	s, err := repo.GetSettings(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.AllowDuplicateTabs || s.AutoDeleteEmpty {
		t.Errorf("unexpected settings: %+v", s)
	}
	if s.OriginDeviceID != "device-1" {
		t.Errorf("expected origin device-1, got %q", s.OriginDeviceID)
	}
}

func TestGetSettings_NotFound(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT owner_id, allow_duplicate_tabs, auto_delete_empty, updated_at, origin_device_id FROM settings").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSettings(context.Background(), 99)
	if !errors.Is(err, ErrSettingsNotFound) {
		t.Fatalf("expected ErrSettingsNotFound, got %v", err)
	}
}

func TestUpsertSettings_Success(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	s := models.Settings{
		OwnerID:            42,
		AllowDuplicateTabs: true,
		AutoDeleteEmpty:    true,
		UpdatedAt:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		OriginDeviceID:     "device-1",
	}

	mock.ExpectExec("INSERT INTO settings").
		WithArgs(s.OwnerID, s.AllowDuplicateTabs, s.AutoDeleteEmpty, s.UpdatedAt, s.OriginDeviceID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertSettings(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsertSettings_ExecError(t *testing.T) {
	repo, mock, db := newTestGroupRepo(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO settings").
		WillReturnError(errors.New("disk full"))

	err := repo.UpsertSettings(context.Background(), models.Settings{OwnerID: 42})
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected ErrExecutingQuery, got %v", err)
	}
}
