package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tabvault/tabvault/models"
)

const (
	clientSchema = `
	CREATE TABLE IF NOT EXISTS tab_groups (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	kvDeviceID = "device_id"
	kvSettings = "settings"
)

type localSQLiteStore struct {
	db *sql.DB
}

// NewLocalStore opens (and initialises on first run) the client's sqlite
// database. Pass ":memory:" for an ephemeral store in tests.
func NewLocalStore(dbPath string) (LocalStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", dbPath, err)
	}
	if _, err = db.Exec(clientSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store schema: %w", err)
	}

	return &localSQLiteStore{db: db}, nil
}

func (s *localSQLiteStore) GetGroups(ctx context.Context) ([]models.TabGroup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM tab_groups;`)
	if err != nil {
		return nil, fmt.Errorf("query local groups: %w", err)
	}
	defer rows.Close()

	var groups []models.TabGroup
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan local group: %w", err)
		}

		var g models.TabGroup
		if err = json.Unmarshal([]byte(data), &g); err != nil {
			return nil, fmt.Errorf("decode local group: %w", err)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate local groups: %w", err)
	}
	return groups, nil
}

func (s *localSQLiteStore) SetGroups(ctx context.Context, groups []models.TabGroup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin local groups tx: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tab_groups;`); err != nil {
		return fmt.Errorf("clear local groups: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tab_groups (id, data) VALUES (?, ?);`)
	if err != nil {
		return fmt.Errorf("prepare local group insert: %w", err)
	}
	defer stmt.Close()

	for i := range groups {
		data, err := json.Marshal(groups[i])
		if err != nil {
			return fmt.Errorf("encode local group %s: %w", groups[i].ID, err)
		}
		if _, err = stmt.ExecContext(ctx, groups[i].ID, string(data)); err != nil {
			return fmt.Errorf("insert local group %s: %w", groups[i].ID, err)
		}
	}

	return tx.Commit()
}

func (s *localSQLiteStore) GetSettings(ctx context.Context) (models.Settings, error) {
	raw, err := s.getKV(ctx, kvSettings)
	if err != nil {
		return models.Settings{}, err
	}
	if raw == "" {
		return models.Settings{}, nil
	}

	var settings models.Settings
	if err = json.Unmarshal([]byte(raw), &settings); err != nil {
		return models.Settings{}, fmt.Errorf("decode local settings: %w", err)
	}
	return settings, nil
}

func (s *localSQLiteStore) SetSettings(ctx context.Context, settings models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode local settings: %w", err)
	}
	return s.setKV(ctx, kvSettings, string(data))
}

func (s *localSQLiteStore) GetDeviceID(ctx context.Context) (string, error) {
	return s.getKV(ctx, kvDeviceID)
}

func (s *localSQLiteStore) SetDeviceID(ctx context.Context, deviceID string) error {
	return s.setKV(ctx, kvDeviceID, deviceID)
}

func (s *localSQLiteStore) Close() error {
	return s.db.Close()
}

func (s *localSQLiteStore) getKV(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, nil
}

func (s *localSQLiteStore) setKV(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value;`, key, value)
	if err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}
