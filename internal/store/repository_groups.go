package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/models"
)

// groupRepository is the PostgreSQL-backed implementation of
// GroupRepository. The version-check precondition lives in the upsert SQL
// itself, so two devices racing on the same row are serialised by the
// database rather than by any application lock.
type groupRepository struct {
	*DB
	logger *logger.Logger
}

// NewGroupRepository constructs a GroupRepository backed by db.
func NewGroupRepository(db *DB, log *logger.Logger) GroupRepository {
	return &groupRepository{DB: db, logger: log}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// upsertRetries bounds re-attempts of the group upsert on transient
// failures (deadlocks, serialization aborts, dropped connections).
const upsertRetries = 2

func (g *groupRepository) GetGroupRecords(ctx context.Context, ownerID int64, ids []string) ([]models.GroupRecord, error) {
	log := logger.FromContext(ctx)

	builder := psql.
		Select("id", "version", "updated_at", "owner_id", "origin_device_id", "is_deleted", "payload").
		From("tab_groups").
		Where(sq.Eq{"owner_id": ownerID})
	if len(ids) > 0 {
		builder = builder.Where(sq.Eq{"id": ids})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group select: %w", err)
	}

	rows, err := g.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Int64("owner_id", ownerID).Msg("group select failed")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.GroupRecord, 0, 32)
	for rows.Next() {
		var rec models.GroupRecord
		if err = rows.Scan(&rec.ID, &rec.Version, &rec.UpdatedAt, &rec.OwnerID, &rec.OriginDeviceID, &rec.IsDeleted, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group rows: %w", err)
	}
	return records, nil
}

func (g *groupRepository) UpsertGroupRecord(ctx context.Context, rec models.GroupRecord) (bool, int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.
		Insert("tab_groups").
		Columns("id", "version", "updated_at", "owner_id", "origin_device_id", "is_deleted", "payload").
		Values(rec.ID, rec.Version, rec.UpdatedAt, rec.OwnerID, rec.OriginDeviceID, rec.IsDeleted, []byte(rec.Payload)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at,
			origin_device_id = EXCLUDED.origin_device_id,
			is_deleted = EXCLUDED.is_deleted,
			payload = EXCLUDED.payload
		WHERE tab_groups.owner_id = EXCLUDED.owner_id
			AND tab_groups.version < EXCLUDED.version
		RETURNING version`).
		ToSql()
	if err != nil {
		return false, 0, fmt.Errorf("build group upsert: %w", err)
	}

	var applied int64
	for attempt := 0; ; attempt++ {
		err = g.QueryRowContext(ctx, query, args...).Scan(&applied)
		if err == nil {
			return true, applied, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if attempt < upsertRetries && IsRetryable(err) {
			log.Debug().Str("group_id", rec.ID).Err(err).Msg("transient group upsert failure; retrying")
			continue
		}
		log.Err(err).Str("group_id", rec.ID).Msg("group upsert failed")
		return false, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	// Precondition rejected the write; report the version the server holds.
	var serverVersion int64
	err = g.QueryRowContext(ctx,
		`SELECT version FROM tab_groups WHERE id = $1 AND owner_id = $2`,
		rec.ID, rec.OwnerID).Scan(&serverVersion)
	if err != nil {
		return false, 0, fmt.Errorf("read conflicting version for %s: %w", rec.ID, err)
	}

	log.Info().
		Str("group_id", rec.ID).
		Int64("incoming_version", rec.Version).
		Int64("server_version", serverVersion).
		Msg("upsert rejected by version precondition")
	return false, serverVersion, nil
}

func (g *groupRepository) GetSettings(ctx context.Context, ownerID int64) (models.Settings, error) {
	query, args, err := psql.
		Select("owner_id", "allow_duplicate_tabs", "auto_delete_empty", "updated_at", "origin_device_id").
		From("settings").
		Where(sq.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return models.Settings{}, fmt.Errorf("build settings select: %w", err)
	}

	var s models.Settings
	err = g.QueryRowContext(ctx, query, args...).
		Scan(&s.OwnerID, &s.AllowDuplicateTabs, &s.AutoDeleteEmpty, &s.UpdatedAt, &s.OriginDeviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return s, nil
}

func (g *groupRepository) UpsertSettings(ctx context.Context, settings models.Settings) error {
	query, args, err := psql.
		Insert("settings").
		Columns("owner_id", "allow_duplicate_tabs", "auto_delete_empty", "updated_at", "origin_device_id").
		Values(settings.OwnerID, settings.AllowDuplicateTabs, settings.AutoDeleteEmpty, settings.UpdatedAt, settings.OriginDeviceID).
		Suffix(`ON CONFLICT (owner_id) DO UPDATE SET
			allow_duplicate_tabs = EXCLUDED.allow_duplicate_tabs,
			auto_delete_empty = EXCLUDED.auto_delete_empty,
			updated_at = EXCLUDED.updated_at,
			origin_device_id = EXCLUDED.origin_device_id
		WHERE settings.updated_at <= EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build settings upsert: %w", err)
	}

	if _, err = g.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}
