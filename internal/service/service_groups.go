// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/models"
)

type groupService struct {
	groups   store.GroupRepository
	notifier ChangeNotifier
	logger   *logger.Logger
}

// NewGroupService constructs a GroupService. notifier may be nil when no
// feed is attached (e.g. tests).
func NewGroupService(groups store.GroupRepository, notifier ChangeNotifier, log *logger.Logger) GroupService {
	return &groupService{groups: groups, notifier: notifier, logger: log}
}

// Upload upserts each record under the version precondition. Rejected
// records are reported in the response, never as an error: a version
// conflict is an expected outcome of two devices editing concurrently.
// Every applied row is broadcast on the change feed, tagged with the
// writing device so the origin can filter its own echo.
func (s *groupService) Upload(ctx context.Context, ownerID int64, deviceID string, req models.UploadRequest) (models.UploadResponse, error) {
	log := logger.FromContext(ctx)

	if len(req.Records) == 0 {
		return models.UploadResponse{}, ErrEmptyRequest
	}

	var resp models.UploadResponse
	for i := range req.Records {
		rec := req.Records[i]
		rec.OwnerID = ownerID
		if rec.OriginDeviceID == "" {
			rec.OriginDeviceID = deviceID
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = time.Now()
		}

		applied, serverVersion, err := s.groups.UpsertGroupRecord(ctx, rec)
		if err != nil {
			log.Err(err).Str("group_id", rec.ID).Msg("group upsert failed")
			return models.UploadResponse{}, fmt.Errorf("upsert group %s: %w", rec.ID, err)
		}

		if !applied {
			resp.Conflicts = append(resp.Conflicts, models.VersionConflict{
				ID:            rec.ID,
				ServerVersion: serverVersion,
			})
			continue
		}

		resp.Applied = append(resp.Applied, rec.ID)
		s.notify(ownerID, rec)
	}

	return resp, nil
}

func (s *groupService) Download(ctx context.Context, ownerID int64, req models.DownloadRequest) (models.DownloadResponse, error) {
	records, err := s.groups.GetGroupRecords(ctx, ownerID, req.IDs)
	if err != nil {
		return models.DownloadResponse{}, fmt.Errorf("get group records: %w", err)
	}
	return models.DownloadResponse{Records: records, Length: len(records)}, nil
}

func (s *groupService) GetSettings(ctx context.Context, ownerID int64) (models.Settings, error) {
	settings, err := s.groups.GetSettings(ctx, ownerID)
	if errors.Is(err, store.ErrSettingsNotFound) {
		// First sync from a fresh account: defaults, not an error.
		return models.Settings{OwnerID: ownerID}, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

func (s *groupService) PutSettings(ctx context.Context, ownerID int64, deviceID string, settings models.Settings) error {
	settings.OwnerID = ownerID
	if settings.OriginDeviceID == "" {
		settings.OriginDeviceID = deviceID
	}
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}

	if err := s.groups.UpsertSettings(ctx, settings); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	// Settings events carry no group ID; subscribers treat them as a plain
	// "pull again" signal once the origin device is filtered out.
	if s.notifier != nil {
		s.notifier.Notify(ownerID, models.ChangeEvent{
			EventType: models.EventUpdate,
			Table:     "settings",
			NewRecord: &models.GroupRecord{
				OwnerID:        ownerID,
				OriginDeviceID: settings.OriginDeviceID,
				UpdatedAt:      settings.UpdatedAt,
			},
		})
	}
	return nil
}

func (s *groupService) notify(ownerID int64, rec models.GroupRecord) {
	if s.notifier == nil {
		return
	}

	eventType := models.EventUpdate
	switch {
	case rec.IsDeleted:
		eventType = models.EventDelete
	case rec.Version <= 1:
		eventType = models.EventInsert
	}

	s.notifier.Notify(ownerID, models.ChangeEvent{
		EventType: eventType,
		Table:     "tab_groups",
		NewRecord: &rec,
	})
}
