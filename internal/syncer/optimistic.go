// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabvault/tabvault/internal/adapter"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/models"
)

// DefaultConflictWindow is the maximum UpdatedAt distance between two
// diverging copies for which a field-level merge is attempted. Beyond it
// the later copy wins at group level, though tab lists are still unioned.
const DefaultConflictWindow = 5 * time.Minute

// SyncOptions tunes the optimistic sync service.
type SyncOptions struct {
	// ConflictWindow overrides DefaultConflictWindow when positive.
	ConflictWindow time.Duration

	// Strategy selects field-conflict resolution; empty means newer-wins.
	Strategy MergeStrategy
}

// Service implements the pull-merge-push cycle. Pull downloads all remote
// groups, reconciles them with local state and persists the result; push
// uploads changed groups under the server's version-check precondition.
//
// Ordinary version conflicts are values inside the returned SyncResult,
// never errors; Err is reserved for the network/auth taxonomy.
type Service struct {
	local  store.LocalStore
	remote adapter.RemoteStore
	coord  *Coordinator
	filter *DeviceFilter
	opts   SyncOptions
	log    *logger.Logger
	now    func() time.Time
}

// NewService wires the optimistic sync service. All collaborators are
// required; opts may be zero for defaults.
func NewService(local store.LocalStore, remote adapter.RemoteStore, coord *Coordinator, filter *DeviceFilter, opts SyncOptions, log *logger.Logger) *Service {
	if opts.ConflictWindow <= 0 {
		opts.ConflictWindow = DefaultConflictWindow
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyNewerWins
	}
	return &Service{
		local:  local,
		remote: remote,
		coord:  coord,
		filter: filter,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
}

// pullOutcome carries the internal result of one pull-merge phase.
type pullOutcome struct {
	result models.SyncResult
	merged []models.TabGroup
	// dirty ids need uploading: their content changed in this cycle or
	// they have never been confirmed remotely.
	dirty map[string]struct{}
}

// PullLatestData downloads all remote groups, merges them with local state
// and persists the reconciled list. ownOperationID may be empty; when set,
// conflict checks exclude that operation so an operation's own pull is not
// blocked by its own registration.
func (s *Service) PullLatestData(ctx context.Context, ownOperationID string) models.SyncResult {
	out := s.pull(ctx, ownOperationID)
	if out.result.Err != nil {
		return out.result
	}

	if err := s.local.SetGroups(ctx, out.merged); err != nil {
		out.result.Success = false
		out.result.Err = fmt.Errorf("persist merged groups: %w", err)
	}
	return out.result
}

// FullSync runs one complete pull-merge-push cycle. With no intervening
// external change a second FullSync is a no-op: nothing is dirty, nothing
// is uploaded and no version moves.
func (s *Service) FullSync(ctx context.Context) models.SyncResult {
	out := s.pull(ctx, "")
	if out.result.Err != nil {
		return out.result
	}

	return s.push(ctx, out)
}

// PushOnlySync uploads every locally stored group that has not been
// confirmed remotely, without pulling first. Used after offline editing
// sessions; conflicts rejected by the server's precondition are reported
// as values and resolved by the next pull.
func (s *Service) PushOnlySync(ctx context.Context) models.SyncResult {
	groups, err := s.local.GetGroups(ctx)
	if err != nil {
		return models.SyncResult{Err: fmt.Errorf("read local groups: %w", err)}
	}

	out := pullOutcome{merged: groups, dirty: make(map[string]struct{})}
	for _, g := range groups {
		if g.SyncStatus != models.SyncStatusSynced {
			out.dirty[g.ID] = struct{}{}
		}
	}
	return s.push(ctx, out)
}

// Deduplicate is the user-initiated "delete duplicate tabs" operation. It
// registers itself with the coordinator, pulls and merges the latest
// remote state, removes URL duplicates inside every group, then pushes the
// result and completes the registration.
func (s *Service) Deduplicate(ctx context.Context) models.SyncResult {
	locals, err := s.local.GetGroups(ctx)
	if err != nil {
		return models.SyncResult{Err: fmt.Errorf("read local groups: %w", err)}
	}

	ids := make([]string, 0, len(locals))
	expected := make(map[string]int64, len(locals))
	for _, g := range locals {
		ids = append(ids, g.ID)
		expected[g.ID] = g.Version
	}

	opID := s.coord.RegisterOperation(OpDeduplicate, ids, expected)
	defer s.coord.CompleteOperation(opID)

	out := s.pull(ctx, opID)
	if out.result.Err != nil {
		return out.result
	}

	mergeOpts := s.mergeOptions(ctx)
	mergeOpts.AllowDuplicateTabs = false

	for i := range out.merged {
		g := &out.merged[i]
		if g.IsDeleted {
			continue
		}
		deduped := MergeTabSets(g.Tabs, nil, mergeOpts)
		if len(deduped) == len(g.LiveTabs()) {
			continue
		}
		g.Tabs = deduped
		g.Version++
		g.UpdatedAt = s.now()
		g.SyncStatus = models.SyncStatusLocalOnly
		out.dirty[g.ID] = struct{}{}
	}

	return s.push(ctx, out)
}

// pull implements the download + merge + conflict detection phase.
func (s *Service) pull(ctx context.Context, ownOpID string) pullOutcome {
	out := pullOutcome{dirty: make(map[string]struct{})}
	gen := s.coord.Generation()

	resp, err := s.remote.Download(ctx, models.DownloadRequest{})
	if err != nil {
		out.result.Err = fmt.Errorf("download remote groups: %w", err)
		return out
	}

	remotes := make(map[string]models.TabGroup, len(resp.Records))
	for _, rec := range resp.Records {
		g, decErr := models.GroupFromRecord(rec)
		if decErr != nil {
			// One bad record never aborts the whole pull.
			s.log.Warn().Str("group_id", rec.ID).Err(decErr).Msg("skipping undecodable remote record")
			out.result.SkippedRecords = append(out.result.SkippedRecords, rec.ID)
			continue
		}
		remotes[g.ID] = g
	}

	locals, err := s.local.GetGroups(ctx)
	if err != nil {
		out.result.Err = fmt.Errorf("read local groups: %w", err)
		return out
	}
	settings := s.syncSettings(ctx)
	mergeOpts := MergeOptions{
		AllowDuplicateTabs: settings.AllowDuplicateTabs,
		Strategy:           s.opts.Strategy,
	}

	for _, lg := range locals {
		rg, onRemote := remotes[lg.ID]
		if !onRemote {
			out.appendLocalOnly(lg)
			continue
		}
		delete(remotes, lg.ID)
		s.reconcile(&out, lg, rg, mergeOpts)
	}

	// Remaining remotes were never seen locally.
	for _, rg := range remotes {
		if rg.IsDeleted {
			// Created and deleted remotely before this device ever synced it.
			continue
		}
		rg.SyncStatus = models.SyncStatusRemoteOnly
		out.merged = append(out.merged, rg)
	}

	s.applyAutoEmpty(&out, settings)

	// Stale-result rejection: if an operation registered while the
	// network round-trip was in flight, its groups keep their fresh local
	// state and this pull's merge output for them is discarded.
	if s.coord.ChangedSince(gen) {
		s.rejectStale(ctx, &out, ownOpID)
	}

	out.result.Success = true
	out.result.MergedGroups = out.merged
	return out
}

// reconcile merges one group present on both sides into out.
func (s *Service) reconcile(out *pullOutcome, local, remote models.TabGroup, opts MergeOptions) {
	// Divergence: a version gap wider than one push, equal versions hiding
	// different content, or the remote moving ahead while this device holds
	// unpushed edits. The last case is what keeps concurrent edits lossless:
	// local [A,B]@3 with remote [B,C]@4 must merge, not surrender to remote.
	localDirty := local.SyncStatus != models.SyncStatusSynced
	diverged := versionGap(local.Version, remote.Version) > 1 ||
		(local.Version == remote.Version && !local.ContentEquals(&remote)) ||
		(remote.Version > local.Version && localDirty && !local.ContentEquals(&remote))

	if !diverged {
		switch {
		case remote.Version > local.Version:
			// Normal progression on another device; take remote as-is.
			if remote.IsDeleted {
				// Tombstone already on the server: other devices can see
				// it, so the local copy is purged outright.
				return
			}
			remote.SyncStatus = models.SyncStatusSynced
			now := s.now()
			remote.LastSyncedAt = &now
			out.merged = append(out.merged, remote)

		case local.Version > remote.Version:
			// Local offline edits accumulated; push on this cycle.
			local.SyncStatus = models.SyncStatusLocalOnly
			out.merged = append(out.merged, local)
			out.dirty[local.ID] = struct{}{}

		default:
			if local.IsDeleted {
				// Both sides hold the tombstone; propagation is confirmed.
				return
			}
			local.SyncStatus = models.SyncStatusSynced
			out.merged = append(out.merged, local)
		}
		return
	}

	// Conflict candidate.
	if opts.Strategy == StrategyManual {
		local.SyncStatus = models.SyncStatusConflict
		out.merged = append(out.merged, local)
		out.result.Conflicts = append(out.result.Conflicts, models.ConflictInfo{
			GroupID:       local.ID,
			LocalVersion:  local.Version,
			RemoteVersion: remote.Version,
			Resolution:    "manual",
			ResolvedAt:    s.now(),
		})
		return
	}

	gap := local.UpdatedAt.Sub(remote.UpdatedAt)
	if gap < 0 {
		gap = -gap
	}

	var merged models.TabGroup
	resolution := "merged"

	switch {
	case gap < s.opts.ConflictWindow:
		// Close in time: edits are likely both intentional, so merge
		// field by field.
		merged = MergeGroups(local, remote, opts)

	case local.UpdatedAt.After(remote.UpdatedAt):
		// Far apart: the newer copy wins at group level, but tab lists
		// are still unioned so no tab is blindly discarded.
		merged = local
		merged.Tabs = MergeTabSets(local.Tabs, remote.Tabs, opts)
		merged.Version = maxVersion(local.Version, remote.Version) + 1
		resolution = "local-wins"

	default:
		merged = remote
		merged.Tabs = MergeTabSets(remote.Tabs, local.Tabs, opts)
		merged.Version = maxVersion(local.Version, remote.Version) + 1
		resolution = "remote-wins"
	}

	merged.SyncStatus = models.SyncStatusLocalOnly
	out.merged = append(out.merged, merged)
	out.dirty[merged.ID] = struct{}{}

	out.result.Conflicts = append(out.result.Conflicts, models.ConflictInfo{
		GroupID:       merged.ID,
		LocalVersion:  local.Version,
		RemoteVersion: remote.Version,
		Resolution:    resolution,
		ResolvedAt:    s.now(),
	})
}

// appendLocalOnly classifies a group absent from the remote store.
func (out *pullOutcome) appendLocalOnly(g models.TabGroup) {
	if g.IsDeleted && g.LastSyncedAt == nil {
		// Created and tombstoned locally before the first push; the
		// server never knew about it.
		return
	}
	if g.SyncStatus == "" || g.SyncStatus == models.SyncStatusSynced {
		g.SyncStatus = models.SyncStatusLocalOnly
	}
	out.merged = append(out.merged, g)
	out.dirty[g.ID] = struct{}{}
}

// applyAutoEmpty tombstones groups left without live tabs by this cycle's
// merges, when the setting is enabled. Locked groups are exempt.
func (s *Service) applyAutoEmpty(out *pullOutcome, settings models.Settings) {
	if !settings.AutoDeleteEmpty {
		return
	}
	for i := range out.merged {
		g := &out.merged[i]
		if g.IsDeleted || g.IsLocked || len(g.LiveTabs()) > 0 {
			continue
		}
		g.IsDeleted = true
		g.Version++
		g.UpdatedAt = s.now()
		g.SyncStatus = models.SyncStatusLocalOnly
		out.dirty[g.ID] = struct{}{}
		s.log.Info().Str("group_id", g.ID).Msg("auto-deleting emptied group")
	}
}

// rejectStale replaces merge output with fresh local state for every group
// that a newer pending operation (other than the pull's own) now touches.
func (s *Service) rejectStale(ctx context.Context, out *pullOutcome, ownOpID string) {
	fresh, err := s.local.GetGroups(ctx)
	if err != nil {
		s.log.Err(err).Msg("stale-check reread failed; keeping merge output")
		return
	}
	freshIndex := make(map[string]models.TabGroup, len(fresh))
	for _, g := range fresh {
		freshIndex[g.ID] = g
	}

	for i := range out.merged {
		id := out.merged[i].ID
		if !s.coord.ConflictsExcluding([]string{id}, ownOpID) {
			continue
		}
		delete(out.dirty, id)
		if fg, ok := freshIndex[id]; ok {
			out.merged[i] = fg
		}
		s.log.Debug().Str("group_id", id).Msg("discarded stale merge output; newer local operation pending")
	}
}

// push uploads the dirty subset of out.merged, marks confirmed groups
// synced, and purges tombstones whose propagation the server acknowledged.
func (s *Service) push(ctx context.Context, out pullOutcome) models.SyncResult {
	result := out.result
	result.Success = true

	if len(out.dirty) == 0 {
		result.MergedGroups = out.merged
		if err := s.local.SetGroups(ctx, out.merged); err != nil {
			result.Success = false
			result.Err = fmt.Errorf("persist groups: %w", err)
		}
		return result
	}

	records := make([]models.GroupRecord, 0, len(out.dirty))
	for i := range out.merged {
		g := out.merged[i]
		if _, ok := out.dirty[g.ID]; !ok {
			continue
		}
		g.OriginDeviceID = s.filter.DeviceID()
		if g.UpdatedAt.IsZero() {
			g.UpdatedAt = s.now()
		}
		rec, err := models.RecordFromGroup(g)
		if err != nil {
			result.SkippedRecords = append(result.SkippedRecords, g.ID)
			continue
		}
		records = append(records, rec)
	}

	resp, err := s.remote.Upload(ctx, models.UploadRequest{Records: records})
	if err != nil {
		if errors.Is(err, adapter.ErrUnauthorized) {
			result.Success = false
			result.Err = err
			return result
		}
		result.Success = false
		result.Err = fmt.Errorf("upload groups: %w", err)
		return result
	}

	applied := make(map[string]struct{}, len(resp.Applied))
	for _, id := range resp.Applied {
		applied[id] = struct{}{}
	}
	for _, vc := range resp.Conflicts {
		result.Conflicts = append(result.Conflicts, models.ConflictInfo{
			GroupID:       vc.ID,
			RemoteVersion: vc.ServerVersion,
			Resolution:    "deferred",
			ResolvedAt:    s.now(),
		})
		s.log.Info().Str("group_id", vc.ID).Int64("server_version", vc.ServerVersion).
			Msg("upload rejected by version precondition; next pull resolves")
	}

	now := s.now()
	final := make([]models.TabGroup, 0, len(out.merged))
	for _, g := range out.merged {
		if _, ok := applied[g.ID]; ok {
			if g.IsDeleted {
				// Tombstone propagation confirmed; purge locally.
				continue
			}
			g.OriginDeviceID = s.filter.DeviceID()
			g.SyncStatus = models.SyncStatusSynced
			g.LastSyncedAt = &now
		}
		final = append(final, g)
	}

	result.MergedGroups = final
	if err := s.local.SetGroups(ctx, final); err != nil {
		result.Success = false
		result.Err = fmt.Errorf("persist groups after push: %w", err)
	}
	return result
}

// syncSettings reconciles the local and remote settings rows last-write-wins
// by UpdatedAt and returns the winning copy. Remote failures are non-fatal:
// the cycle proceeds on the local copy and the next pull retries.
func (s *Service) syncSettings(ctx context.Context) models.Settings {
	local, err := s.local.GetSettings(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("read local settings")
		local = models.Settings{}
	}

	remote, err := s.remote.GetSettings(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("fetch remote settings; keeping local copy")
		return local
	}

	switch {
	case remote.UpdatedAt.After(local.UpdatedAt):
		if err := s.local.SetSettings(ctx, remote); err != nil {
			s.log.Warn().Err(err).Msg("persist remote settings")
			return local
		}
		return remote
	case local.UpdatedAt.After(remote.UpdatedAt):
		if err := s.remote.PutSettings(ctx, local); err != nil {
			s.log.Warn().Err(err).Msg("push local settings")
		}
		return local
	default:
		return local
	}
}

// mergeOptions derives the per-cycle merge options from synced settings.
func (s *Service) mergeOptions(ctx context.Context) MergeOptions {
	settings, err := s.local.GetSettings(ctx)
	if err != nil {
		settings = models.Settings{}
	}
	return MergeOptions{
		AllowDuplicateTabs: settings.AllowDuplicateTabs,
		Strategy:           s.opts.Strategy,
	}
}

func versionGap(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
