// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

// Package store holds both halves of persistence: the client's local
// sqlite store and the server's Postgres repositories.
package store

import (
	"context"

	"github.com/tabvault/tabvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/repository_mock.go -package=mock

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// GroupRepository persists group rows with optimistic version checking.
type GroupRepository interface {
	// GetGroupRecords selects the owner's rows, optionally narrowed to ids.
	GetGroupRecords(ctx context.Context, ownerID int64, ids []string) ([]models.GroupRecord, error)

	// UpsertGroupRecord applies rec iff its version is strictly greater
	// than the stored one (or the row is new). When the precondition
	// fails, applied is false and serverVersion carries the stored value.
	UpsertGroupRecord(ctx context.Context, rec models.GroupRecord) (applied bool, serverVersion int64, err error)

	// GetSettings fetches the owner's settings row.
	GetSettings(ctx context.Context, ownerID int64) (models.Settings, error)

	// UpsertSettings stores the owner's settings row, last-write-wins by
	// updated_at.
	UpsertSettings(ctx context.Context, settings models.Settings) error
}

// Repositories aggregates the server-side stores.
type Repositories struct {
	Users  UserRepository
	Groups GroupRepository
}
