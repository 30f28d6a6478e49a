// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

// Package adapter provides transport-layer access to the tabvault remote
// store: a resty-based HTTP client for upload/download/auth and a
// websocket client for the realtime change feed.
//
// Transport errors are mapped once, in this package, onto the sentinel
// values in errors.go so callers can rely on errors.Is regardless of the
// underlying protocol.
package adapter

import (
	"context"

	"github.com/tabvault/tabvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// RemoteStore is the row-per-group backend reachable via upsert uploads
// and select downloads. Implementations manage serialisation and bearer
// token handling, and attach the local device id to every outgoing write.
type RemoteStore interface {
	// Register creates an account and stores the returned bearer token.
	Register(ctx context.Context, user models.User) (models.Token, error)

	// Login authenticates and stores the returned bearer token.
	Login(ctx context.Context, user models.User) (models.Token, error)

	// SetToken stores the bearer token attached to subsequent requests.
	SetToken(token string)

	// Token returns the stored bearer token, empty if none.
	Token() string

	// Upload upserts a batch of group records keyed by id. Each record is
	// subject to the server's version-check precondition; rejected records
	// come back in the response's Conflicts list rather than as an error.
	Upload(ctx context.Context, req models.UploadRequest) (models.UploadResponse, error)

	// Download selects the caller's group records, optionally narrowed to
	// specific ids.
	Download(ctx context.Context, req models.DownloadRequest) (models.DownloadResponse, error)

	// GetSettings fetches the per-owner settings row.
	GetSettings(ctx context.Context) (models.Settings, error)

	// PutSettings stores the per-owner settings row, last-write-wins.
	PutSettings(ctx context.Context, settings models.Settings) error
}

// FeedClient subscribes to the change feed scoped to the current user.
// Events arrive on the returned channel until the context is cancelled or
// the connection drops, which is signalled on the error channel.
type FeedClient interface {
	Subscribe(ctx context.Context) (<-chan models.ChangeEvent, <-chan error, error)
	Close() error
}
