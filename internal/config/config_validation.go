// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants the server binary needs at startup.
func (cfg *StructuredConfig) validate() error {
	return nil
}

// ValidateServer enforces the fields the server binary cannot run without.
func (cfg *StructuredConfig) ValidateServer() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidAdapterConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" || cfg.App.TokenDuration == 0 {
		return ErrInvalidAppConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.Local.Path == "" || strings.Contains(cfg.Storage.Local.Path, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.ServerURL == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.Interval == 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
