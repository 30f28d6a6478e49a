// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TabVault Authors

// Package syncer implements the tab-group synchronization engine: the
// pull-merge-push cycle with optimistic concurrency control, the pure merge
// functions, the in-flight operation coordinator, the keyed debouncer and
// the realtime change-feed consumer.
//
// Correctness does not rely on any cross-device locking. Every group
// carries a monotonically increasing version counter; divergence is
// detected on pull, resolved by merging, and the result is pushed with a
// version-check precondition so a slow device can never blindly overwrite
// a version it has not observed.
package syncer
