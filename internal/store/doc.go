// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the single source of truth for the chat engine:
// characters, the message log, the model catalog, selection state, and the
// generation flags.
//
// All state lives in one snapshot struct behind a mutex and changes only
// through the enumerated mutation methods. Every mutation commits the full
// snapshot to durable storage before returning, and every reader gets a
// consistent copy, so no caller ever observes a half-applied update. On
// startup the persisted snapshot is merged over fresh defaults: fields
// missing from an old payload keep their default values.
package store
