// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key-value store the state container
// persists into.
//
// The contract is deliberately narrow: opaque blobs under string keys. The
// state container serializes its whole snapshot under a single key after
// every mutation, so the store never needs to understand the payload.
//
// Two implementations are provided: FileStore keeps one file per key with
// atomic writes, and BadgerStore wraps an embedded BadgerDB for setups
// that already run one.
package storage
