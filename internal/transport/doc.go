// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport defines the uniform streaming-completion contract that
// both chat backends satisfy.
//
// A Streamer takes a model, an ordered message history, and an optional
// system prompt, and produces a finite sequence of text chunks followed by
// exactly one terminal signal. In Go terms the terminal signal is the
// method's return value: nil means the stream completed, non-nil means it
// failed. Chunk callbacks are invoked synchronously in network-arrival
// order and never after the method returns.
package transport
