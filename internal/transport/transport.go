// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import "context"

// Message is one history entry on the wire: role and content only. Display
// metadata (ids, character names) never crosses the transport boundary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one streaming completion call.
type Request struct {
	// Model is the opaque backend-specific model identifier.
	Model string

	// Messages is the ordered conversation history.
	Messages []Message

	// SystemPrompt is optional. Backends that have no system-prompt slot
	// ignore it.
	SystemPrompt string
}

// Chunk is a single increment of streamed response text. Done marks the
// backend's completion signal: an explicit done frame where the protocol
// has one, or the clean end of the stream otherwise.
type Chunk struct {
	Content string
	Done    bool
}

// ChunkFunc receives chunks in arrival order. It is called from the
// goroutine driving the stream; implementations must not block for long.
type ChunkFunc func(Chunk)

// Streamer is the contract shared by the local and remote backends.
//
// Exactly one terminal outcome occurs per call: a nil return after zero or
// more chunk deliveries (completion), or a non-nil return (failure,
// including network aborts and cancellation). Both backends buffer partial
// reads internally, so a chunk never splits a protocol frame.
type Streamer interface {
	StreamCompletion(ctx context.Context, req Request, fn ChunkFunc) error
}
