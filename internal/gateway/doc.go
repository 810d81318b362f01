// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the client for the remote model gateway.
//
// The gateway fronts a set of hosted models behind a single endpoint and
// keeps per-session conversation state server-side, so each turn sends only
// the newest message plus the model identifier. A session identifier is
// generated once per client instance and scopes every turn that instance
// issues.
//
// Responses stream raw text bytes with no framing; the stream is complete
// when the body ends.
package gateway
