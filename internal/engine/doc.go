// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine drives conversations: it probes the local backend and
// builds the model catalog, runs single-chat turns, and orchestrates
// round-robin group conversations. All state changes flow through the
// store; the engine itself holds no conversation data.
package engine
