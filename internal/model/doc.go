// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for characters, chat messages,
// and the model catalog.
//
// A Character pairs a persona (name, system prompt, avatar) with the model
// identifier that speaks for it. A ChatMessage is one entry in the ordered
// conversation log; assistant messages carry a snapshot of the character
// that produced them so later edits to the character do not rewrite
// history. Model descriptors distinguish locally served models from the
// static remote catalog.
package model
