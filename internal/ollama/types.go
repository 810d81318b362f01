// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "github.com/jeranaias/castchat/internal/transport"

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Model    string              `json:"model"`
	Messages []transport.Message `json:"messages"`
	System   string              `json:"system,omitempty"`
	Stream   bool                `json:"stream"`
}

// chatStreamLine is one newline-delimited JSON frame of a streaming chat
// response. Lines before the terminal frame carry incremental content;
// the terminal frame has Done set.
type chatStreamLine struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// ModelInfo describes one installed model from GET /api/tags.
type ModelInfo struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
}

// ListModelsResponse is the body of GET /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// serverError is the error body Ollama returns on non-success statuses.
type serverError struct {
	Error string `json:"error"`
}
