// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local Ollama-compatible
// inference server.
//
// The client covers the three calls the engine needs: a reachability probe
// (GET /), the installed-model listing (GET /api/tags), and the streaming
// chat endpoint (POST /api/chat). Streaming responses are newline-delimited
// JSON; the reader buffers partial lines across reads and skips malformed
// frames without aborting the stream.
//
// The client is safe for concurrent use. The base URL can be swapped at
// runtime when the user changes the server address in settings.
package ollama
