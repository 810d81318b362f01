// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Model describes one entry in the available-model set. Name is an opaque
// backend-specific identifier; IsLocal selects the transport used to reach
// it.
type Model struct {
	Name    string `json:"name"`
	IsLocal bool   `json:"isLocal"`
}

// remoteCatalog is the static set of gateway-served models. It is merged
// into the available set unconditionally, including when the local probe
// fails.
var remoteCatalog = []Model{
	{Name: "google-ai-studio/gemini-2.5-flash"},
	{Name: "openai/gpt-4o"},
	{Name: "google-ai-studio/gemini-2.0-flash"},
	{Name: "google-ai-studio/gemini-2.5-pro"},
	{Name: "grok/grok-4-latest"},
	{Name: "workers-ai/@cf/moonshotai/kimi-k2-instruct"},
	{Name: "openai/gpt-5"},
	{Name: "openai/gpt-5-mini"},
	{Name: "openai/gpt-oss-120b"},
	{Name: "cerebras/gpt-oss-120b"},
	{Name: "cerebras/qwen-3-coder-480b"},
}

// RemoteCatalog returns a fresh copy of the static remote model catalog.
// Callers may mutate the returned slice freely.
func RemoteCatalog() []Model {
	out := make([]Model, len(remoteCatalog))
	copy(out, remoteCatalog)
	return out
}
