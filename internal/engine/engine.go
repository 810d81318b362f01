// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"log"

	"github.com/jeranaias/castchat/internal/model"
	"github.com/jeranaias/castchat/internal/ollama"
	"github.com/jeranaias/castchat/internal/store"
	"github.com/jeranaias/castchat/internal/transport"
)

// =============================================================================
// BACKEND INTERFACES
// =============================================================================

// LocalBackend is what the engine needs from the local model server:
// a reachability probe, model discovery, live base-URL updates, and
// streaming completions. *ollama.Client satisfies it.
type LocalBackend interface {
	transport.Streamer
	CheckRunning(ctx context.Context) error
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
	SetBaseURL(url string)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine coordinates the store with the two streaming backends. Turn
// execution is strictly sequential; the generation flag in the store keeps
// at most one stream in flight at a time.
type Engine struct {
	store  *store.Store
	local  LocalBackend
	remote transport.Streamer
}

func New(st *store.Store, local LocalBackend, remote transport.Streamer) *Engine {
	return &Engine{store: st, local: local, remote: remote}
}

// =============================================================================
// TURN EXECUTION
// =============================================================================

// runTurn performs one request/response cycle for a character: pick the
// backend by the character's model, stream the completion into the message
// identified by messageID, and annotate that message on failure. The
// history must not include the placeholder message itself.
func (e *Engine) runTurn(ctx context.Context, ch model.Character, history []model.ChatMessage, messageID string) error {
	req := transport.Request{
		Model:        ch.Model,
		SystemPrompt: ch.SystemPrompt,
		Messages:     toWire(history),
	}

	var backend transport.Streamer = e.remote
	if e.store.ModelIsLocal(ch.Model) {
		backend = e.local
	}

	err := backend.StreamCompletion(ctx, req, func(c transport.Chunk) {
		if c.Content != "" {
			e.store.AppendChunk(messageID, c.Content)
		}
	})
	if err != nil {
		log.Printf("engine: turn for %q (model=%s) failed: %v", ch.Name, ch.Model, err)
		e.store.AnnotateError(messageID, err.Error())
		return err
	}
	return nil
}

func toWire(history []model.ChatMessage) []transport.Message {
	out := make([]transport.Message, 0, len(history))
	for _, m := range history {
		out = append(out, transport.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
