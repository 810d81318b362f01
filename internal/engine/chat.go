// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"

	"github.com/jeranaias/castchat/internal/model"
)

// StartChat runs one single-chat turn against the active character: append
// the user's message, stream the reply into a fresh assistant message, and
// settle the generation flag on every terminal path. A call with no active
// character or with a turn already in flight is a no-op.
//
// The call blocks until the stream terminates; run it in a goroutine when
// the caller must stay responsive. The returned error is the stream
// failure (already annotated into the message) or nil.
func (e *Engine) StartChat(ctx context.Context, prompt string) error {
	ch, ok := e.store.ActiveCharacter()
	if !ok {
		return nil
	}
	// Claim the single-stream slot atomically: a plain flag read here
	// would let two concurrent calls both dispatch.
	if !e.store.BeginGenerating() {
		return nil
	}

	e.store.AppendMessages(model.NewUserMessage(prompt))

	// Snapshot the history before the placeholder goes in: the request
	// must not carry the empty message the reply streams into.
	history := e.store.Messages()

	placeholder := model.NewAssistantMessage(ch)
	e.store.AppendMessages(placeholder)

	err := e.runTurn(ctx, ch, history, placeholder.ID)
	e.store.SetGenerating(false)
	return err
}
