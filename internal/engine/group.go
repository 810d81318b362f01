// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"

	"github.com/jeranaias/castchat/internal/model"
)

// StartGroupConversation seeds the log with the user's topic and runs a
// round-robin conversation over the participant roster: each participant
// speaks twice, strictly one turn at a time, every speaker seeing the full
// log so far. The first failed turn aborts the remaining ones; the
// orchestrating flag clears on every exit path.
//
// Requires at least two participants and no orchestration in flight;
// otherwise the call is a no-op.
func (e *Engine) StartGroupConversation(ctx context.Context, prompt string) error {
	participants := e.store.GroupParticipants()
	if len(participants) < 2 {
		return nil
	}
	// Claim the loop slot atomically; two concurrent calls must not both
	// start orchestrating.
	if !e.store.BeginOrchestrating() {
		return nil
	}
	defer e.store.SetOrchestrating(false)

	e.store.ResetMessages(model.NewUserMessage(prompt))

	maxTurns := len(participants) * 2
	for i := 0; i < maxTurns; i++ {
		speaker := participants[i%len(participants)]

		history := e.store.Messages()
		placeholder := model.NewAssistantMessage(speaker)
		e.store.AppendMessages(placeholder)
		e.store.SetGenerating(true)

		err := e.runTurn(ctx, speaker, history, placeholder.ID)
		e.store.SetGenerating(false)
		if err != nil {
			return err
		}
	}
	return nil
}
