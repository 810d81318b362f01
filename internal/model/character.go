// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "github.com/google/uuid"

// DefaultAvatar is used when a character is created or updated with an
// empty avatar field.
const DefaultAvatar = "🤖"

// Character is a chat persona: a display identity plus the model that
// answers for it.
type Character struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"systemPrompt"`
	Model        string `json:"model"`

	// Avatar is an emoji glyph or an image URL.
	Avatar string `json:"avatar"`
}

// NewCharacter creates a character with a generated ID. An empty avatar
// falls back to DefaultAvatar.
func NewCharacter(name, systemPrompt, modelName, avatar string) Character {
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return Character{
		ID:           uuid.NewString(),
		Name:         name,
		SystemPrompt: systemPrompt,
		Model:        modelName,
		Avatar:       avatar,
	}
}
