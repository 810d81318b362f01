// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "github.com/google/uuid"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// CHAT MESSAGE TYPE
// =============================================================================

// ChatMessage is a single entry in the conversation log. The log itself is
// the ordering: messages are append-only and their index is chronological.
//
// An assistant message starts with empty Content and is filled in place by
// chunk appends while its stream is live. It is the only entity in the
// state that mutates incrementally.
type ChatMessage struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// CharacterID references the speaking character (assistant only).
	CharacterID string `json:"characterId,omitempty"`

	// CharacterName is a display-name snapshot taken when the message is
	// created, so deleting or renaming the character leaves history intact.
	CharacterName string `json:"characterName,omitempty"`
}

// NewUserMessage creates a user message with a generated ID.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: content,
	}
}

// NewAssistantMessage creates an empty assistant message stamped with the
// speaking character's identity.
func NewAssistantMessage(ch Character) ChatMessage {
	return ChatMessage{
		ID:            uuid.NewString(),
		Role:          RoleAssistant,
		CharacterID:   ch.ID,
		CharacterName: ch.Name,
	}
}

// IsEmpty returns true if the message has no content.
func (m ChatMessage) IsEmpty() bool {
	return len(m.Content) == 0
}
