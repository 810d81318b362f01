// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "github.com/jeranaias/castchat/internal/model"

// =============================================================================
// CONNECTION STATE
// =============================================================================

// ConnectionState tracks the local backend's reachability as seen by the
// connection monitor.
type ConnectionState string

const (
	ConnIdle       ConnectionState = "idle"
	ConnConnecting ConnectionState = "connecting"
	ConnConnected  ConnectionState = "connected"
	ConnError      ConnectionState = "error"
)

// =============================================================================
// STATE SNAPSHOT
// =============================================================================

// State is the complete engine state. It serializes as a single JSON blob;
// the field set is the persistence schema, so additions must tolerate being
// absent from old payloads (the loader merges over defaults).
type State struct {
	OllamaAPIURL    string          `json:"ollamaApiUrl"`
	ConnectionState ConnectionState `json:"connectionState"`

	Characters []model.Character   `json:"characters"`
	Models     []model.Model       `json:"models"`
	Messages   []model.ChatMessage `json:"chatMessages"`

	// ActiveCharacterID is the single-chat target; empty means none. While
	// group mode is on it is always empty.
	ActiveCharacterID string `json:"activeCharacterId"`

	IsGenerating bool `json:"isGenerating"`

	IsGroupChatMode         bool     `json:"isGroupChatMode"`
	GroupChatParticipantIDs []string `json:"groupChatParticipantIds"`
	IsOrchestrating         bool     `json:"isOrchestrating"`
}

// DefaultState returns the boot defaults: idle connection, remote catalog
// only, no characters, empty log.
func DefaultState() State {
	return State{
		OllamaAPIURL:            "http://localhost:11434",
		ConnectionState:         ConnIdle,
		Characters:              []model.Character{},
		Models:                  model.RemoteCatalog(),
		Messages:                []model.ChatMessage{},
		GroupChatParticipantIDs: []string{},
	}
}

// clone returns a deep copy of the state. Slices of value types copy
// cleanly; there are no pointers in the snapshot.
func (s State) clone() State {
	out := s
	out.Characters = append([]model.Character(nil), s.Characters...)
	out.Models = append([]model.Model(nil), s.Models...)
	out.Messages = append([]model.ChatMessage(nil), s.Messages...)
	out.GroupChatParticipantIDs = append([]string(nil), s.GroupChatParticipantIDs...)
	return out
}
