// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/jeranaias/castchat/internal/model"
	"github.com/jeranaias/castchat/internal/storage"
	"github.com/jeranaias/castchat/internal/util"
)

// DefaultStateKey is the storage key the snapshot persists under.
const DefaultStateKey = "castchat-state"

// errorAnnotationPrefix is appended to an in-flight assistant message when
// its stream fails. Rendered as markdown by the consuming UI.
const errorAnnotationPrefix = "\n\n**Error:** "

// =============================================================================
// STORE
// =============================================================================

// Store is the injectable state container. All mutation methods are
// synchronous and atomic with respect to readers, and each one commits the
// snapshot to the durable blob store before returning.
type Store struct {
	mu    sync.RWMutex
	state State
	blob  storage.Store
	key   string
}

// New creates a store backed by blob, restoring the persisted snapshot if
// one exists. The persisted payload is unmarshalled over fresh defaults,
// so keys it lacks keep their default values and keys it has win.
func New(blob storage.Store, key string) *Store {
	if key == "" {
		key = DefaultStateKey
	}

	st := DefaultState()
	data, err := blob.Get(key)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &st); err != nil {
			log.Printf("store: discarding unreadable snapshot %q: %v", util.Truncate(string(data), 64), err)
			st = DefaultState()
		}
	case errors.Is(err, storage.ErrKeyNotFound):
		// First boot, defaults stand.
	default:
		log.Printf("store: failed to read snapshot, starting from defaults: %v", err)
	}

	return &Store{state: st, blob: blob, key: key}
}

// commit persists the current snapshot. Called with the write lock held.
// Persistence failures are logged, never escalated: in-memory state is
// already consistent and the next successful commit heals the gap.
func (s *Store) commit() {
	data, err := json.Marshal(s.state)
	if err != nil {
		log.Printf("store: failed to marshal snapshot: %v", err)
		return
	}
	if err := s.blob.Set(s.key, data); err != nil {
		log.Printf("store: failed to persist snapshot: %v", err)
	}
}

// =============================================================================
// CONNECTION + CATALOG MUTATIONS
// =============================================================================

// SetOllamaAPIURL updates the local backend address.
func (s *Store) SetOllamaAPIURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.OllamaAPIURL = url
	s.commit()
}

// SetConnectionState records a connection monitor transition.
func (s *Store) SetConnectionState(cs ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConnectionState = cs
	s.commit()
}

// SetModels replaces the available-model set.
func (s *Store) SetModels(ms []model.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Models = append([]model.Model(nil), ms...)
	s.commit()
}

// =============================================================================
// CHARACTER MUTATIONS
// =============================================================================

// AddCharacter stores ch under a fresh ID and returns the stored value.
// An empty avatar falls back to the default glyph.
func (s *Store) AddCharacter(ch model.Character) model.Character {
	stored := model.NewCharacter(ch.Name, ch.SystemPrompt, ch.Model, ch.Avatar)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Characters = append(s.state.Characters, stored)
	s.commit()
	return stored
}

// UpdateCharacter replaces the character with ch.ID. Returns false if no
// such character exists. An empty avatar falls back to the default glyph.
func (s *Store) UpdateCharacter(ch model.Character) bool {
	if ch.Avatar == "" {
		ch.Avatar = model.DefaultAvatar
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.state.Characters {
		if existing.ID == ch.ID {
			s.state.Characters[i] = ch
			s.commit()
			return true
		}
	}
	return false
}

// DeleteCharacter removes a character and cascades: the active selection
// is cleared if it pointed here, the group roster drops the id, and the
// message log is wiped when the deleted character was the active
// single-chat target.
func (s *Store) DeleteCharacter(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Characters[:0]
	for _, ch := range s.state.Characters {
		if ch.ID != id {
			kept = append(kept, ch)
		}
	}
	s.state.Characters = kept

	roster := s.state.GroupChatParticipantIDs[:0]
	for _, pid := range s.state.GroupChatParticipantIDs {
		if pid != id {
			roster = append(roster, pid)
		}
	}
	s.state.GroupChatParticipantIDs = roster

	if s.state.ActiveCharacterID == id {
		s.state.ActiveCharacterID = ""
		s.state.Messages = []model.ChatMessage{}
	}

	s.commit()
}

// =============================================================================
// SELECTION MUTATIONS
// =============================================================================

// SetActiveCharacter selects the single-chat target. Ignored while group
// mode is on. Switching targets clears the visible message log.
func (s *Store) SetActiveCharacter(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsGroupChatMode {
		return
	}
	if s.state.ActiveCharacterID == id {
		return
	}

	s.state.ActiveCharacterID = id
	s.state.Messages = []model.ChatMessage{}
	s.commit()
}

// ToggleGroupChatMode flips between single and group mode. Either
// direction resets the roster, the message log, and the active selection:
// the two modes are mutually exclusive over which selection field means
// anything.
func (s *Store) ToggleGroupChatMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsGroupChatMode = !s.state.IsGroupChatMode
	s.state.GroupChatParticipantIDs = []string{}
	s.state.Messages = []model.ChatMessage{}
	s.state.ActiveCharacterID = ""
	s.commit()
}

// ToggleGroupParticipant adds the character to the group roster, or
// removes it if already present. Unknown character ids are ignored so the
// roster only ever references live characters.
func (s *Store) ToggleGroupParticipant(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, pid := range s.state.GroupChatParticipantIDs {
		if pid == id {
			s.state.GroupChatParticipantIDs = append(
				s.state.GroupChatParticipantIDs[:i],
				s.state.GroupChatParticipantIDs[i+1:]...)
			s.commit()
			return
		}
	}

	for _, ch := range s.state.Characters {
		if ch.ID == id {
			s.state.GroupChatParticipantIDs = append(s.state.GroupChatParticipantIDs, id)
			s.commit()
			return
		}
	}
}

// =============================================================================
// MESSAGE MUTATIONS
// =============================================================================

// AppendMessages appends msgs to the log in order.
func (s *Store) AppendMessages(msgs ...model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = append(s.state.Messages, msgs...)
	s.commit()
}

// ResetMessages replaces the log with the single seed message.
func (s *Store) ResetMessages(seed model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = []model.ChatMessage{seed}
	s.commit()
}

// AppendChunk appends streamed text to the message with the given id.
// Addressing by id rather than position keeps chunk routing correct no
// matter what else happened to the log meanwhile. Returns false when the
// id is gone (for example the log was cleared by a cascade delete).
func (s *Store) AppendChunk(messageID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Messages {
		if s.state.Messages[i].ID == messageID {
			s.state.Messages[i].Content += text
			s.commit()
			return true
		}
	}
	return false
}

// AnnotateError appends a visible error marker to the message with the
// given id, preserving whatever content already streamed in.
func (s *Store) AnnotateError(messageID, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Messages {
		if s.state.Messages[i].ID == messageID {
			s.state.Messages[i].Content += errorAnnotationPrefix + errMsg
			s.commit()
			return true
		}
	}
	return false
}

// =============================================================================
// GENERATION FLAGS
// =============================================================================

// BeginGenerating atomically claims the process-wide single-stream slot.
// Returns false without mutating when a stream or a group loop is already
// running: a read followed by a separate set would let two concurrent
// callers both pass the gate.
func (s *Store) BeginGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGenerating || s.state.IsOrchestrating {
		return false
	}
	s.state.IsGenerating = true
	s.commit()
	return true
}

// BeginOrchestrating atomically claims the group-loop slot. Returns false
// without mutating when a loop is already running or a single-chat stream
// is in flight.
func (s *Store) BeginOrchestrating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsOrchestrating || s.state.IsGenerating {
		return false
	}
	s.state.IsOrchestrating = true
	s.commit()
	return true
}

// SetGenerating flips the process-wide single-stream flag. Claiming the
// flag from a potentially concurrent caller goes through BeginGenerating.
func (s *Store) SetGenerating(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsGenerating = v
	s.commit()
}

// SetOrchestrating flips the group-loop state flag. Claiming the flag from
// a potentially concurrent caller goes through BeginOrchestrating.
func (s *Store) SetOrchestrating(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsOrchestrating = v
	s.commit()
}

// =============================================================================
// READERS
// =============================================================================

// Snapshot returns a deep copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Characters returns a copy of the character set.
func (s *Store) Characters() []model.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Character(nil), s.state.Characters...)
}

// CharacterByID looks up a character.
func (s *Store) CharacterByID(id string) (model.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.state.Characters {
		if ch.ID == id {
			return ch, true
		}
	}
	return model.Character{}, false
}

// ActiveCharacter returns the current single-chat target, if any.
func (s *Store) ActiveCharacter() (model.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.ActiveCharacterID == "" {
		return model.Character{}, false
	}
	for _, ch := range s.state.Characters {
		if ch.ID == s.state.ActiveCharacterID {
			return ch, true
		}
	}
	return model.Character{}, false
}

// GroupParticipants resolves the roster to characters in roster order.
func (s *Store) GroupParticipants() []model.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Character, 0, len(s.state.GroupChatParticipantIDs))
	for _, pid := range s.state.GroupChatParticipantIDs {
		for _, ch := range s.state.Characters {
			if ch.ID == pid {
				out = append(out, ch)
				break
			}
		}
	}
	return out
}

// Messages returns a copy of the message log.
func (s *Store) Messages() []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ChatMessage(nil), s.state.Messages...)
}

// MessageByID looks up a log entry.
func (s *Store) MessageByID(id string) (model.ChatMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.state.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return model.ChatMessage{}, false
}

// Models returns a copy of the available-model set.
func (s *Store) Models() []model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Model(nil), s.state.Models...)
}

// ModelIsLocal reports whether the named model is served locally. Unknown
// names resolve to false: the stored identifier is dispatched to the
// remote backend verbatim and any rejection surfaces as a stream failure.
func (s *Store) ModelIsLocal(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.state.Models {
		if m.Name == name {
			return m.IsLocal
		}
	}
	return false
}

// ConnectionState returns the monitor's current state.
func (s *Store) ConnectionState() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ConnectionState
}

// OllamaAPIURL returns the configured local backend address.
func (s *Store) OllamaAPIURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.OllamaAPIURL
}

// IsGenerating reports whether a stream is in flight.
func (s *Store) IsGenerating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsGenerating
}

// IsOrchestrating reports whether the group loop is running.
func (s *Store) IsOrchestrating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsOrchestrating
}

// IsGroupChatMode reports whether group mode is on.
func (s *Store) IsGroupChatMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsGroupChatMode
}
