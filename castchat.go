// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package castchat is the embedding surface for the character chat engine:
// it wires configuration, durable state, the two streaming backends, and
// the conversation controllers into one App. A UI embeds the App and drives
// it; this package renders nothing.
package castchat

import (
	"context"
	"time"

	"github.com/jeranaias/castchat/internal/config"
	"github.com/jeranaias/castchat/internal/engine"
	"github.com/jeranaias/castchat/internal/gateway"
	"github.com/jeranaias/castchat/internal/model"
	"github.com/jeranaias/castchat/internal/ollama"
	"github.com/jeranaias/castchat/internal/storage"
	"github.com/jeranaias/castchat/internal/store"
)

// =============================================================================
// RE-EXPORTED TYPES
// =============================================================================

// Aliases so embedders can name the engine's types without reaching into
// internal packages.
type (
	Character   = model.Character
	ChatMessage = model.ChatMessage
	Model       = model.Model
	Role        = model.Role

	Config = config.Config
	State  = store.State
	Store  = store.Store

	ConnectionState = store.ConnectionState
)

const (
	RoleUser      = model.RoleUser
	RoleAssistant = model.RoleAssistant

	ConnIdle       = store.ConnIdle
	ConnConnecting = store.ConnConnecting
	ConnConnected  = store.ConnConnected
	ConnError      = store.ConnError
)

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig loads ~/.castchat/config.toml, or defaults when absent.
func LoadConfig() (*Config, error) { return config.Load() }

// =============================================================================
// APP
// =============================================================================

// App owns the engine's long-lived pieces: the durable blob store, the
// state store, both backend clients, and optionally a config file watcher.
type App struct {
	cfg     *config.Config
	blob    storage.Store
	state   *store.Store
	local   *ollama.Client
	remote  *gateway.Client
	engine  *engine.Engine
	watcher *config.Watcher
}

// New builds an App from cfg, opening the configured storage backend and
// restoring persisted state. nil cfg means built-in defaults.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
		cfg.SetDefaults()
	}

	blob, err := storage.Open(storage.Backend(cfg.Storage.Backend), cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	key := cfg.Storage.Key
	if key == "" {
		key = store.DefaultStateKey
	}
	_, getErr := blob.Get(key)
	hadSnapshot := getErr == nil

	st := store.New(blob, key)

	// A persisted URL wins over the config file: the user may have changed
	// it at runtime after the file was written. The config URL only seeds
	// a fresh state.
	if !hadSnapshot {
		st.SetOllamaAPIURL(cfg.Local.OllamaURL)
	}

	local := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: st.OllamaAPIURL()})
	remote := gateway.NewClient(cfg.Gateway.BaseURL)

	return &App{
		cfg:    cfg,
		blob:   blob,
		state:  st,
		local:  local,
		remote: remote,
		engine: engine.New(st, local, remote),
	}, nil
}

// Store exposes the state store: all reads and the character/selection
// mutations go through it directly.
func (a *App) Store() *Store { return a.state }

// SessionID is the gateway session identifier for this process.
func (a *App) SessionID() string { return a.remote.SessionID() }

// Connect probes the local backend and rebuilds the model catalog; the
// outcome lands in the store's connection state.
func (a *App) Connect(ctx context.Context) { a.engine.Connect(ctx) }

// SendMessage runs one single-chat turn against the active character.
func (a *App) SendMessage(ctx context.Context, prompt string) error {
	return a.engine.StartChat(ctx, prompt)
}

// StartGroupConversation runs a round-robin conversation over the roster.
func (a *App) StartGroupConversation(ctx context.Context, prompt string) error {
	return a.engine.StartGroupConversation(ctx, prompt)
}

// SetOllamaAPIURL points the engine at a different local backend and
// re-probes it.
func (a *App) SetOllamaAPIURL(ctx context.Context, url string) {
	a.state.SetOllamaAPIURL(url)
	a.engine.Connect(ctx)
}

// WatchConfig hot-reloads the config file at path: a changed local backend
// URL is applied and re-probed, other fields require a restart.
func (a *App) WatchConfig(path string) error {
	w, err := config.NewWatcher(path, 500*time.Millisecond, func(cfg *config.Config) {
		if cfg.Local.OllamaURL != a.state.OllamaAPIURL() {
			a.SetOllamaAPIURL(context.Background(), cfg.Local.OllamaURL)
		}
	})
	if err != nil {
		return err
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return err
	}
	a.watcher = w
	return nil
}

// Close releases the watcher and the storage backend.
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Close()
	}
	return a.blob.Close()
}
