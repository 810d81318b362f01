// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for castchat.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location: ~/.castchat/config.toml (built-in defaults
// when absent).
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete castchat configuration.
type Config struct {
	// Local (Ollama) configuration
	Local LocalConfig `toml:"local"`

	// Gateway (remote provider) configuration
	Gateway GatewayConfig `toml:"gateway"`

	// Storage (state persistence) configuration
	Storage StorageConfig `toml:"storage"`
}

// LocalConfig contains local Ollama configuration.
type LocalConfig struct {
	// OllamaURL is the URL of the Ollama server
	OllamaURL string `toml:"ollama_url"`
}

// GatewayConfig contains the remote model gateway configuration.
type GatewayConfig struct {
	// BaseURL is the gateway root; the session chat path is appended to it
	BaseURL string `toml:"base_url"`
}

// StorageConfig contains state persistence configuration.
type StorageConfig struct {
	// Backend selects the blob store: "file" or "badger"
	Backend string `toml:"backend"`
	// Dir is the directory holding the persisted state (empty = ~/.castchat/state)
	Dir string `toml:"dir"`
	// Key is the snapshot key within the store (empty = default)
	Key string `toml:"key"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Local: LocalConfig{
			OllamaURL: "http://localhost:11434",
		},
		Gateway: GatewayConfig{
			BaseURL: "https://chat.castchat.dev",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the castchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".castchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file. A missing file is
// not an error: defaults apply, then environment overrides, then validation.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The file may be absent.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	if err := checkURL("local.ollama_url", c.Local.OllamaURL); err != nil {
		return err
	}
	if err := checkURL("gateway.base_url", c.Gateway.BaseURL); err != nil {
		return err
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "", "file", "badger":
	default:
		return ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, badger", c.Storage.Backend),
		}
	}
	return nil
}

func checkURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid URL scheme '%s', must be http or https", u.Scheme)}
	}
	return nil
}

// SetDefaults fills in any missing values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Local.OllamaURL == "" {
		c.Local.OllamaURL = defaults.Local.OllamaURL
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = defaults.Gateway.BaseURL
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Dir == "" {
		if dir, err := ConfigDir(); err == nil {
			c.Storage.Dir = filepath.Join(dir, "state")
		}
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CASTCHAT_OLLAMA_URL: overrides local.ollama_url
//   - CASTCHAT_GATEWAY_URL: overrides gateway.base_url
//   - CASTCHAT_STORAGE_DIR: overrides storage.dir
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("CASTCHAT_OLLAMA_URL"); url != "" {
		c.Local.OllamaURL = url
	}
	if url := os.Getenv("CASTCHAT_GATEWAY_URL"); url != "" {
		c.Gateway.BaseURL = url
	}
	if dir := os.Getenv("CASTCHAT_STORAGE_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
}
