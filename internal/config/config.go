// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for docchat.
//
// TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.docchat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docchat configuration.
type Config struct {
	API    APIConfig    `toml:"api"`
	Limits LimitsConfig `toml:"limits"`
	Stream StreamConfig `toml:"stream"`
	UI     UIConfig     `toml:"ui"`
}

// APIConfig contains model service connection settings.
type APIConfig struct {
	// Endpoint is the base URL of the model service
	Endpoint string `toml:"endpoint"`
	// KeyEnv names the environment variable holding the API key.
	// The key itself never lives in the config file.
	KeyEnv string `toml:"key_env"`
	// Model is the model identifier to request
	Model string `toml:"model"`
	// RequestsPerMinute caps the client-side request rate (0 = uncapped)
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// LimitsConfig contains size thresholds.
type LimitsConfig struct {
	// InlineAttachmentMB is the estimated-size threshold below which an
	// attachment is sent inline with the request
	InlineAttachmentMB int `toml:"inline_attachment_mb"`
	// MaxAttachmentMB is the hard ceiling on attachment size
	MaxAttachmentMB int `toml:"max_attachment_mb"`
	// DisplayCeilingChars caps how much reply text the live view renders
	DisplayCeilingChars int `toml:"display_ceiling_chars"`
	// BufferCeilingChars caps the accumulated reply text
	BufferCeilingChars int `toml:"buffer_ceiling_chars"`
}

// StreamConfig contains streaming and retry settings.
type StreamConfig struct {
	// ThrottleMs is the display refresh interval during streaming
	ThrottleMs int `toml:"throttle_ms"`
	// BatchSize flushes the display early once this many deltas queue up
	BatchSize int `toml:"batch_size"`
	// MaxAttempts bounds connection attempts for transient failures
	MaxAttempts int `toml:"max_attempts"`
	// RetryBackoffMs is the linear backoff unit between attempts
	RetryBackoffMs int `toml:"retry_backoff_ms"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// PlainMode forces the line-oriented interface even on a TTY
	PlainMode bool `toml:"plain_mode"`
	// ExportDir is where exported documents are written (empty = cwd)
	ExportDir string `toml:"export_dir"`
	// StyleNotes is free-text drafting preferences appended to the
	// system prompt
	StyleNotes string `toml:"style_notes"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:          "https://generativelanguage.googleapis.com",
			KeyEnv:            "GEMINI_API_KEY",
			Model:             "gemini-2.5-flash",
			RequestsPerMinute: 0,
		},
		Limits: LimitsConfig{
			InlineAttachmentMB:  9,
			MaxAttachmentMB:     18,
			DisplayCeilingChars: 5_000_000,
			BufferCeilingChars:  50_000_000,
		},
		Stream: StreamConfig{
			ThrottleMs:     200,
			BatchSize:      15,
			MaxAttempts:    3,
			RetryBackoffMs: 1000,
		},
		UI: UIConfig{
			Theme:     "dark",
			PlainMode: false,
			ExportDir: "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the docchat configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".docchat"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides apply last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
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
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with owner-only
// permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# docchat configuration file")
	fmt.Fprintln(file, "# Generated by docchat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
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

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.Endpoint != "" {
		if u, err := url.Parse(c.API.Endpoint); err != nil || u.Scheme == "" {
			errs = append(errs, ValidationError{
				Field:   "api.endpoint",
				Message: fmt.Sprintf("invalid URL '%s'", c.API.Endpoint),
			})
		}
	}
	if c.API.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.requests_per_minute",
			Message: "must be non-negative",
		})
	}

	if c.Limits.InlineAttachmentMB <= 0 {
		errs = append(errs, ValidationError{
			Field:   "limits.inline_attachment_mb",
			Message: "must be positive",
		})
	}
	if c.Limits.MaxAttachmentMB < c.Limits.InlineAttachmentMB {
		errs = append(errs, ValidationError{
			Field:   "limits.max_attachment_mb",
			Message: fmt.Sprintf("must be at least inline_attachment_mb (%d)", c.Limits.InlineAttachmentMB),
		})
	}
	if c.Limits.BufferCeilingChars < c.Limits.DisplayCeilingChars {
		errs = append(errs, ValidationError{
			Field:   "limits.buffer_ceiling_chars",
			Message: "must be at least display_ceiling_chars",
		})
	}

	if c.Stream.ThrottleMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "stream.throttle_ms",
			Message: "must be non-negative",
		})
	}
	if c.Stream.BatchSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "stream.batch_size",
			Message: "must be positive",
		})
	}
	if c.Stream.MaxAttempts < 1 || c.Stream.MaxAttempts > 10 {
		errs = append(errs, ValidationError{
			Field:   "stream.max_attempts",
			Message: fmt.Sprintf("must be 1-10, got %d", c.Stream.MaxAttempts),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.API.Endpoint == "" {
		c.API.Endpoint = defaults.API.Endpoint
	}
	if c.API.KeyEnv == "" {
		c.API.KeyEnv = defaults.API.KeyEnv
	}
	if c.API.Model == "" {
		c.API.Model = defaults.API.Model
	}

	if c.Limits.InlineAttachmentMB == 0 {
		c.Limits.InlineAttachmentMB = defaults.Limits.InlineAttachmentMB
	}
	if c.Limits.MaxAttachmentMB == 0 {
		c.Limits.MaxAttachmentMB = defaults.Limits.MaxAttachmentMB
	}
	if c.Limits.DisplayCeilingChars == 0 {
		c.Limits.DisplayCeilingChars = defaults.Limits.DisplayCeilingChars
	}
	if c.Limits.BufferCeilingChars == 0 {
		c.Limits.BufferCeilingChars = defaults.Limits.BufferCeilingChars
	}

	if c.Stream.ThrottleMs == 0 {
		c.Stream.ThrottleMs = defaults.Stream.ThrottleMs
	}
	if c.Stream.BatchSize == 0 {
		c.Stream.BatchSize = defaults.Stream.BatchSize
	}
	if c.Stream.MaxAttempts == 0 {
		c.Stream.MaxAttempts = defaults.Stream.MaxAttempts
	}
	if c.Stream.RetryBackoffMs == 0 {
		c.Stream.RetryBackoffMs = defaults.Stream.RetryBackoffMs
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DOCCHAT_ENDPOINT: overrides api.endpoint
//   - DOCCHAT_MODEL: overrides api.model
//   - DOCCHAT_KEY_ENV: overrides api.key_env
//   - DOCCHAT_THROTTLE_MS: overrides stream.throttle_ms
//   - DOCCHAT_THEME: overrides ui.theme
//   - DOCCHAT_PLAIN: set to "1" or "true" to force plain mode
//   - DOCCHAT_EXPORT_DIR: overrides ui.export_dir
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("DOCCHAT_ENDPOINT"); endpoint != "" {
		c.API.Endpoint = endpoint
	}
	if model := os.Getenv("DOCCHAT_MODEL"); model != "" {
		c.API.Model = model
	}
	if keyEnv := os.Getenv("DOCCHAT_KEY_ENV"); keyEnv != "" {
		c.API.KeyEnv = keyEnv
	}
	if throttle := os.Getenv("DOCCHAT_THROTTLE_MS"); throttle != "" {
		if ms, err := strconv.Atoi(throttle); err == nil {
			c.Stream.ThrottleMs = ms
		}
	}
	if theme := os.Getenv("DOCCHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if plain := os.Getenv("DOCCHAT_PLAIN"); plain != "" {
		c.UI.PlainMode = plain == "1" || strings.ToLower(plain) == "true"
	}
	if dir := os.Getenv("DOCCHAT_EXPORT_DIR"); dir != "" {
		c.UI.ExportDir = dir
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// APIKey resolves the API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.API.KeyEnv)
}

// InlineAttachmentBytes returns the inline threshold in bytes.
func (c *Config) InlineAttachmentBytes() int64 {
	return int64(c.Limits.InlineAttachmentMB) * 1024 * 1024
}

// MaxAttachmentBytes returns the hard attachment ceiling in bytes.
func (c *Config) MaxAttachmentBytes() int64 {
	return int64(c.Limits.MaxAttachmentMB) * 1024 * 1024
}
