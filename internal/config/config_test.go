// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultIsValid: the built-in defaults must pass validation.
func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Stream.ThrottleMs != 200 {
		t.Errorf("throttle = %d", cfg.Stream.ThrottleMs)
	}
	if cfg.Limits.InlineAttachmentMB != 9 || cfg.Limits.MaxAttachmentMB != 18 {
		t.Errorf("attachment limits = %d/%d", cfg.Limits.InlineAttachmentMB, cfg.Limits.MaxAttachmentMB)
	}
}

// TestLoadFromPath round-trips a file through save and load.
func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.Model = "gemini-2.5-pro"
	cfg.Stream.BatchSize = 25
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.API.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", loaded.API.Model)
	}
	if loaded.Stream.BatchSize != 25 {
		t.Errorf("batch size = %d", loaded.Stream.BatchSize)
	}
}

// TestLoadMissingFileUsesDefaults: no file is not an error.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Model != Default().API.Model {
		t.Errorf("model = %q", cfg.API.Model)
	}
}

// TestPartialFileFillsDefaults: unspecified sections keep defaults.
func TestPartialFileFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	partial := "[stream]\nthrottle_ms = 50\n"
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stream.ThrottleMs != 50 {
		t.Errorf("throttle = %d", cfg.Stream.ThrottleMs)
	}
	if cfg.Stream.BatchSize != 15 {
		t.Errorf("batch size default lost: %d", cfg.Stream.BatchSize)
	}
	if cfg.API.Endpoint == "" {
		t.Error("endpoint default lost")
	}
}

// TestValidateRejectsBadValues covers each section's checks.
func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad endpoint", func(c *Config) { c.API.Endpoint = "not a url" }, "api.endpoint"},
		{"inline over max", func(c *Config) { c.Limits.InlineAttachmentMB = 20 }, "limits.max_attachment_mb"},
		{"buffer under display", func(c *Config) { c.Limits.BufferCeilingChars = 1 }, "limits.buffer_ceiling_chars"},
		{"zero attempts", func(c *Config) { c.Stream.MaxAttempts = 0 }, "stream.max_attempts"},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error should name %s: %v", tc.field, err)
			}
		})
	}
}

// TestEnvOverrides verifies DOCCHAT_* variables win over the file.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCCHAT_MODEL", "gemini-2.5-pro")
	t.Setenv("DOCCHAT_THROTTLE_MS", "75")
	t.Setenv("DOCCHAT_PLAIN", "true")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.API.Model)
	}
	if cfg.Stream.ThrottleMs != 75 {
		t.Errorf("throttle = %d", cfg.Stream.ThrottleMs)
	}
	if !cfg.UI.PlainMode {
		t.Error("plain mode override lost")
	}
}

// TestAPIKeyResolution reads the key through the configured env var.
func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("TEST_DOCCHAT_KEY", "secret")
	cfg := Default()
	cfg.API.KeyEnv = "TEST_DOCCHAT_KEY"
	if cfg.APIKey() != "secret" {
		t.Errorf("key = %q", cfg.APIKey())
	}
}

// TestByteConversions checks the MB-to-byte helpers.
func TestByteConversions(t *testing.T) {
	cfg := Default()
	if cfg.InlineAttachmentBytes() != 9*1024*1024 {
		t.Errorf("inline bytes = %d", cfg.InlineAttachmentBytes())
	}
	if cfg.MaxAttachmentBytes() != 18*1024*1024 {
		t.Errorf("max bytes = %d", cfg.MaxAttachmentBytes())
	}
}
