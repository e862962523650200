// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := TruncateRunes(tc.in, tc.max); got != tc.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestTruncateWidthCJK(t *testing.T) {
	// Each ideograph is two columns wide.
	s := "日本語テキスト"
	got := TruncateWidth(s, 9)
	if StringWidth(got) > 9 {
		t.Errorf("width %d exceeds limit: %q", StringWidth(got), got)
	}
	if got == s {
		t.Error("string should have been truncated")
	}

	if TruncateWidth("ascii", 10) != "ascii" {
		t.Error("short string must pass through")
	}
}

func TestSafeSubstring(t *testing.T) {
	s := "héllo"
	if got := SafeSubstring(s, 1, 3); got != "él" {
		t.Errorf("got %q", got)
	}
	if got := SafeSubstring(s, 3, 1); got != "" {
		t.Errorf("inverted range: %q", got)
	}
	if got := SafeSubstring(s, 0, 100); got != s {
		t.Errorf("clamped end: %q", got)
	}
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	if err := AtomicWriteFile(path, []byte("first"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files: %v", entries)
	}
}
