// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "strings"

// =============================================================================
// BUFFER
// =============================================================================

// Buffer accumulates reply deltas into the cumulative reply text.
//
// Append is purely additive: prior content is never rewritten, so a
// snapshot taken at any point is a prefix of every later snapshot. The
// buffer itself never truncates; display truncation is a policy applied
// by consumers through DisplayString, and the full content stays
// reconstructable for export.
type Buffer struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	sb strings.Builder
}

// Append adds one delta to the buffer. It always succeeds.
func (b *Buffer) Append(delta string) {
	b.sb.WriteString(delta)
}

// String returns the full cumulative text.
func (b *Buffer) String() string {
	return b.sb.String()
}

// Len returns the cumulative length in bytes.
func (b *Buffer) Len() int {
	return b.sb.Len()
}

// Reset clears the buffer for a new exchange.
func (b *Buffer) Reset() {
	b.sb.Reset()
}

// DisplayString returns the text capped at limit bytes for display, and
// whether the cap was applied. A limit <= 0 means no cap. The cut is
// backed off to a rune boundary so a multi-byte character is never split.
func (b *Buffer) DisplayString(limit int) (string, bool) {
	s := b.sb.String()
	if limit <= 0 || len(s) <= limit {
		return s, false
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}

// isRuneStart reports whether b is the first byte of a UTF-8 rune.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
