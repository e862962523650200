// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import "strings"

// =============================================================================
// TAGS
// =============================================================================

// Tags recognized in model output.
const (
	// TagHTML marks a generated document artifact.
	TagHTML = "html"

	// TagJSON marks a structured payload, in practice a work plan.
	TagJSON = "json"
)

// fence is the block delimiter.
const fence = "```"

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of extracting one fenced block.
type Result struct {
	// Content is the block body. While the fence is still open this is
	// everything received so far; once closed it is the final body with
	// surrounding whitespace trimmed.
	Content string

	// Closed reports whether the closing fence has been seen.
	Closed bool
}

// =============================================================================
// ONE-SHOT EXTRACTION
// =============================================================================

// Extract finds the first fenced block of the given tag in text.
// The second return value is false when no opening fence exists.
//
// If the closing fence has not arrived yet (the stream is incomplete),
// the Result carries the content received so far with Closed=false.
// Re-running Extract on a strictly-growing text returns monotonically
// growing content until the close fence appears, after which the content
// is stable.
func Extract(text, tag string) (Result, bool) {
	open := findOpenFence(text, tag, 0)
	if open < 0 {
		return Result{}, false
	}

	start := contentStart(text, open, tag)
	if start > len(text) {
		// Opener seen but content has not started arriving yet.
		return Result{Content: "", Closed: false}, true
	}

	close := strings.Index(text[start:], fence)
	if close < 0 {
		return Result{Content: text[start:], Closed: false}, true
	}

	body := strings.TrimSpace(text[start : start+close])
	return Result{Content: body, Closed: true}, true
}

// findOpenFence returns the index of the first opening fence for tag at or
// after from, or -1. The marker is ``` immediately followed by the tag
// name; the tag must end at a word boundary so "json" does not match
// "json5".
func findOpenFence(text, tag string, from int) int {
	marker := fence + tag
	for {
		i := strings.Index(text[from:], marker)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(marker)
		if end >= len(text) || !isTagChar(text[end]) {
			return i
		}
		from = end
	}
}

// contentStart returns the offset of the block body: just past the opening
// marker and the whitespace run that follows it.
func contentStart(text string, open int, tag string) int {
	i := open + len(fence) + len(tag)
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\r' || text[i] == '\n') {
		i++
		// The body begins on the line after the opener when one exists.
		if text[i-1] == '\n' {
			break
		}
	}
	return i
}

func isTagChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// =============================================================================
// STRIPPING
// =============================================================================

// StripBlock removes exactly one fenced block of the given tag from text:
// the first fully closed occurrence when one exists, otherwise an
// unterminated trailing occurrence (opener through end of text).
//
// JSON blocks are only ever removed in closed form: plans are read once
// fully closed, and a half-open JSON block is left in place until then.
// Stripping text that contains no such block is a no-op, which makes the
// operation idempotent.
//
// The point of stripping is to keep a markdown renderer from seeing a
// half-open multi-thousand-character fence run mid-stream, which degrades
// rendering badly.
func StripBlock(text, tag string) string {
	open := findOpenFence(text, tag, 0)
	if open < 0 {
		return text
	}

	start := contentStart(text, open, tag)
	if start >= len(text) {
		if tag == TagJSON {
			return text
		}
		return strings.TrimRight(text[:open], " \t\r\n")
	}

	close := strings.Index(text[start:], fence)
	if close < 0 {
		// Unterminated trailing block.
		if tag == TagJSON {
			return text
		}
		return strings.TrimRight(text[:open], " \t\r\n")
	}

	end := start + close + len(fence)
	return text[:open] + text[end:]
}
