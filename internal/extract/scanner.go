// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"sort"
	"strings"
)

// =============================================================================
// INCREMENTAL SCANNER
// =============================================================================

// Scanner is the incremental form of Extract. It owns a growing copy of
// the reply text and remembers how far it has already searched, so feeding
// it many small deltas costs O(n) overall instead of rescanning the whole
// buffer on every delta.
//
// The scanner moves through three phases: seeking the opening fence,
// inside an open block, and closed. Exactly one open-to-closed transition
// happens per block; after that the result is stable and further writes
// only grow the recorded text.
//
// Scanner is not safe for concurrent use; stream consumption is
// single-threaded by design.
type Scanner struct {
	tag string

	// PERFORMANCE: strings.Builder avoids quadratic append cost
	buf strings.Builder

	// phase of the scan
	phase scanPhase

	// searchFrom is the lowest offset the next scan must revisit. It
	// lags the buffer end by enough bytes that a fence marker split
	// across two deltas is still found.
	searchFrom int

	// openAt is the offset of the opening fence, valid once the phase
	// has left phaseSeeking.
	openAt int

	// bodyStart is the offset of the block body, valid once anchored.
	bodyStart int

	// anchored is set once bodyStart is final. Until then the opener's
	// trailing whitespace run may still be arriving.
	anchored bool

	// bodyEnd is the offset just before the closing fence, valid once
	// phase is phaseClosed.
	bodyEnd int
}

type scanPhase int

const (
	phaseSeeking scanPhase = iota

	// phaseTentative - the opening marker sits flush against the buffer
	// end, so the byte that decides the tag's word boundary ("json" vs
	// "json5") has not arrived. The block reads as open and empty, which
	// is what whole-buffer extraction says about such a text, but the
	// commitment can still be withdrawn.
	phaseTentative

	phaseOpen
	phaseClosed
)

// NewScanner creates an incremental extractor for one tag.
func NewScanner(tag string) *Scanner {
	return &Scanner{tag: tag}
}

// Write appends a delta and advances the scan.
func (s *Scanner) Write(delta string) {
	s.buf.WriteString(delta)
	s.scan()
}

// Result reports the current extraction state. ok is false until an
// opening fence has been seen.
func (s *Scanner) Result() (Result, bool) {
	text := s.buf.String()
	switch s.phase {
	case phaseSeeking:
		return Result{}, false
	case phaseTentative:
		return Result{Content: "", Closed: false}, true
	case phaseOpen:
		return Result{Content: text[s.bodyStart:], Closed: false}, true
	default:
		return Result{Content: strings.TrimSpace(text[s.bodyStart:s.bodyEnd]), Closed: true}, true
	}
}

// Span returns the byte range the block occupies in the written text:
// start is the opening fence offset, end is just past the closing fence
// while closed and the buffer end while still open. ok is false until
// an opening fence has been seen.
func (s *Scanner) Span() (start, end int, ok bool) {
	switch s.phase {
	case phaseSeeking:
		return 0, 0, false
	case phaseClosed:
		return s.openAt, s.bodyEnd + len(fence), true
	default:
		return s.openAt, s.buf.Len(), true
	}
}

// Closed reports whether the block has fully arrived.
func (s *Scanner) Closed() bool {
	return s.phase == phaseClosed
}

// Reset returns the scanner to its initial state for a new reply.
func (s *Scanner) Reset() {
	s.buf.Reset()
	s.phase = phaseSeeking
	s.searchFrom = 0
	s.openAt = 0
	s.bodyStart = 0
	s.anchored = false
	s.bodyEnd = 0
}

// Len returns the number of bytes written so far.
func (s *Scanner) Len() int {
	return s.buf.Len()
}

// =============================================================================
// LIVE DISPLAY
// =============================================================================

// DisplayText renders the scanned text for live display: closed blocks
// are excised, an unterminated html block is cut at its opener, and an
// unterminated json block is left in place. text must be the same text
// the scanners have consumed. The result equals chaining StripBlock for
// each scanner's tag, but costs only the slice copy - the spans come
// from the incremental scan, so nothing is rescanned per refresh.
func DisplayText(text string, scanners ...*Scanner) string {
	type span struct {
		start, end int
		open       bool
	}
	var spans []span
	for _, s := range scanners {
		start, end, ok := s.Span()
		if !ok {
			continue
		}
		open := !s.Closed()
		if open && s.tag == TagJSON {
			// Unterminated json stays in place until it closes.
			continue
		}
		spans = append(spans, span{start: start, end: end, open: open})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	prev := 0
	for _, sp := range spans {
		if sp.start < prev {
			// Nested inside an already-removed block.
			continue
		}
		if sp.open {
			// Everything from the opener on is still arriving.
			return strings.TrimRight(b.String()+text[prev:sp.start], " \t\r\n")
		}
		b.WriteString(text[prev:sp.start])
		prev = sp.end
	}
	b.WriteString(text[prev:])
	return b.String()
}

// scan advances the state machine over the unexamined tail of the buffer.
func (s *Scanner) scan() {
	text := s.buf.String()

	for s.phase == phaseSeeking || s.phase == phaseTentative {
		if s.phase == phaseTentative {
			if s.bodyStart >= len(text) {
				// The boundary byte has not arrived.
				return
			}
			if isTagChar(text[s.bodyStart]) {
				// The tag kept going ("json" became "json5"); this was
				// never an opener. Resume seeking past the marker.
				s.phase = phaseSeeking
				s.searchFrom = s.bodyStart
				continue
			}
			s.phase = phaseOpen
			break
		}

		open := findOpenFence(text, s.tag, s.searchFrom)
		if open < 0 {
			s.searchFrom = max(0, len(text)-(len(fence)+len(s.tag))+1)
			return
		}
		s.openAt = open
		s.bodyStart = open + len(fence) + len(s.tag)
		if s.bodyStart >= len(text) {
			s.phase = phaseTentative
			s.searchFrom = open
			return
		}
		s.phase = phaseOpen
		break
	}

	// Consume the opener's trailing whitespace run: spaces up to and
	// including at most one newline. It may span several deltas.
	if s.phase == phaseOpen && !s.anchored {
		for s.bodyStart < len(text) {
			c := text[s.bodyStart]
			if c == '\n' {
				s.bodyStart++
				s.anchored = true
				break
			}
			if c == ' ' || c == '\t' || c == '\r' {
				s.bodyStart++
				continue
			}
			s.anchored = true
			break
		}
		if s.searchFrom < s.bodyStart {
			s.searchFrom = s.bodyStart
		}
	}

	if s.phase == phaseOpen && s.anchored {
		close := strings.Index(text[s.searchFrom:], fence)
		if close < 0 {
			s.searchFrom = max(s.bodyStart, len(text)-len(fence)+1)
			return
		}
		s.bodyEnd = s.searchFrom + close
		s.phase = phaseClosed
	}
}
