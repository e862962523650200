// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract_test

import (
	"strings"
	"testing"

	"github.com/jeranaias/docchat-tui/internal/extract"
)

// chunked splits s into delta-sized pieces to simulate a token stream.
func chunked(s string, size int) []string {
	var out []string
	for i := 0; i < len(s); i += size {
		out = append(out, s[i:min(i+size, len(s))])
	}
	return out
}

// TestScannerMatchesExtract verifies the incremental scanner agrees with
// one-shot extraction at every prefix, for a range of delta sizes.
func TestScannerMatchesExtract(t *testing.T) {
	replies := []string{
		"abc ```html <p>hi</p> ``` def",
		"Here:\n```html\n<h1>A</h1>\n<p>B</p>\n```\ntail",
		"```json\n{\"title\":\"T\",\"steps\":[\"a\",\"b\"]}\n```",
		"no fences at all",
		"open only ```html <div>partial",
		"``` bare fence then ```html\n<p>x</p>\n```",
		// Longer tags that only diverge at the word boundary: a
		// one-byte delta stream splits the marker right before the
		// disambiguating character.
		"x ```json5 {not json} ``` y ```json\n{\"a\":1}\n```",
		"```htmlish nope ``` then ```html\n<p>q</p>\n```",
		"trailing opener only: ```json",
	}

	for _, reply := range replies {
		for _, size := range []int{1, 2, 3, 7, 64} {
			for _, tag := range []string{extract.TagHTML, extract.TagJSON} {
				sc := extract.NewScanner(tag)
				var text string
				for _, delta := range chunked(reply, size) {
					text += delta
					sc.Write(delta)

					want, wantOK := extract.Extract(text, tag)
					got, gotOK := sc.Result()
					if wantOK != gotOK {
						t.Fatalf("tag %s size %d text %q: ok mismatch (extract %v, scanner %v)",
							tag, size, text, wantOK, gotOK)
					}
					if wantOK && (got.Content != want.Content || got.Closed != want.Closed) {
						t.Fatalf("tag %s size %d text %q: extract %+v, scanner %+v",
							tag, size, text, want, got)
					}
				}
			}
		}
	}
}

// TestScannerSingleTransition verifies exactly one open-to-closed
// transition per block.
func TestScannerSingleTransition(t *testing.T) {
	reply := "x\n```html\n<p>body</p>\n```\nmore text after the block\n"
	sc := extract.NewScanner(extract.TagHTML)

	transitions := 0
	wasClosed := false
	for _, delta := range chunked(reply, 2) {
		sc.Write(delta)
		if sc.Closed() && !wasClosed {
			transitions++
			wasClosed = true
		}
		if wasClosed && !sc.Closed() {
			t.Fatal("scanner reopened a closed block")
		}
	}
	if transitions != 1 {
		t.Errorf("expected exactly 1 transition, got %d", transitions)
	}

	res, ok := sc.Result()
	if !ok || !res.Closed || res.Content != "<p>body</p>" {
		t.Errorf("unexpected final result: %+v ok=%v", res, ok)
	}
}

// TestScannerOpenGrowth verifies prefix-consistent growth while open.
func TestScannerOpenGrowth(t *testing.T) {
	reply := "```html\n<ul><li>one</li><li>two</li></ul>"
	sc := extract.NewScanner(extract.TagHTML)

	var prev string
	for _, delta := range chunked(reply, 3) {
		sc.Write(delta)
		res, ok := sc.Result()
		if !ok {
			continue
		}
		if res.Closed {
			t.Fatal("block should never close in this input")
		}
		if !strings.HasPrefix(res.Content, prev) {
			t.Fatalf("content %q does not extend %q", res.Content, prev)
		}
		prev = res.Content
	}
	if prev != "<ul><li>one</li><li>two</li></ul>" {
		t.Errorf("final open content = %q", prev)
	}
}

// TestScannerReset verifies a reset scanner behaves like a fresh one.
func TestScannerReset(t *testing.T) {
	sc := extract.NewScanner(extract.TagJSON)
	sc.Write("```json\n{\"title\":\"old\"}\n```")
	if !sc.Closed() {
		t.Fatal("expected closed before reset")
	}

	sc.Reset()
	if _, ok := sc.Result(); ok {
		t.Error("expected no result after reset")
	}
	sc.Write("```json\n{\"title\":\"new\",\"steps\":[\"s\"]}\n```")
	res, ok := sc.Result()
	if !ok || !res.Closed {
		t.Fatal("expected closed block after reset+write")
	}
	if !strings.Contains(res.Content, "new") {
		t.Errorf("stale content after reset: %q", res.Content)
	}
}

// TestDisplayTextMatchesStrip verifies the span-driven display text
// agrees with chained StripBlock at every prefix of a streamed reply.
func TestDisplayTextMatchesStrip(t *testing.T) {
	replies := []string{
		"intro ```json\n{\"title\":\"T\",\"steps\":[\"a\"]}\n``` mid ```html\n<p>x</p>\n``` outro",
		"doc first:\n```html\n<h1>R</h1>\n```\nthen ```json\n{\"a\":1}\n```",
		"open doc ```html\n<h1>Growing",
		"open plan ```json\n{\"title\":\"partial",
		"plain prose, no fences",
		"dangling opener ```html",
		"dangling opener ```json",
	}

	for _, reply := range replies {
		for _, size := range []int{1, 3, 16} {
			sh := extract.NewScanner(extract.TagHTML)
			sj := extract.NewScanner(extract.TagJSON)
			var text string
			for _, delta := range chunked(reply, size) {
				text += delta
				sh.Write(delta)
				sj.Write(delta)

				want := extract.StripBlock(extract.StripBlock(text, extract.TagHTML), extract.TagJSON)
				got := extract.DisplayText(text, sh, sj)
				if got != want {
					t.Fatalf("size %d text %q:\n strip   %q\n display %q", size, text, want, got)
				}
			}
		}
	}
}

// TestScannerSpan verifies span bounds for open and closed blocks.
func TestScannerSpan(t *testing.T) {
	sc := extract.NewScanner(extract.TagHTML)
	sc.Write("ab ```html\n<p>x")
	start, end, ok := sc.Span()
	if !ok || start != 3 || end != sc.Len() {
		t.Fatalf("open span = (%d, %d, %v), want (3, %d, true)", start, end, ok, sc.Len())
	}

	sc.Write("</p>\n``` tail")
	start, end, ok = sc.Span()
	if !ok || start != 3 {
		t.Fatalf("closed span start = (%d, %v), want (3, true)", start, ok)
	}
	full := "ab ```html\n<p>x</p>\n``` tail"
	if got := full[:start] + full[end:]; got != "ab  tail" {
		t.Errorf("excising closed span leaves %q", got)
	}
}
