// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"testing"

	"github.com/jeranaias/docchat-tui/internal/chat"
)

// producibleFragment exercises every tag and utility class the document
// generator is prompted to emit.
const producibleFragment = `<h1>Quarterly Report</h1>
<h2>Summary</h2>
<p>Revenue is <span class="badge badge-green">up 12%</span> while churn is
<span class="badge badge-red">elevated</span>.</p>
<div class="callout"><p>Key takeaway for the board.</p></div>
<div class="callout callout-warn"><p>Forecast carries risk.</p></div>
<h3>Detail</h3>
<table>
<tr><th>Region</th><th>Status</th></tr>
<tr><td>EMEA</td><td><span class="badge badge-blue">on track</span></td></tr>
<tr><td>APAC</td><td><span class="badge badge-amber">watch</span></td></tr>
<tr><td>LATAM</td><td><span class="badge badge-gray">n/a</span></td></tr>
</table>`

// TestWordExportLossless: every piece of visible content and every
// utility class survives the inline-style rewrite.
func TestWordExportLossless(t *testing.T) {
	out, err := NewWordExporter().Export(&Document{Title: "Report", BodyHTML: producibleFragment})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got := string(out)

	for _, content := range []string{
		"Quarterly Report", "Summary", "up 12%", "elevated",
		"Key takeaway for the board.", "Forecast carries risk.",
		"Region", "EMEA", "on track", "watch", "n/a",
	} {
		if !strings.Contains(got, content) {
			t.Errorf("content lost in conversion: %q", content)
		}
	}

	// Classes stay present and each gains an inline style.
	for _, class := range []string{
		"badge-green", "badge-red", "badge-blue", "badge-amber", "badge-gray",
		"callout", "callout-warn",
	} {
		if !strings.Contains(got, class) {
			t.Errorf("class dropped: %q", class)
		}
		if !KnownClass(class) {
			t.Errorf("class %q missing from the substitution table", class)
		}
	}
	if !strings.Contains(got, `class="badge badge-green" style="`) {
		t.Error("badge classes did not gain inline styles")
	}
	if !strings.Contains(got, `<table style="`) || !strings.Contains(got, `<th style="`) {
		t.Error("structural tags did not gain inline styles")
	}
}

// TestInlineStylesOrderAndUnknowns: styles accumulate in class order
// and unmapped classes pass through untouched.
func TestInlineStylesOrderAndUnknowns(t *testing.T) {
	got := InlineStyles(`<span class="badge badge-red">x</span>`)
	badgeStyle := classStyles["badge"]
	redStyle := classStyles["badge-red"]
	if !strings.Contains(got, badgeStyle+redStyle) {
		t.Errorf("styles out of order: %q", got)
	}

	unknown := `<span class="mystery">x</span>`
	if InlineStyles(unknown) != unknown {
		t.Errorf("unknown class mutated: %q", InlineStyles(unknown))
	}
}

// TestPrintExportWrapsFragment verifies the standalone page shape.
func TestPrintExportWrapsFragment(t *testing.T) {
	out, err := NewPrintExporter(nil).Export(&Document{Title: "R&D <Notes>", BodyHTML: producibleFragment})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got := string(out)

	if !strings.HasPrefix(got, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if !strings.Contains(got, "<title>R&amp;D &lt;Notes&gt;</title>") {
		t.Errorf("title not escaped: %q", got[:200])
	}
	if !strings.Contains(got, producibleFragment) {
		t.Error("fragment must be embedded verbatim")
	}
	if !strings.Contains(got, "@media print") {
		t.Error("print rules missing")
	}
}

// TestExportRejectsEmptyDocument guards both exporters.
func TestExportRejectsEmptyDocument(t *testing.T) {
	for _, e := range []Exporter{NewWordExporter(), NewPrintExporter(nil)} {
		if _, err := e.Export(nil); err == nil {
			t.Errorf("%T: nil document accepted", e)
		}
		if _, err := e.Export(&Document{Title: "t", BodyHTML: "   "}); err == nil {
			t.Errorf("%T: empty document accepted", e)
		}
	}
}

// TestTranscriptDocument renders roles, errors, and fenced code.
func TestTranscriptDocument(t *testing.T) {
	msgs := []chat.Message{
		{Role: chat.RoleUser, Text: "show me a loop"},
		{Role: chat.RoleModel, Text: "Sure:\n\n```go\nfor i := 0; i < 3; i++ {\n}\n```\n\nDone."},
		{Role: chat.RoleModel, Text: "partial", IsError: true},
	}

	doc, err := TranscriptDocument("Session", msgs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(doc.BodyHTML, "show me a loop") {
		t.Error("user text missing")
	}
	if !strings.Contains(doc.BodyHTML, "badge-red") {
		t.Error("errored reply should carry the error badge")
	}
	if strings.Contains(doc.BodyHTML, "```") {
		t.Error("fenced code must be converted, not passed through")
	}
	if !strings.Contains(doc.BodyHTML, "<pre") {
		t.Error("code block missing from rendering")
	}
	if !strings.Contains(doc.BodyHTML, "Done.") {
		t.Error("prose after the code block lost")
	}

	if _, err := TranscriptDocument("Empty", nil); err == nil {
		t.Error("empty transcript accepted")
	}
}

// TestSanitizeFilename covers path-hostile titles.
func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Quarterly Report":  "Quarterly_Report",
		`a/b\c:d*e?f"g<h>i`: "a-b-c-d-e-f-g-h-i",
		"":                  "document",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); !strings.HasPrefix(got, want) {
			t.Errorf("sanitizeFilename(%q) = %q, want prefix %q", in, got, want)
		}
	}
}
