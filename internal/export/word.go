// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// =============================================================================
// WORD EXPORTER
// =============================================================================

// WordExporter converts a document fragment into a .doc-compatible HTML
// file. Word ignores most stylesheet rules in downloaded HTML, so the
// utility classes the generator emits are rewritten to inline styles
// through a fixed substitution table; bare structural tags (headings,
// tables) get inline styles too. The rewrite preserves all content and
// every class in the table, so round-tripping the producible vocabulary
// loses nothing.
type WordExporter struct{}

// NewWordExporter creates a Word exporter.
func NewWordExporter() *WordExporter {
	return &WordExporter{}
}

// classStyles is the substitution table: every utility class the
// document generator is prompted to use maps to an inline print style.
var classStyles = map[string]string{
	"badge":        "display:inline-block;padding:2px 8px;border-radius:4px;font-size:10pt;font-weight:bold;",
	"badge-green":  "background:#d1f0d1;color:#1a6b1a;",
	"badge-red":    "background:#f5d3d3;color:#8f1f1f;",
	"badge-blue":   "background:#d3e3f5;color:#1f4d8f;",
	"badge-amber":  "background:#f7ecc9;color:#7a5c0f;",
	"badge-gray":   "background:#e4e4e4;color:#444444;",
	"callout":      "border-left:4px solid #1f4d8f;background:#f2f6fb;padding:8px 12px;margin:8px 0;",
	"callout-warn": "border-left-color:#b5850f;background:#fbf7ea;",
}

// tagStyles inlines print styling on structural tags Word would
// otherwise render unstyled.
var tagStyles = map[string]string{
	"h1":    "font-size:20pt;font-weight:bold;margin:12pt 0 6pt 0;",
	"h2":    "font-size:16pt;font-weight:bold;margin:10pt 0 5pt 0;",
	"h3":    "font-size:13pt;font-weight:bold;margin:8pt 0 4pt 0;",
	"table": "border-collapse:collapse;width:100%;margin:8pt 0;",
	"th":    "border:1pt solid #999;padding:4pt 6pt;background:#eef0f3;text-align:left;",
	"td":    "border:1pt solid #999;padding:4pt 6pt;",
}

var (
	classAttrRe = regexp.MustCompile(`class="([^"]*)"`)
	openTagRe   = regexp.MustCompile(`<(h1|h2|h3|table|th|td)(\s[^>]*)?>`)
)

// Export converts a document to Word-compatible HTML.
func (e *WordExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if strings.TrimSpace(doc.BodyHTML) == "" {
		return nil, fmt.Errorf("document has no content")
	}

	body := InlineStyles(doc.BodyHTML)

	var sb strings.Builder
	sb.WriteString(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">` + "\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(doc.Title)))
	// Print-view page setup for Word.
	sb.WriteString("    <!--[if gte mso 9]><xml><w:WordDocument><w:View>Print</w:View><w:Zoom>100</w:Zoom></w:WordDocument></xml><![endif]-->\n")
	sb.WriteString("    <style>@page { size: 21cm 29.7cm; margin: 2cm; } body { font-family: Calibri, Arial, sans-serif; font-size: 11pt; }</style>\n")
	sb.WriteString("</head>\n")
	sb.WriteString("<body>\n")
	sb.WriteString(body)
	sb.WriteString("\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Word documents.
func (e *WordExporter) FileExtension() string {
	return ".doc"
}

// MimeType returns the MIME type Word associates with HTML documents.
func (e *WordExporter) MimeType() string {
	return "application/msword"
}

// =============================================================================
// STYLE SUBSTITUTION
// =============================================================================

// InlineStyles rewrites class attributes and structural tags to carry
// inline styles per the substitution tables. Classes outside the table
// are kept as-is so nothing is dropped.
func InlineStyles(fragment string) string {
	// Structural tags first: adds style= only when the tag has none.
	fragment = openTagRe.ReplaceAllStringFunc(fragment, func(match string) string {
		parts := openTagRe.FindStringSubmatch(match)
		tag, attrs := parts[1], parts[2]
		if strings.Contains(attrs, "style=") {
			return match
		}
		return fmt.Sprintf(`<%s%s style="%s">`, tag, attrs, tagStyles[tag])
	})

	// Utility classes: accumulate the mapped styles in class order.
	return classAttrRe.ReplaceAllStringFunc(fragment, func(match string) string {
		classes := strings.Fields(classAttrRe.FindStringSubmatch(match)[1])
		var style strings.Builder
		for _, c := range classes {
			style.WriteString(classStyles[c])
		}
		if style.Len() == 0 {
			return match
		}
		return fmt.Sprintf(`%s style="%s"`, match, style.String())
	})
}

// KnownClass reports whether a utility class is in the substitution
// table.
func KnownClass(class string) bool {
	_, ok := classStyles[class]
	return ok
}
