// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// =============================================================================
// PRINT EXPORTER
// =============================================================================

// PrintExporter wraps a document fragment in a standalone page with
// embedded CSS, sized for the browser print dialog.
type PrintExporter struct {
	options *Options
}

// NewPrintExporter creates a print exporter.
func NewPrintExporter(opts *Options) *PrintExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &PrintExporter{options: opts}
}

// Export converts a document to a standalone HTML page.
func (e *PrintExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if strings.TrimSpace(doc.BodyHTML) == "" {
		return nil, fmt.Errorf("document has no content")
	}

	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(doc.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"docchat-tui\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", created.Format(time.RFC3339)))
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")
	sb.WriteString("        <main class=\"document\">\n")
	sb.WriteString(doc.BodyHTML)
	sb.WriteString("\n        </main>\n")
	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Generated on %s</p>\n", formatTimestamp(created)))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *PrintExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *PrintExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

// getCSS returns the embedded stylesheet. It styles the same tag and
// class vocabulary the Word exporter substitutes, plus print rules.
func (e *PrintExporter) getCSS() string {
	return `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --accent-blue: #0366d6;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --accent-blue: #7aa2f7;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 820px;
            margin: 0 auto;
        }

        .document { padding: 24px 0; }

        .document h1 { font-size: 28px; margin: 24px 0 12px; }
        .document h2 { font-size: 22px; margin: 20px 0 10px; }
        .document h3 { font-size: 18px; margin: 16px 0 8px; }
        .document p  { margin-bottom: 12px; }
        .document ul, .document ol { margin: 0 0 12px 24px; }

        .document table {
            border-collapse: collapse;
            width: 100%;
            margin: 12px 0;
        }

        .document th, .document td {
            border: 1px solid var(--border-color);
            padding: 6px 10px;
            text-align: left;
        }

        .document th { background: var(--bg-secondary); }

        .badge {
            display: inline-block;
            padding: 2px 8px;
            border-radius: 4px;
            font-size: 13px;
            font-weight: 600;
        }
        .badge-green { background: #d1f0d1; color: #1a6b1a; }
        .badge-red   { background: #f5d3d3; color: #8f1f1f; }
        .badge-blue  { background: #d3e3f5; color: #1f4d8f; }
        .badge-amber { background: #f7ecc9; color: #7a5c0f; }
        .badge-gray  { background: #e4e4e4; color: #444444; }

        .callout {
            border-left: 4px solid var(--accent-blue);
            background: var(--bg-secondary);
            padding: 8px 12px;
            margin: 12px 0;
        }
        .callout-warn { border-left-color: #b5850f; background: #fbf7ea; }

        pre, code { font-family: var(--font-mono); font-size: 14px; }

        pre {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 12px;
            overflow-x: auto;
            margin: 12px 0;
        }

        .footer {
            padding: 20px 0;
            text-align: center;
            font-size: 14px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
        }

        @media print {
            body { padding: 0; background: #ffffff; color: #000000; }
            .footer { display: none; }
            .document table, .document pre, .callout { page-break-inside: avoid; }
        }
    </style>
`
}
