// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/docchat-tui/internal/chat"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// TranscriptDocument renders a conversation into a Document using the
// same fragment vocabulary the generator emits, so either exporter can
// take it from there. Fenced code in replies is syntax-highlighted
// with chroma.
func TranscriptDocument(title string, messages []chat.Message) (*Document, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)))
	for i := range messages {
		sb.WriteString(renderTranscriptMessage(&messages[i]))
	}

	return &Document{
		Title:     title,
		BodyHTML:  sb.String(),
		CreatedAt: time.Now(),
	}, nil
}

func renderTranscriptMessage(msg *chat.Message) string {
	var sb strings.Builder

	label := "You"
	badge := "badge badge-blue"
	if msg.Role == chat.RoleModel {
		label = "Model"
		badge = "badge badge-green"
	}
	if msg.IsError {
		badge = "badge badge-red"
	}

	sb.WriteString("<div class=\"callout\">\n")
	sb.WriteString(fmt.Sprintf("<p><span class=\"%s\">%s</span></p>\n", badge, label))
	sb.WriteString(formatProse(msg.Text))
	if msg.Plan != nil {
		sb.WriteString(fmt.Sprintf("<p><span class=\"badge badge-amber\">Plan</span> %s (%d steps)</p>\n",
			html.EscapeString(msg.Plan.Title), msg.Plan.StepCount()))
	}
	sb.WriteString("</div>\n")

	return sb.String()
}

// =============================================================================
// PROSE FORMATTING
// =============================================================================

var codeBlockRe = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")

// formatProse converts reply text to fragment HTML: fenced code blocks
// become highlighted <pre> sections, everything else becomes escaped
// paragraphs.
func formatProse(text string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range codeBlockRe.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(paragraphs(text[last:loc[0]]))
		lang := text[loc[2]:loc[3]]
		code := strings.TrimSpace(text[loc[4]:loc[5]])
		sb.WriteString(highlightHTML(code, lang))
		last = loc[1]
	}
	sb.WriteString(paragraphs(text[last:]))
	return sb.String()
}

func paragraphs(text string) string {
	var sb strings.Builder
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.ReplaceAll(html.EscapeString(block), "\n", "<br>"))
		sb.WriteString("</p>\n")
	}
	return sb.String()
}

// highlightHTML applies chroma highlighting and returns an HTML <pre>
// block. Falls back to an escaped plain block when anything fails.
func highlightHTML(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("github")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("html")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "<pre><code>" + html.EscapeString(code) + "</code></pre>\n"
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "<pre><code>" + html.EscapeString(code) + "</code></pre>\n"
	}
	return buf.String() + "\n"
}
