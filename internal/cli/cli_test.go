// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/jeranaias/docchat-tui/internal/chat"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/plan"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		name     string
		args     string
	}{
		{"/quit", "quit", ""},
		{"/attach report.pdf", "attach", "report.pdf"},
		{"/attach  spaced path.txt", "attach", "spaced path.txt"},
		{"/EXPORT word", "export", "word"},
		{"/help", "help", ""},
	}

	for _, tt := range tests {
		name, args := parseCommand(tt.input)
		if name != tt.name || args != tt.args {
			t.Errorf("parseCommand(%q) = (%q, %q), want (%q, %q)",
				tt.input, name, args, tt.name, tt.args)
		}
	}
}

func TestAsciiStylesPassThrough(t *testing.T) {
	s := Styles{profile: termenv.Ascii}

	for _, text := range []string{"Model", "plan completed", "exported to out.doc"} {
		for _, got := range []string{
			s.UserLabel(text), s.ModelLabel(text), s.Error(text),
			s.Notice(text), s.Faint(text), s.PlanTitle(text),
		} {
			if got != text {
				t.Errorf("ascii profile altered %q to %q", text, got)
			}
		}
	}
}

func TestColoredStylesEmitANSI(t *testing.T) {
	s := Styles{profile: termenv.ANSI}
	got := s.Error("failed")
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("expected ANSI escape in %q", got)
	}
	if !strings.Contains(got, "failed") {
		t.Errorf("styled output lost its text: %q", got)
	}
}

// stoppingExchanger streams part of a reply, then reports the user's
// Ctrl+C as a context cancellation.
type stoppingExchanger struct{}

func (stoppingExchanger) Send(ctx context.Context, text string, onDelta func(string)) (string, error) {
	onDelta("half an answer")
	return "half an answer", context.Canceled
}

// TestRunPlanStoppedStepMarker: stopping a plan mid-step records the
// partial step under the stopped marker, never as an error.
func TestRunPlanStoppedStepMarker(t *testing.T) {
	orc := plan.NewOrchestrator(stoppingExchanger{})
	if err := orc.Propose(&plan.Plan{Title: "Report", Steps: []string{"draft", "polish"}}); err != nil {
		t.Fatalf("propose: %v", err)
	}

	var out bytes.Buffer
	r := &REPL{
		cfg:          config.Default(),
		orchestrator: orc,
		transcript:   &chat.Transcript{},
		out:          &out,
		styles:       Styles{profile: termenv.Ascii},
	}
	r.runPlan(context.Background())

	msgs := r.transcript.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, the second step must never start", len(msgs))
	}
	m := msgs[0]
	if m.IsError {
		t.Error("a user stop must not record as an error")
	}
	if !m.Stopped {
		t.Error("stopped flag not set")
	}
	if !strings.HasPrefix(m.Text, "half an answer") {
		t.Errorf("partial text lost: %q", m.Text)
	}
	if !strings.HasSuffix(m.Text, "[stopped]") {
		t.Errorf("stopped marker missing: %q", m.Text)
	}
	if !strings.Contains(out.String(), "plan stopped") {
		t.Errorf("missing stop notice in output: %q", out.String())
	}
}

func TestCaptureArtifactTitle(t *testing.T) {
	match := h1Re.FindStringSubmatch(`<div><h1 class="title">Quarterly Report</h1><p>body</p></div>`)
	if match == nil || match[1] != "Quarterly Report" {
		t.Fatalf("h1 title extraction failed: %v", match)
	}
	if h1Re.FindStringSubmatch("<p>no heading</p>") != nil {
		t.Error("matched a fragment with no h1")
	}
}
