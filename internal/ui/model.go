// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/docchat-tui/internal/chat"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/extract"
	"github.com/jeranaias/docchat-tui/internal/plan"
	"github.com/jeranaias/docchat-tui/internal/stream"
)

// =============================================================================
// UI STATE
// =============================================================================

// uiState tracks which surface owns the keyboard.
type uiState int

const (
	stateIdle uiState = iota
	stateStreaming
	stateApproval
	stateExecuting
	statePicking
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	cfg   *config.Config
	theme Theme
	keys  KeyMap

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model
	picker   filepicker.Model
	renderer *glamour.TermRenderer

	session      *chat.Session
	orchestrator *plan.Orchestrator
	transcript   *chat.Transcript
	coalescer    *stream.Coalescer

	// scanHTML and scanJSON track the streaming reply's fenced blocks
	// incrementally; reset per exchange (and per plan step)
	scanHTML *extract.Scanner
	scanJSON *extract.Scanner

	state    uiState
	streamID string
	cancel   context.CancelFunc
	done     chan streamDoneMsg
	events   chan planEvent

	pendingPlan *plan.Plan
	artifact    *export.Document
	status      string

	// rendered caches glamour output for finished messages
	rendered map[string]string

	width  int
	height int
	ready  bool
}

// New constructs the chat interface model.
func New(cfg *config.Config, session *chat.Session, orchestrator *plan.Orchestrator) Model {
	theme := ThemeFor(cfg.UI.Theme)

	input := textarea.New()
	input.Placeholder = "Ask about your documents..."
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	picker := filepicker.New()
	picker.AllowedTypes = nil
	picker.ShowHidden = false

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return Model{
		cfg:          cfg,
		theme:        theme,
		keys:         DefaultKeyMap(),
		input:        input,
		spin:         spin,
		picker:       picker,
		renderer:     renderer,
		session:      session,
		orchestrator: orchestrator,
		transcript:   &chat.Transcript{},
		coalescer: stream.NewCoalescer(
			cfg.Stream.BatchSize,
			time.Duration(cfg.Stream.ThrottleMs)*time.Millisecond,
		),
		scanHTML: extract.NewScanner(extract.TagHTML),
		scanJSON: extract.NewScanner(extract.TagJSON),
		state:    stateIdle,
		rendered: make(map[string]string),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// =============================================================================
// COMMANDS
// =============================================================================

// tickCmd schedules the next display refresh.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.coalescer.Interval(), func(t time.Time) tea.Msg {
		return streamTickMsg{Time: t}
	})
}

// waitStreamDone delivers the exchange result once the goroutine exits.
func waitStreamDone(ch chan streamDoneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// waitPlanEvent delivers the next plan execution event.
func waitPlanEvent(ch chan planEvent) tea.Cmd {
	return func() tea.Msg {
		return planEventMsg{event: <-ch}
	}
}

// =============================================================================
// EXCHANGE WIRING
// =============================================================================

// startExchange kicks off one streamed exchange for the given text.
func (m *Model) startExchange(text string) tea.Cmd {
	m.transcript.Append(chat.NewUserMessage(text))
	msg := chat.NewModelMessage()
	m.streamID = m.transcript.Append(msg)
	m.state = stateStreaming
	m.status = "waiting for model"
	m.scanHTML.Reset()
	m.scanJSON.Reset()
	_ = m.orchestrator.ExchangeStarted()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	done := make(chan streamDoneMsg, 1)
	m.done = done

	session := m.session
	coalescer := m.coalescer
	id := m.streamID
	go func() {
		_, err := session.Send(ctx, text, func(delta string) {
			coalescer.Write(delta)
		})
		done <- streamDoneMsg{MessageID: id, Err: err}
	}()

	return tea.Batch(m.spin.Tick, m.tickCmd(), waitStreamDone(done))
}

// startPlanRun executes an approved plan on its own goroutine, feeding
// progress back through the events channel.
func (m *Model) startPlanRun() tea.Cmd {
	m.state = stateExecuting
	m.status = "executing plan"

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	events := make(chan planEvent, 64)
	m.events = events

	orc := m.orchestrator
	coalescer := m.coalescer
	go func() {
		hooks := plan.Hooks{
			OnStepStart: func(i int, step string) {
				events <- planEvent{kind: planStepStart, stepIndex: i, stepText: step}
			},
			// Step deltas ride the same coalescer as the main exchange,
			// so one display throttle governs both. The step-end event
			// is queued only after the step's final delta is written,
			// which keeps the drain-at-end ordering safe.
			OnStepDelta: func(i int, delta string) {
				coalescer.Write(delta)
			},
			OnStepEnd: func(i int, reply string, err error) {
				events <- planEvent{kind: planStepEnd, stepIndex: i, err: err}
			},
		}
		err := orc.Approve(ctx, hooks)
		events <- planEvent{kind: planRunDone, err: err}
	}()

	return tea.Batch(m.spin.Tick, m.tickCmd(), waitPlanEvent(events))
}

// =============================================================================
// REPLY POST-PROCESSING
// =============================================================================

var h1Re = regexp.MustCompile(`<h1[^>]*>(.*?)</h1>`)

// captureArtifact records a closed document block as the current
// exportable artifact.
func (m *Model) captureArtifact(body string) {
	title := "document"
	if match := h1Re.FindStringSubmatch(body); match != nil {
		title = match[1]
	}
	m.artifact = &export.Document{
		Title:     title,
		BodyHTML:  body,
		CreatedAt: time.Now(),
	}
	m.status = fmt.Sprintf("document ready: %s", title)
}
