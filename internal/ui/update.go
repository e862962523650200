// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/attach"
	"github.com/jeranaias/docchat-tui/internal/chat"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/gemini"
	"github.com/jeranaias/docchat-tui/internal/plan"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case spinner.TickMsg:
		if m.state == stateStreaming || m.state == stateExecuting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case streamTickMsg:
		return m.handleStreamTick()

	case streamDoneMsg:
		return m.handleStreamDone(msg)

	case planEventMsg:
		return m.handlePlanEvent(msg.event)

	case attachDoneMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("attach failed: %v", msg.Err)
		} else {
			m.status = fmt.Sprintf("attached %s", msg.Name)
		}
		return m, nil

	case exportDoneMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("export failed: %v", msg.Err)
		} else {
			m.status = fmt.Sprintf("exported to %s", msg.Path)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateChildren(msg)
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	inputHeight := 4
	footerHeight := 2
	vpHeight := msg.Height - inputHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = newViewport(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 2)
	m.refreshViewport()
	return m
}

// =============================================================================
// STREAMING
// =============================================================================

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != stateStreaming && m.state != stateExecuting {
		return m, nil
	}
	// Between plan steps streamID is empty; pending deltas stay queued
	// until the step-start event lands, so nothing is misattributed.
	if m.streamID != "" {
		if content, ok := m.coalescer.Flush(); ok {
			m.scanHTML.Write(content)
			m.scanJSON.Write(content)
			m.transcript.AppendText(m.streamID, content)
			m.status = "receiving reply"
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
	}
	return m, m.tickCmd()
}

func (m Model) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	// The goroutine is finished; whatever never hit a timed flush is
	// appended now so no delta is lost.
	if content, ok := m.coalescer.ForceFlush(); ok {
		m.scanHTML.Write(content)
		m.scanJSON.Write(content)
		m.transcript.AppendText(msg.MessageID, content)
	}

	m.state = stateIdle
	m.cancel = nil
	m.streamID = ""

	switch {
	case msg.Err != nil && gemini.IsCancelled(msg.Err):
		m.transcript.Finish(msg.MessageID, false, true, "[stopped]")
		m.orchestrator.ExchangeEnded()
		m.status = "reply stopped"

	case msg.Err != nil:
		m.transcript.Finish(msg.MessageID, true, false, gemini.UserMessage(msg.Err))
		m.orchestrator.ExchangeEnded()
		m.status = "exchange failed"

	default:
		m.transcript.Finish(msg.MessageID, false, false, "")
		m.status = "ready"

		if res, ok := m.scanHTML.Result(); ok && res.Closed {
			m.captureArtifact(res.Content)
		}
		// A malformed plan payload degrades to prose with no error.
		if res, ok := m.scanJSON.Result(); ok && res.Closed {
			if p, err := plan.Parse(res.Content); err == nil {
				if err := m.orchestrator.Propose(p); err == nil {
					m.transcript.AttachPlan(msg.MessageID, p)
					m.pendingPlan = p
					m.state = stateApproval
					m.status = "plan awaiting approval"
				}
			}
		}
		if m.state != stateApproval {
			m.orchestrator.ExchangeEnded()
		}
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// PLAN EXECUTION
// =============================================================================

func (m Model) handlePlanEvent(ev planEvent) (tea.Model, tea.Cmd) {
	switch ev.kind {
	case planStepStart:
		total := 0
		if p := m.orchestrator.Plan(); p != nil {
			total = p.StepCount()
		}
		m.streamID = m.transcript.Append(chat.NewModelMessage())
		m.scanHTML.Reset()
		m.scanJSON.Reset()
		m.status = fmt.Sprintf("step %d/%d: %s", ev.stepIndex+1, total, ev.stepText)

	case planStepEnd:
		if m.streamID != "" {
			// Drain what the step's final tick never flushed.
			if content, ok := m.coalescer.ForceFlush(); ok {
				m.scanHTML.Write(content)
				m.scanJSON.Write(content)
				m.transcript.AppendText(m.streamID, content)
			}
			switch {
			case errors.Is(ev.err, plan.ErrStopped):
				// A user stop is not a failure; the partial step keeps
				// its text under a stopped marker.
				m.transcript.Finish(m.streamID, false, true, "[stopped]")
			case ev.err != nil:
				m.transcript.Finish(m.streamID, true, false, gemini.UserMessage(ev.err))
			default:
				m.transcript.Finish(m.streamID, false, false, "")
				// A step may emit a document block of its own.
				if res, ok := m.scanHTML.Result(); ok && res.Closed {
					m.captureArtifact(res.Content)
				}
			}
			m.streamID = ""
		}

	case planRunDone:
		m.state = stateIdle
		m.cancel = nil
		m.pendingPlan = nil
		switch {
		case ev.err == nil:
			m.status = "plan completed"
		case errors.Is(ev.err, plan.ErrStopped):
			m.status = "plan stopped"
		default:
			m.status = fmt.Sprintf("plan halted: %v", ev.err)
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, waitPlanEvent(m.events)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}

	switch m.state {
	case statePicking:
		return m.handlePickerKey(msg)

	case stateApproval:
		switch {
		case key.Matches(msg, m.keys.Approve):
			return m, m.startPlanRun()
		case key.Matches(msg, m.keys.Reject):
			m.orchestrator.Cancel()
			m.pendingPlan = nil
			m.state = stateIdle
			m.status = "plan discarded"
			return m, nil
		}
		return m, nil

	case stateStreaming, stateExecuting:
		if key.Matches(msg, m.keys.Cancel) && m.cancel != nil {
			m.cancel()
			m.status = "stopping"
		}
		return m, nil
	}

	// Idle.
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.startExchange(text)

	case key.Matches(msg, m.keys.Attach):
		m.state = statePicking
		if wd, err := os.Getwd(); err == nil {
			m.picker.CurrentDirectory = wd
		}
		return m, m.picker.Init()

	case key.Matches(msg, m.keys.ExportWord):
		return m, m.exportArtifact(export.NewWordExporter())

	case key.Matches(msg, m.keys.ExportPrint):
		return m, m.exportArtifact(export.NewPrintExporter(m.exportOptions()))

	case key.Matches(msg, m.keys.ExportChat):
		return m, m.exportTranscript()

	case key.Matches(msg, m.keys.NewChat):
		m.session.Reset()
		m.transcript.Reset()
		m.artifact = nil
		m.rendered = make(map[string]string)
		m.status = "new conversation"
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.state = stateIdle
		m.status = "ready"
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.state = stateIdle
		return m, m.attachFile(path)
	}
	return m, cmd
}

// =============================================================================
// ATTACH AND EXPORT COMMANDS
// =============================================================================

// attachFile reads a picked file and queues it on the session.
func (m Model) attachFile(path string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil {
			return attachDoneMsg{Name: filepath.Base(path), Err: err}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return attachDoneMsg{Name: filepath.Base(path), Err: err}
		}

		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		session.AddAttachment(attach.Attachment{
			Name:     filepath.Base(path),
			Data:     data,
			MIMEType: mimeType,
			SizeHint: info.Size(),
		})
		return attachDoneMsg{Name: filepath.Base(path)}
	}
}

func (m Model) exportOptions() *export.Options {
	dir := m.cfg.UI.ExportDir
	if dir == "" {
		dir = "."
	}
	return &export.Options{
		OutputDir:       dir,
		OpenAfterExport: false,
		Theme:           m.cfg.UI.Theme,
	}
}

// exportArtifact writes the current document through the given
// exporter.
func (m Model) exportArtifact(exporter export.Exporter) tea.Cmd {
	if m.artifact == nil {
		return func() tea.Msg {
			return exportDoneMsg{Err: fmt.Errorf("no document to export yet")}
		}
	}
	doc := m.artifact
	opts := m.exportOptions()
	return func() tea.Msg {
		path, err := export.ExportToFile(doc, exporter, opts)
		return exportDoneMsg{Path: path, Err: err}
	}
}

// exportTranscript writes the whole conversation as a print document.
func (m Model) exportTranscript() tea.Cmd {
	messages := m.transcript.Messages()
	opts := m.exportOptions()
	theme := m.cfg.UI.Theme
	return func() tea.Msg {
		doc, err := export.TranscriptDocument("Conversation", messages)
		if err != nil {
			return exportDoneMsg{Err: err}
		}
		path, err := export.ExportToFile(doc, export.NewPrintExporter(&export.Options{Theme: theme}), opts)
		return exportDoneMsg{Path: path, Err: err}
	}
}

// =============================================================================
// CHILD UPDATES
// =============================================================================

func (m Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.state == statePicking {
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
		if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
			m.state = stateIdle
			cmds = append(cmds, m.attachFile(path))
		}
		return m, tea.Batch(cmds...)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}
