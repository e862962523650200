// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/chat"
	"github.com/jeranaias/docchat-tui/internal/extract"
	"github.com/jeranaias/docchat-tui/internal/util"
)

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	if m.state == statePicking {
		return m.viewPicker()
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.state == stateApproval && m.pendingPlan != nil {
		b.WriteString(m.viewPlanOverlay())
		b.WriteString("\n")
	} else {
		b.WriteString(m.theme.InputBox.Width(m.width).Render(m.input.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.viewFooter())
	return b.String()
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) viewPicker() string {
	header := m.theme.Status.Render("Pick a file to attach (Esc to cancel)")
	return header + "\n\n" + m.picker.View()
}

func (m Model) viewPlanOverlay() string {
	p := m.pendingPlan
	var b strings.Builder
	b.WriteString(m.theme.PlanTitle.Render(p.Title))
	b.WriteString("\n\n")
	for i, step := range p.Steps {
		b.WriteString(m.theme.PlanStep.Render(fmt.Sprintf("%d. %s", i+1, step)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Hint.Render("Approve this plan? [y/n]"))
	return m.theme.PlanBox.Width(min(m.width-4, 76)).Render(b.String())
}

func (m Model) viewFooter() string {
	var spin string
	if m.state == stateStreaming || m.state == stateExecuting {
		spin = m.spin.View() + " "
	}

	left := m.theme.Status.Render(spin + m.status)

	var hints []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	right := m.theme.Hint.Render(strings.Join(hints, " · "))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport rebuilds the viewport content from the transcript.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, msg := range m.transcript.Messages() {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) renderMessage(msg chat.Message) string {
	var b strings.Builder

	switch {
	case msg.Role == chat.RoleUser:
		b.WriteString(m.theme.UserLabel.Render("You"))
		b.WriteString("\n")
		b.WriteString(msg.Text)
		b.WriteString("\n")
		return b.String()

	case msg.IsError:
		b.WriteString(m.theme.ErrorLabel.Render("Model"))
	default:
		b.WriteString(m.theme.ModelLabel.Render("Model"))
	}
	b.WriteString("\n")

	if msg.IsStreaming {
		// Live text renders plain; glamour only sees finished replies.
		// Document and plan fences are dropped so a half-open block
		// never floods the view. The scanners already know the block
		// bounds, so each refresh costs a slice, not a rescan.
		text := msg.Text
		if msg.ID == m.streamID {
			text = extract.DisplayText(text, m.scanHTML, m.scanJSON)
		}
		b.WriteString(util.TruncateRunesNoEllipsis(text, m.cfg.Limits.DisplayCeilingChars))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.renderFinished(msg))
	if msg.Plan != nil {
		b.WriteString(m.theme.PlanTitle.Render(fmt.Sprintf("Plan: %s (%d steps)", msg.Plan.Title, msg.Plan.StepCount())))
		b.WriteString("\n")
	}
	if msg.Stopped {
		b.WriteString(m.theme.StoppedText.Render("(stopped by user)"))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFinished renders a completed reply, caching the glamour output.
func (m *Model) renderFinished(msg chat.Message) string {
	if cached, ok := m.rendered[msg.ID]; ok {
		return cached
	}

	text := extract.StripBlock(msg.Text, extract.TagHTML)
	text = extract.StripBlock(text, extract.TagJSON)

	out := text
	if msg.IsError {
		out = m.theme.ErrorText.Render(text)
	} else if m.renderer != nil {
		if rendered, err := m.renderer.Render(text); err == nil {
			out = strings.TrimRight(rendered, "\n")
		}
	}
	out += "\n"

	m.rendered[msg.ID] = out
	return out
}
