// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit      key.Binding
	Cancel      key.Binding
	Quit        key.Binding
	Attach      key.Binding
	ExportWord  key.Binding
	ExportPrint key.Binding
	ExportChat  key.Binding
	NewChat     key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Approve     key.Binding
	Reject      key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop reply"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("C-a", "attach file"),
		),
		ExportWord: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export document (Word)"),
		),
		ExportPrint: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "export document (print)"),
		),
		ExportChat: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "export transcript"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new conversation"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Approve: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "approve plan"),
		),
		Reject: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "reject plan"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer hint line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Attach, k.ExportWord, k.Cancel, k.Quit}
}
