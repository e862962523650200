// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the lipgloss styles for one color scheme.
type Theme struct {
	UserLabel   lipgloss.Style
	ModelLabel  lipgloss.Style
	ErrorLabel  lipgloss.Style
	ErrorText   lipgloss.Style
	StoppedText lipgloss.Style
	Status      lipgloss.Style
	Hint        lipgloss.Style
	PlanTitle   lipgloss.Style
	PlanStep    lipgloss.Style
	PlanBox     lipgloss.Style
	InputBox    lipgloss.Style
	Attachment  lipgloss.Style
}

// DarkTheme returns the default dark color scheme.
func DarkTheme() Theme {
	return Theme{
		UserLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true),
		ModelLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true),
		ErrorLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		ErrorText:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")),
		StoppedText: lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Italic(true),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6")),
		Hint:        lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")),
		PlanTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7")).Bold(true),
		PlanStep:    lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5")),
		PlanBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#bb9af7")).
			Padding(1, 2),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#414868")),
		Attachment: lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")),
	}
}

// LightTheme returns the light color scheme.
func LightTheme() Theme {
	return Theme{
		UserLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("#0366d6")).Bold(true),
		ModelLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#22863a")).Bold(true),
		ErrorLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#d73a49")).Bold(true),
		ErrorText:   lipgloss.NewStyle().Foreground(lipgloss.Color("#d73a49")),
		StoppedText: lipgloss.NewStyle().Foreground(lipgloss.Color("#6a737d")).Italic(true),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("#586069")),
		Hint:        lipgloss.NewStyle().Foreground(lipgloss.Color("#6a737d")),
		PlanTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6f42c1")).Bold(true),
		PlanStep:    lipgloss.NewStyle().Foreground(lipgloss.Color("#24292e")),
		PlanBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6f42c1")).
			Padding(1, 2),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#e1e4e8")),
		Attachment: lipgloss.NewStyle().Foreground(lipgloss.Color("#b5850f")),
	}
}

// ThemeFor maps a config theme name to a Theme.
func ThemeFor(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}
