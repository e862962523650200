// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/chat"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/plan"
)

// Run starts the interactive interface and blocks until the user quits.
func Run(cfg *config.Config, session *chat.Session, orchestrator *plan.Orchestrator) error {
	model := New(cfg, session, orchestrator)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}
