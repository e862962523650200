// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Bubble Tea message types for the chat interface. All are immutable.

package ui

import "time"

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamTickMsg drives the display refresh while a reply streams. Each
// tick drains the coalescer into the transcript.
type streamTickMsg struct {
	Time time.Time
}

// streamDoneMsg signals that the exchange goroutine finished.
type streamDoneMsg struct {
	MessageID string
	Err       error
}

// =============================================================================
// PLAN MESSAGES
// =============================================================================

// planEventMsg carries one step-execution event from the orchestrator
// goroutine.
type planEventMsg struct {
	event planEvent
}

// planEvent is the channel payload for plan execution progress.
type planEvent struct {
	kind      planEventKind
	stepIndex int
	stepText  string
	err       error
}

type planEventKind int

const (
	planStepStart planEventKind = iota
	planStepEnd
	planRunDone
)

// =============================================================================
// ATTACHMENT AND EXPORT MESSAGES
// =============================================================================

// attachDoneMsg reports the outcome of reading a picked file.
type attachDoneMsg struct {
	Name string
	Err  error
}

// exportDoneMsg reports the outcome of an export.
type exportDoneMsg struct {
	Path string
	Err  error
}
