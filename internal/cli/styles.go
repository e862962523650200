// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "github.com/muesli/termenv"

// =============================================================================
// OUTPUT STYLING
// =============================================================================

// Styles colorizes line-mode output through a termenv profile. With the
// Ascii profile every method returns its input unchanged, which is what
// piped output gets.
type Styles struct {
	profile termenv.Profile
}

// NewStyles builds styles for the detected terminal.
func NewStyles() Styles {
	return Styles{profile: ColorProfile()}
}

func (s Styles) paint(text, color string, bold bool) string {
	out := s.profile.String(text).Foreground(s.profile.Color(color))
	if bold {
		out = out.Bold()
	}
	return out.String()
}

// UserLabel styles the prompt-side speaker label.
func (s Styles) UserLabel(text string) string { return s.paint(text, "4", true) }

// ModelLabel styles the reply-side speaker label.
func (s Styles) ModelLabel(text string) string { return s.paint(text, "2", true) }

// Error styles a failure message.
func (s Styles) Error(text string) string { return s.paint(text, "1", false) }

// Notice styles status lines such as attach and export confirmations.
func (s Styles) Notice(text string) string { return s.paint(text, "3", false) }

// Faint styles secondary text such as help and stop markers.
func (s Styles) Faint(text string) string {
	return s.profile.String(text).Foreground(s.profile.Color("8")).String()
}

// PlanTitle styles the header of a proposed plan.
func (s Styles) PlanTitle(text string) string { return s.paint(text, "5", true) }
