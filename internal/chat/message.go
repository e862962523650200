// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/docchat-tui/internal/plan"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Role identifies a transcript side.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one transcript entry.
//
// A message is mutated in place only while IsStreaming is true, and its
// text grows monotonically during that window. Once streaming ends the
// message is immutable.
type Message struct {
	ID   string
	Role Role
	Text string

	// IsError marks a reply that ended in a surfaced failure. Partial
	// text received before the failure is preserved.
	IsError bool

	// IsStreaming marks the reply currently receiving deltas. At most
	// one message is streaming at a time per active exchange.
	IsStreaming bool

	// Stopped marks a reply cut off by a user-initiated stop.
	Stopped bool

	// Plan carries the parsed plan attached to this reply, if any.
	Plan *plan.Plan
}

// NewUserMessage creates a user transcript entry.
func NewUserMessage(text string) Message {
	return Message{ID: uuid.New().String(), Role: RoleUser, Text: text}
}

// NewModelMessage creates a model entry in streaming state.
func NewModelMessage() Message {
	return Message{ID: uuid.New().String(), Role: RoleModel, IsStreaming: true}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered message list for one conversation.
//
// Thread-safety: the streaming goroutine appends text while the render
// loop snapshots, so all operations take the mutex.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

// Append adds a message and returns its ID. Appending a streaming
// message while another is still streaming violates the transcript
// invariant and panics; the exchange loop guarantees it never happens.
func (t *Transcript) Append(m Message) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m.IsStreaming {
		for i := range t.messages {
			if t.messages[i].IsStreaming {
				panic(fmt.Sprintf("transcript: message %s still streaming", t.messages[i].ID))
			}
		}
	}
	t.messages = append(t.messages, m)
	return m.ID
}

// AppendText grows the streaming message's text.
func (t *Transcript) AppendText(id, delta string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexLocked(id); i >= 0 && t.messages[i].IsStreaming {
		t.messages[i].Text += delta
	}
}

// SetText replaces the streaming message's text with a larger snapshot.
func (t *Transcript) SetText(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexLocked(id); i >= 0 && t.messages[i].IsStreaming {
		t.messages[i].Text = text
	}
}

// Finish ends a message's streaming window. The marker, when not empty,
// is appended to whatever text accumulated - a failed or stopped
// exchange keeps its partial text.
func (t *Transcript) Finish(id string, isError, stopped bool, marker string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexLocked(id)
	if i < 0 {
		return
	}
	m := &t.messages[i]
	m.IsStreaming = false
	m.IsError = isError
	m.Stopped = stopped
	if marker != "" {
		if m.Text != "" {
			m.Text += "\n\n"
		}
		m.Text += marker
	}
}

// AttachPlan links a parsed plan to a finished reply.
func (t *Transcript) AttachPlan(id string, p *plan.Plan) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexLocked(id); i >= 0 {
		t.messages[i].Plan = p
	}
}

// Messages returns a snapshot copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Streaming reports whether any message is currently streaming.
func (t *Transcript) Streaming() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.messages {
		if t.messages[i].IsStreaming {
			return true
		}
	}
	return false
}

// Reset clears the transcript for a new conversation.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

func (t *Transcript) indexLocked(id string) int {
	for i := range t.messages {
		if t.messages[i].ID == id {
			return i
		}
	}
	return -1
}
