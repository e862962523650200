// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"

	"github.com/jeranaias/docchat-tui/internal/attach"
	"github.com/jeranaias/docchat-tui/internal/gemini"
	"github.com/jeranaias/docchat-tui/internal/stream"
)

// =============================================================================
// SEAMS
// =============================================================================

// Generator streams one model reply. *gemini.Client satisfies it.
type Generator interface {
	StreamGenerate(ctx context.Context, contents []gemini.Content, callback gemini.StreamCallback) error
}

// PartResolver turns an attachment into a request part.
// *attach.Resolver satisfies it.
type PartResolver interface {
	Resolve(ctx context.Context, att attach.Attachment) (gemini.Part, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the conversation handle to the model service. It owns the
// conversation history, the pending attachment set, and the record of
// attachments already transmitted in this session.
//
// One exchange runs at a time; callers enforce that by refusing new
// sends while an exchange is in flight. The session is constructed per
// logical conversation - there is no global session.
type Session struct {
	mu sync.Mutex

	client   Generator
	resolver PartResolver

	// history holds the prior turns replayed with every request
	history []gemini.Content

	// pending attachments are consumed by the next exchange
	pending []attach.Attachment

	// sent tracks attachments already transmitted, deduped by name, so
	// later exchanges in the session do not resend them
	sent map[string]bool
}

// NewSession creates a conversation session.
func NewSession(client Generator, resolver PartResolver) *Session {
	return &Session{
		client:   client,
		resolver: resolver,
		sent:     make(map[string]bool),
	}
}

// AddAttachment queues a file for the next exchange.
func (s *Session) AddAttachment(att attach.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, att)
}

// PendingAttachments returns the names queued for the next exchange.
func (s *Session) PendingAttachments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.pending))
	for _, a := range s.pending {
		names = append(names, a.Name)
	}
	return names
}

// Reset starts a brand-new conversation: history, pending files, and
// the transmitted set are all cleared. Called when the user uploads a
// new file set.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.pending = nil
	s.sent = make(map[string]bool)
}

// HistoryLen returns the number of stored turns.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Send runs one exchange: pending attachments are resolved into parts,
// the exchange text goes last, the reply streams through onDelta, and
// the full reply is returned.
//
// The exchange is not restartable; a failed call leaves the partial
// reply with the caller and a new call starts a new exchange on the
// same history. Attachments resolve before the request is issued and
// are marked transmitted only once the exchange succeeded or deltas
// arrived, so a resolve failure or an undelivered request leaves them
// pending.
func (s *Session) Send(ctx context.Context, text string, onDelta func(delta string)) (string, error) {
	parts, names, err := s.resolvePending(ctx)
	if err != nil {
		return "", err
	}
	parts = append(parts, gemini.TextPart(text))

	s.mu.Lock()
	userTurn := gemini.Content{Role: gemini.RoleUser, Parts: parts}
	contents := append(append([]gemini.Content{}, s.history...), userTurn)
	s.mu.Unlock()

	var buf stream.Buffer
	err = s.client.StreamGenerate(ctx, contents, func(delta string) {
		buf.Append(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	})

	reply := buf.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, userTurn)
	if err == nil || reply != "" {
		// Attachments count as transmitted only once the exchange
		// demonstrably reached the service. A send that failed before
		// any delta arrived leaves them pending for the retry.
		s.consumePendingLocked(names)
	}
	if reply != "" {
		// A partial reply still becomes context; the model continues
		// from what the user actually saw.
		s.history = append(s.history, gemini.NewTextContent(gemini.RoleModel, reply))
	}
	if err != nil {
		return reply, err
	}
	return reply, nil
}

// resolvePending turns the queued attachments into request parts,
// skipping ones already transmitted in this session.
func (s *Session) resolvePending(ctx context.Context) ([]gemini.Part, []string, error) {
	s.mu.Lock()
	queue := make([]attach.Attachment, len(s.pending))
	copy(queue, s.pending)
	s.mu.Unlock()

	var parts []gemini.Part
	var names []string
	for _, att := range queue {
		s.mu.Lock()
		dup := s.sent[att.Name]
		s.mu.Unlock()
		if dup {
			names = append(names, att.Name)
			continue
		}

		part, err := s.resolver.Resolve(ctx, att)
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, part)
		names = append(names, att.Name)
	}
	return parts, names, nil
}

// consumePendingLocked marks names transmitted and drops them from the
// pending queue. Caller holds the mutex.
func (s *Session) consumePendingLocked(names []string) {
	for _, n := range names {
		s.sent[n] = true
	}
	var remaining []attach.Attachment
	for _, att := range s.pending {
		if !s.sent[att.Name] {
			remaining = append(remaining, att)
		}
	}
	s.pending = remaining
}
