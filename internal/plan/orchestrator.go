// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the session-level conversation state the orchestrator owns.
type Status int

const (
	// StatusIdle - no exchange in flight, ready for a new request
	StatusIdle Status = iota

	// StatusAwaitingModel - an exchange is streaming
	StatusAwaitingModel

	// StatusAwaitingApproval - a parsed plan is displayed, waiting for
	// approve or cancel
	StatusAwaitingApproval

	// StatusExecuting - approved plan steps are running in order
	StatusExecuting

	// StatusCompleted - the last step finished; transient, observed
	// once before the orchestrator resets to idle
	StatusCompleted
)

// String returns the string representation of a status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusAwaitingModel:
		return "AwaitingModel"
	case StatusAwaitingApproval:
		return "AwaitingApproval"
	case StatusExecuting:
		return "Executing"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// =============================================================================
// EXCHANGER
// =============================================================================

// Exchanger runs one complete model exchange: send, stream deltas, end.
// *chat.Session satisfies it.
type Exchanger interface {
	Send(ctx context.Context, text string, onDelta func(delta string)) (string, error)
}

// =============================================================================
// HOOKS
// =============================================================================

// Hooks observe plan execution. Any hook may be nil.
type Hooks struct {
	// OnStepStart fires before step index (0-based) begins.
	OnStepStart func(index int, step string)

	// OnStepDelta fires per streamed delta of the running step.
	OnStepDelta func(index int, delta string)

	// OnStepEnd fires when a step's exchange fully ends. err is nil on
	// success, the step failure, or a context error on user stop.
	OnStepEnd func(index int, reply string, err error)

	// OnStatus fires on every state transition.
	OnStatus func(status Status)
}

func (h Hooks) stepStart(i int, s string) {
	if h.OnStepStart != nil {
		h.OnStepStart(i, s)
	}
}

func (h Hooks) stepDelta(i int, d string) {
	if h.OnStepDelta != nil {
		h.OnStepDelta(i, d)
	}
}

func (h Hooks) stepEnd(i int, r string, err error) {
	if h.OnStepEnd != nil {
		h.OnStepEnd(i, r, err)
	}
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// ErrStopped marks a user-initiated stop during execution; it is
// distinguished from a step failure only by the transcript marker the
// UI appends.
var ErrStopped = errors.New("plan execution stopped")

// Orchestrator drives a plan through approval and sequential execution.
//
// State machine: idle -> awaiting_model -> awaiting_approval ->
// executing -> completed -> idle, with idle reachable from
// awaiting_approval via cancel and from executing via failure or user
// stop. Steps never run concurrently: step i+1 starts only after step
// i's exchange has fully ended. Completed steps stay in the transcript
// untouched; there is no rollback.
type Orchestrator struct {
	mu       sync.Mutex
	status   Status
	plan     *Plan
	session  Exchanger
	onStatus func(Status)
}

// NewOrchestrator creates an orchestrator over one conversation session.
func NewOrchestrator(session Exchanger) *Orchestrator {
	return &Orchestrator{session: session, status: StatusIdle}
}

// SetStatusCallback registers an observer for state transitions.
func (o *Orchestrator) SetStatusCallback(fn func(Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onStatus = fn
}

// Status returns the current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Plan returns the plan pending approval or in execution, nil otherwise.
func (o *Orchestrator) Plan() *Plan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plan
}

// ExchangeStarted moves idle -> awaiting_model when a new exchange
// begins streaming.
func (o *Orchestrator) ExchangeStarted() error {
	return o.transition(StatusIdle, StatusAwaitingModel)
}

// ExchangeEnded moves awaiting_model back to idle for a plain prose or
// artifact reply (no plan found, or plan JSON malformed).
func (o *Orchestrator) ExchangeEnded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == StatusAwaitingModel {
		o.setStatusLocked(StatusIdle)
	}
}

// Propose installs a parsed plan and moves to awaiting_approval.
func (o *Orchestrator) Propose(p *Plan) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusIdle && o.status != StatusAwaitingModel {
		return fmt.Errorf("cannot propose a plan in status %s", o.status)
	}
	o.plan = p
	o.setStatusLocked(StatusAwaitingApproval)
	return nil
}

// Cancel discards a plan awaiting approval and returns to idle. The
// caller appends the cancellation notice to the transcript.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusAwaitingApproval {
		return fmt.Errorf("cannot cancel in status %s", o.status)
	}
	o.plan = nil
	o.setStatusLocked(StatusIdle)
	return nil
}

// Approve runs the pending plan to completion, one exchange per step in
// strict order.
//
// A failure on any step halts the remaining steps and returns the step
// error; a context cancellation mid-step halts the same way and returns
// ErrStopped. Either way the state is idle afterwards and steps already
// completed remain as they were. On success the observer sees
// StatusCompleted once, then the orchestrator resets to idle with the
// plan cleared.
func (o *Orchestrator) Approve(ctx context.Context, hooks Hooks) error {
	o.mu.Lock()
	if o.status != StatusAwaitingApproval {
		o.mu.Unlock()
		return fmt.Errorf("cannot approve in status %s", o.status)
	}
	p := o.plan
	o.setStatusLocked(StatusExecuting)
	o.mu.Unlock()

	for i, step := range p.Steps {
		// Cancellation is re-checked between steps; a stop raised
		// mid-step surfaces through the exchange itself.
		if err := ctx.Err(); err != nil {
			o.reset()
			hooks.stepEnd(i, "", ErrStopped)
			return ErrStopped
		}

		hooks.stepStart(i, step)

		prompt := StepPrompt(p.Title, i, len(p.Steps), step)
		reply, err := o.session.Send(ctx, prompt, func(delta string) {
			hooks.stepDelta(i, delta)
		})
		if err != nil {
			o.reset()
			if errors.Is(err, context.Canceled) {
				hooks.stepEnd(i, reply, ErrStopped)
				return ErrStopped
			}
			hooks.stepEnd(i, reply, err)
			return fmt.Errorf("step %d failed: %w", i+1, err)
		}
		hooks.stepEnd(i, reply, nil)
	}

	o.mu.Lock()
	o.setStatusLocked(StatusCompleted)
	o.plan = nil
	o.setStatusLocked(StatusIdle)
	o.mu.Unlock()
	return nil
}

// reset returns to idle and clears the plan after failure or stop.
func (o *Orchestrator) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.plan = nil
	o.setStatusLocked(StatusIdle)
}

// transition performs a guarded single-state move.
func (o *Orchestrator) transition(from, to Status) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != from {
		return fmt.Errorf("cannot move %s -> %s", o.status, to)
	}
	o.setStatusLocked(to)
	return nil
}

// setStatusLocked updates status and notifies. Caller holds the mutex;
// observers must not call back into the orchestrator.
func (o *Orchestrator) setStatusLocked(s Status) {
	o.status = s
	if o.onStatus != nil {
		o.onStatus(s)
	}
}
