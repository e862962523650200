// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jeranaias/docchat-tui/internal/plan"
)

// scriptedSession returns canned replies or errors per call.
type scriptedSession struct {
	prompts []string
	replies []string
	errAt   int // 1-based call index that fails; 0 means never
}

func (s *scriptedSession) Send(ctx context.Context, text string, onDelta func(string)) (string, error) {
	s.prompts = append(s.prompts, text)
	call := len(s.prompts)
	if s.errAt != 0 && call == s.errAt {
		return "", errors.New("simulated step failure")
	}
	reply := "step output " + string(rune('0'+call))
	if len(s.replies) >= call && s.replies[call-1] != "" {
		reply = s.replies[call-1]
	}
	for _, d := range strings.SplitAfter(reply, " ") {
		onDelta(d)
	}
	return reply, nil
}

func proposed(t *testing.T, session plan.Exchanger, steps ...string) (*plan.Orchestrator, *plan.Plan) {
	t.Helper()
	p := &plan.Plan{ID: "p1", Title: "T", Steps: steps}
	orc := plan.NewOrchestrator(session)
	if err := orc.Propose(p); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if orc.Status() != plan.StatusAwaitingApproval {
		t.Fatalf("status = %s", orc.Status())
	}
	return orc, p
}

// TestApproveRunsAllSteps verifies sequential execution, completion
// signalling, and the reset to idle with the plan cleared.
func TestApproveRunsAllSteps(t *testing.T) {
	session := &scriptedSession{}
	orc, _ := proposed(t, session, "a", "b", "c")

	var statuses []plan.Status
	orc.SetStatusCallback(func(s plan.Status) { statuses = append(statuses, s) })

	var started, ended []int
	hooks := plan.Hooks{
		OnStepStart: func(i int, step string) { started = append(started, i) },
		OnStepEnd: func(i int, reply string, err error) {
			if err != nil {
				t.Errorf("step %d errored: %v", i, err)
			}
			ended = append(ended, i)
		},
	}

	if err := orc.Approve(context.Background(), hooks); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if len(started) != 3 || started[0] != 0 || started[2] != 2 {
		t.Errorf("steps started out of order: %v", started)
	}
	if len(ended) != 3 {
		t.Errorf("ended = %v", ended)
	}
	if orc.Status() != plan.StatusIdle {
		t.Errorf("status after completion = %s", orc.Status())
	}
	if orc.Plan() != nil {
		t.Error("plan should be cleared after completion")
	}

	// Completion is observed exactly once, followed by idle.
	sawCompleted := 0
	for _, s := range statuses {
		if s == plan.StatusCompleted {
			sawCompleted++
		}
	}
	if sawCompleted != 1 {
		t.Errorf("StatusCompleted observed %d times", sawCompleted)
	}
	if statuses[len(statuses)-1] != plan.StatusIdle {
		t.Errorf("final observed status = %s", statuses[len(statuses)-1])
	}

	// Each step prompt restates the plan title and the step text.
	for i, prompt := range session.prompts {
		if !strings.Contains(prompt, `"T"`) {
			t.Errorf("prompt %d does not restate title: %q", i, prompt)
		}
	}
}

// TestStepFailureHaltsPlan: failure on step 2 of 3 leaves two attempted
// steps, never starts step 3, and returns state to idle.
func TestStepFailureHaltsPlan(t *testing.T) {
	session := &scriptedSession{errAt: 2}
	orc, _ := proposed(t, session, "a", "b", "c")

	type ending struct {
		index int
		err   error
	}
	var started []int
	var endings []ending
	hooks := plan.Hooks{
		OnStepStart: func(i int, step string) { started = append(started, i) },
		OnStepEnd:   func(i int, reply string, err error) { endings = append(endings, ending{i, err}) },
	}

	err := orc.Approve(context.Background(), hooks)
	if err == nil {
		t.Fatal("expected approve to surface the step failure")
	}
	if !strings.Contains(err.Error(), "step 2") {
		t.Errorf("error should name the failed step: %v", err)
	}

	if len(started) != 2 {
		t.Fatalf("step 3 must never start, started=%v", started)
	}
	if len(endings) != 2 {
		t.Fatalf("expected 2 step endings, got %v", endings)
	}
	if endings[0].err != nil {
		t.Error("step 1 should have succeeded")
	}
	if endings[1].err == nil {
		t.Error("step 2 should carry its failure")
	}
	if orc.Status() != plan.StatusIdle {
		t.Errorf("status = %s", orc.Status())
	}
	if len(session.prompts) != 2 {
		t.Errorf("exactly 2 exchanges expected, got %d", len(session.prompts))
	}
}

// TestCancelPendingPlan discards an unapproved plan.
func TestCancelPendingPlan(t *testing.T) {
	orc, _ := proposed(t, &scriptedSession{}, "a", "b")

	if err := orc.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if orc.Status() != plan.StatusIdle {
		t.Errorf("status = %s", orc.Status())
	}
	if orc.Plan() != nil {
		t.Error("plan should be discarded")
	}
	if err := orc.Cancel(); err == nil {
		t.Error("second cancel should be rejected")
	}
}

// TestUserStopDuringExecution: a cancelled context surfaces as
// ErrStopped and halts remaining steps.
func TestUserStopDuringExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	session := &scriptedSession{}
	stopper := &stopAfterFirst{inner: session, cancel: cancel}
	orc, _ := proposed(t, stopper, "a", "b", "c")

	err := orc.Approve(ctx, plan.Hooks{})
	if !errors.Is(err, plan.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if len(session.prompts) != 1 {
		t.Errorf("no step may start after the stop, exchanges=%d", len(session.prompts))
	}
	if orc.Status() != plan.StatusIdle {
		t.Errorf("status = %s", orc.Status())
	}
}

// stopAfterFirst cancels the context once the first exchange completes.
type stopAfterFirst struct {
	inner  *scriptedSession
	cancel context.CancelFunc
}

func (s *stopAfterFirst) Send(ctx context.Context, text string, onDelta func(string)) (string, error) {
	reply, err := s.inner.Send(ctx, text, onDelta)
	s.cancel()
	return reply, err
}

// TestApproveRequiresPendingPlan guards the state machine.
func TestApproveRequiresPendingPlan(t *testing.T) {
	orc := plan.NewOrchestrator(&scriptedSession{})
	if err := orc.Approve(context.Background(), plan.Hooks{}); err == nil {
		t.Error("approve without a plan should fail")
	}
}
