// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plan turns one oversized request into an approved sequence of
// dependent model exchanges.
//
// When the model judges a request too large for a single reply it emits
// a ```json block holding {"title", "steps"}. The plan is parsed once
// the block closes, shown for approval, and on approval executed one
// exchange per step, strictly in order, with the same cancellation
// contract as the original exchange.
//
// # Key Types
//
//   - Plan: immutable parsed {title, steps} payload
//   - Orchestrator: explicit finite-state machine over the session
//     states (idle, awaiting model, awaiting approval, executing,
//     completed), driven by discrete events rather than UI re-renders
//   - Exchanger: the one-exchange seam the orchestrator drives
//
// # Usage
//
//	p, err := plan.Parse(jsonBlock)
//	orc := plan.NewOrchestrator(session)
//	orc.Propose(p)
//	err = orc.Approve(ctx, hooks)
package plan
