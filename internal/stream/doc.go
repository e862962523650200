// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream accumulates streaming reply deltas.
//
// A model reply arrives as many small text deltas. Buffer collects them
// into the cumulative reply text, and Coalescer batches display updates
// so very large streamed payloads do not trigger a re-render per token.
// Throttling only affects how often a snapshot is surfaced; every delta
// is always captured.
//
// # Key Types
//
//   - Buffer: append-only accumulator exposing the cumulative text
//   - Coalescer: thread-safe delta batcher flushed at a capped rate
package stream
