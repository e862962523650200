// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain line-oriented mode used when stdout
// is not a terminal capable of the full-screen interface, or when the
// user asks for it explicitly.
//
// It is a readline REPL over the same session, extraction, and plan
// orchestration core as the full-screen mode: streamed deltas print as
// they arrive, document and plan blocks are recognized when a reply
// ends, and plan approval happens through an inline [y/n] prompt.
// Slash commands (/attach, /export, /new, /help, /quit) cover the
// operations the full-screen mode binds to keys.
package cli
