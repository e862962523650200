// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns the conversation: the ordered transcript, the
// per-conversation session handle, and the exchange loop that streams
// one model reply into one transcript message.
//
// A Session is constructed per logical conversation and passed by
// handle to whoever drives it; there is no package-level session state.
// Uploading a brand-new file set is equivalent to starting a new
// conversation and resets the session.
//
// # Key Types
//
//   - Message: one transcript entry; mutable only while streaming
//   - Transcript: ordered messages with the single-streaming-message
//     invariant
//   - Session: conversation handle over the model client; runs one
//     exchange at a time and dedupes already-transmitted attachments
package chat
