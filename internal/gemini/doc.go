// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the HTTP client for the hosted
// generative-language API.
//
// The client streams replies via the server-sent-events form of the
// generate endpoint, classifies failures into the error taxonomy the UI
// surfaces, retries transient failures with linear backoff, and
// registers oversized attachments out-of-band through the files
// endpoint.
//
// # Key Types
//
//   - Client: API client with retry and request pacing
//   - Part / Content: request building blocks (text, inline bytes,
//     out-of-band file references)
//   - ClientError / ErrorKind: the error taxonomy
//   - FileRef: handle returned by out-of-band registration
//
// # Usage
//
//	client := gemini.NewClient(cfg)
//	err := client.StreamGenerate(ctx, contents, func(delta string) {
//	    buf.Append(delta)
//	})
package gemini
