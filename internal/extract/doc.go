// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract pulls fenced blocks out of streaming model replies.
//
// Model replies carry structured payloads inside markdown-style fences:
// an ```html block holds the generated document artifact and a ```json
// block holds a multi-step work plan. Because replies arrive as a stream
// of small deltas, a block is usually observed long before its closing
// fence exists. This package extracts the block content in both states:
// still-open (content so far) and closed (final content).
//
// # Key Types
//
//   - Result: extracted content plus whether the fence has closed
//   - Scanner: incremental extractor that tracks its position across
//     appends, avoiding O(n^2) rescans of a growing buffer
//
// # Usage
//
// One-shot extraction over a complete buffer:
//
//	res, ok := extract.Extract(reply, extract.TagHTML)
//	if ok && res.Closed {
//	    artifact = res.Content
//	}
//
// Incremental extraction while streaming:
//
//	sc := extract.NewScanner(extract.TagHTML)
//	for delta := range deltas {
//	    sc.Write(delta)
//	    if res, ok := sc.Result(); ok {
//	        preview = res.Content
//	    }
//	}
//
// Stripping blocks from prose before markdown rendering:
//
//	prose := extract.StripBlock(reply, extract.TagHTML)
package extract
