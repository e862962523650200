// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export turns generated documents and transcripts into files
// the user can open elsewhere.
//
// The model produces documents as HTML fragments restricted to a small
// tag and utility-class vocabulary (headings, paragraphs, lists,
// tables, colored badges, left-bordered callouts). Two exporters
// consume that fragment:
//
//   - PrintExporter wraps it in a standalone page with embedded CSS,
//     suitable for the browser print dialog.
//   - WordExporter rewrites the utility classes to inline styles via a
//     fixed substitution table and wraps the result in a
//     Word-compatible shell. The rewrite is lossless for the
//     vocabulary the documents are built from.
//
// TranscriptDocument renders a whole conversation to the same fragment
// form, highlighting fenced code with chroma, so transcripts export
// through the same two paths.
package export
