// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"context"
	"encoding/base64"

	"github.com/jeranaias/docchat-tui/internal/gemini"
)

// =============================================================================
// ATTACHMENT
// =============================================================================

// Attachment is one user-selected file pending transmission.
type Attachment struct {
	// Name identifies the attachment; transmission dedupe keys on it
	Name string

	// Data holds the decoded file bytes
	Data []byte

	// MIMEType of the content
	MIMEType string

	// SizeHint is the decoded-size estimate available before the file
	// is fully decoded (derived from the base64 length at selection
	// time). Zero means use len(Data). Routing decisions use the hint;
	// the hard-ceiling check uses the actual size.
	SizeHint int64
}

// EstimatedSize returns the size used for inline-vs-reference routing.
func (a *Attachment) EstimatedSize() int64 {
	if a.SizeHint > 0 {
		return a.SizeHint
	}
	return int64(len(a.Data))
}

// ActualSize returns the real decoded size.
func (a *Attachment) ActualSize() int64 {
	return int64(len(a.Data))
}

// =============================================================================
// REGISTRAR
// =============================================================================

// Registrar registers attachment bytes out-of-band and returns a handle.
// *gemini.Client satisfies it.
type Registrar interface {
	Upload(ctx context.Context, data []byte, mimeType, displayName string) (gemini.FileRef, error)
}

// =============================================================================
// RESOLVER
// =============================================================================

// Size thresholds. Tuned defaults, overridable from config.
const (
	// DefaultInlineLimit - below this estimated size the attachment is
	// embedded inline (9 MB).
	DefaultInlineLimit = 9 * 1024 * 1024

	// DefaultHardLimit - at or above this actual size a failed
	// registration is fatal instead of falling back to inline (18 MB).
	DefaultHardLimit = 18 * 1024 * 1024
)

// Resolver decides, per attachment, whether to embed it inline or
// register it out-of-band and reference the handle.
type Resolver struct {
	registrar   Registrar
	inlineLimit int64
	hardLimit   int64
}

// NewResolver creates a resolver. Non-positive limits fall back to the
// defaults.
func NewResolver(registrar Registrar, inlineLimit, hardLimit int64) *Resolver {
	if inlineLimit <= 0 {
		inlineLimit = DefaultInlineLimit
	}
	if hardLimit <= 0 {
		hardLimit = DefaultHardLimit
	}
	return &Resolver{
		registrar:   registrar,
		inlineLimit: inlineLimit,
		hardLimit:   hardLimit,
	}
}

// Resolve turns one attachment into a request part.
//
//   - estimated size below the inline threshold: inline part
//   - at or above: out-of-band registration, referenced by handle
//   - registration failed, actual size under the hard ceiling: inline
//     fallback
//   - registration failed, actual size at or over the ceiling: the
//     exchange fails with an attachment-too-large error, no inline
//     attempt
//
// Cancellation is re-checked before the registration call so a cancel
// raised from the UI takes effect before any upload begins.
func (r *Resolver) Resolve(ctx context.Context, att Attachment) (gemini.Part, error) {
	if att.EstimatedSize() < r.inlineLimit {
		return inlinePart(att), nil
	}

	if err := ctx.Err(); err != nil {
		return gemini.Part{}, err
	}

	ref, err := r.registrar.Upload(ctx, att.Data, att.MIMEType, att.Name)
	if err == nil {
		return gemini.Part{FileData: &ref}, nil
	}
	if ctx.Err() != nil {
		return gemini.Part{}, ctx.Err()
	}

	if att.ActualSize() < r.hardLimit {
		return inlinePart(att), nil
	}
	return gemini.Part{}, &gemini.ClientError{
		Kind:    gemini.ErrKindAttachmentTooLarge,
		Message: "attachment " + att.Name + " exceeds the size ceiling and registration failed",
		Size:    att.ActualSize(),
		Cause:   err,
	}
}

// inlinePart embeds the attachment bytes in the request.
func inlinePart(att Attachment) gemini.Part {
	return gemini.Part{InlineData: &gemini.Blob{
		MIMEType: att.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(att.Data),
	}}
}
