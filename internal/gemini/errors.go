// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes client errors for handling and user display.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota

	// ErrKindNetworkUnreachable - transport-level failure reaching the
	// service. Retried.
	ErrKindNetworkUnreachable

	// ErrKindServiceOverloaded - overload/rate-limit/unavailable signal
	// from the service. Retried.
	ErrKindServiceOverloaded

	// ErrKindContentRejected - safety filter flagged the request or the
	// output. Never retried.
	ErrKindContentRejected

	// ErrKindPayloadTooLarge - inline request exceeds the provider size
	// limit. Never retried.
	ErrKindPayloadTooLarge

	// ErrKindTokenLimitExceeded - conversation context exceeds the model
	// limit. Never retried.
	ErrKindTokenLimitExceeded

	// ErrKindAttachmentTooLarge - file exceeds the hard ceiling and
	// out-of-band registration also failed. Never retried.
	ErrKindAttachmentTooLarge
)

// String returns the string representation of an error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNetworkUnreachable:
		return "NetworkUnreachable"
	case ErrKindServiceOverloaded:
		return "ServiceOverloaded"
	case ErrKindContentRejected:
		return "ContentRejected"
	case ErrKindPayloadTooLarge:
		return "PayloadTooLarge"
	case ErrKindTokenLimitExceeded:
		return "TokenLimitExceeded"
	case ErrKindAttachmentTooLarge:
		return "AttachmentTooLarge"
	default:
		return "Unknown"
	}
}

// Retryable reports whether this kind is absorbed by the retry budget.
func (k ErrorKind) Retryable() bool {
	return k == ErrKindNetworkUnreachable || k == ErrKindServiceOverloaded
}

// ClientError represents an error from the generative-language client.
type ClientError struct {
	Kind    ErrorKind
	Message string
	// Size is the attempted payload size in bytes for attachment and
	// payload errors, for diagnostic classification. Zero otherwise.
	Size  int64
	Cause error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// KindOf extracts the error kind, ErrKindUnknown when err is not a
// ClientError.
func KindOf(err error) ErrorKind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrKindUnknown
}

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// IsAttachmentTooLarge reports whether err is an oversized-attachment
// failure.
func IsAttachmentTooLarge(err error) bool {
	return KindOf(err) == ErrKindAttachmentTooLarge
}

// IsContentRejected reports whether err is a safety rejection.
func IsContentRejected(err error) bool {
	return KindOf(err) == ErrKindContentRejected
}

// IsCancelled reports whether err came from a user stop or deadline,
// not a service failure.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// USER-FACING MESSAGES
// =============================================================================

// UserMessage returns the one human-readable message shown in the
// transcript for each error kind.
func UserMessage(err error) string {
	switch KindOf(err) {
	case ErrKindNetworkUnreachable:
		return "Could not reach the model service. Check your connection and try again."
	case ErrKindServiceOverloaded:
		return "The model service is overloaded right now. Please try again in a moment."
	case ErrKindContentRejected:
		return "The request or its output was rejected by the content safety filter."
	case ErrKindPayloadTooLarge:
		return "The request is too large for the model service."
	case ErrKindTokenLimitExceeded:
		return "The conversation has exceeded the model's context limit. Start a new conversation."
	case ErrKindAttachmentTooLarge:
		return "An attachment is too large to send, and out-of-band upload failed."
	default:
		return "The request failed: " + err.Error()
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// classifyStatus maps an HTTP status plus the API error message to an
// error kind.
func classifyStatus(status int, message string) ErrorKind {
	switch status {
	case 429, 500, 502, 503, 504:
		return ErrKindServiceOverloaded
	case 413:
		return ErrKindPayloadTooLarge
	case 400:
		lower := strings.ToLower(message)
		switch {
		case strings.Contains(lower, "token"):
			return ErrKindTokenLimitExceeded
		case strings.Contains(lower, "payload") || strings.Contains(lower, "too large") ||
			strings.Contains(lower, "request entity"):
			return ErrKindPayloadTooLarge
		case strings.Contains(lower, "safety") || strings.Contains(lower, "blocked"):
			return ErrKindContentRejected
		}
	}
	return ErrKindUnknown
}
