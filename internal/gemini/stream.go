// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// SSE STREAM READER
// =============================================================================

// sseReader handles line-by-line parsing of the server-sent-events form
// of the generate endpoint. Each "data:" line carries one JSON chunk of
// the reply; the stream ends at EOF.
type sseReader struct {
	reader *bufio.Reader
}

// newSSEReader creates a stream reader from an io.Reader.
func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{reader: bufio.NewReader(r)}
}

// process reads the stream and calls the callback for each text delta.
// Blocks until the stream is complete or the context is cancelled; the
// context is re-checked between deltas so cancellation from another
// goroutine takes effect at the next suspension point.
func (s *sseReader) process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Process a final unterminated line if any.
				if delta, perr := parseSSELine(line); perr == nil && delta != "" {
					callback(delta)
				} else if perr != nil {
					return perr
				}
				return nil
			}
			return &ClientError{Kind: ErrKindNetworkUnreachable, Message: "stream interrupted", Cause: err}
		}

		delta, perr := parseSSELine(line)
		if perr != nil {
			return perr
		}
		if delta != "" {
			callback(delta)
		}
	}
}

// parseSSELine extracts the text delta from one stream line. Non-data
// lines and malformed payloads are skipped.
func parseSSELine(line string) (string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return "", nil
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" || payload == "[DONE]" {
		return "", nil
	}

	var chunk generateResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Skip malformed lines
		return "", nil
	}

	if chunk.blocked() {
		return "", &ClientError{Kind: ErrKindContentRejected, Message: "response blocked by safety filter"}
	}
	return chunk.text(), nil
}
