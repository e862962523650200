// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

// =============================================================================
// OUT-OF-BAND FILE REGISTRATION
// =============================================================================

// Upload registers attachment bytes with the files endpoint and returns
// a handle that later exchanges reference instead of embedding the
// content. Errors carry the attempted size so the attachment resolver
// can classify the failure.
func (c *Client) Upload(ctx context.Context, data []byte, mimeType, displayName string) (FileRef, error) {
	if err := c.pace(ctx); err != nil {
		return FileRef{}, err
	}

	url := c.config.BaseURL + "/upload/v1beta/files"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return FileRef{}, &ClientError{
			Kind: ErrKindUnknown, Message: "failed to create upload request",
			Size: int64(len(data)), Cause: err,
		}
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Goog-Api-Key", c.config.APIKey)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Goog-File-Name", displayName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return FileRef{}, ctx.Err()
		}
		return FileRef{}, &ClientError{
			Kind: ErrKindNetworkUnreachable, Message: "failed to reach files endpoint",
			Size: int64(len(data)), Cause: err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

		message := resp.Status
		var envelope apiError
		if jerr := json.Unmarshal(raw, &envelope); jerr == nil && envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
		kind := classifyStatus(resp.StatusCode, message)
		if kind == ErrKindUnknown {
			kind = ErrKindPayloadTooLarge
		}
		return FileRef{}, &ClientError{
			Kind: kind, Message: "file registration failed: " + message,
			Size: int64(len(data)),
		}
	}

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return FileRef{}, &ClientError{
			Kind: ErrKindUnknown, Message: "failed to decode upload response",
			Size: int64(len(data)), Cause: err,
		}
	}
	if result.File.URI == "" {
		return FileRef{}, &ClientError{
			Kind: ErrKindUnknown, Message: "upload response carried no file URI",
			Size: int64(len(data)),
		}
	}

	mt := result.File.MIMEType
	if mt == "" {
		mt = mimeType
	}
	return FileRef{MIMEType: mt, URI: result.File.URI}, nil
}
