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
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the API client.
type ClientConfig struct {
	// BaseURL of the generative-language service
	BaseURL string

	// APIKey sent with every request
	APIKey string

	// Model name used for generate calls
	Model string

	// SystemPrompt sent as the system instruction of every request;
	// empty omits the field
	SystemPrompt string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// MaxAttempts is the total attempt budget for transient failures
	// (default: 3)
	MaxAttempts int

	// RetryDelay is the linear backoff unit: attempt index times this
	// delay (default: 1s)
	RetryDelay time.Duration

	// RequestsPerMinute caps client-side request pacing; 0 disables
	RequestsPerMinute int
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:     "https://generativelanguage.googleapis.com",
		Model:       "gemini-2.5-flash",
		Timeout:     30 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  1 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// StreamCallback is called for each text delta received during streaming.
type StreamCallback func(delta string)

// Client handles communication with the generative-language API.
//
// Retry policy: transient failures (network-unreachable and
// overload-class responses) are retried up to MaxAttempts total attempts
// with linearly increasing backoff; all other failures surface on first
// occurrence. Cancellation is observed before every attempt and between
// deltas, and no retry begins once it is set.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new API client. Nil or zero config fields fall
// back to defaults.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// =============================================================================
// STREAMING GENERATION
// =============================================================================

// StreamGenerate sends the conversation contents and streams the reply,
// invoking the callback once per text delta. The callback runs
// synchronously in receive order.
//
// Transient failures while establishing the exchange are retried within
// the attempt budget. Once deltas have been delivered the exchange is
// not restartable, so a mid-stream failure surfaces immediately; the
// caller keeps whatever text it has accumulated.
func (c *Client) StreamGenerate(ctx context.Context, contents []Content, callback StreamCallback) error {
	if err := c.pace(ctx); err != nil {
		return err
	}

	request := GenerateRequest{Contents: contents}
	if c.config.SystemPrompt != "" {
		request.SystemInstruction = &Content{Parts: []Part{{Text: c.config.SystemPrompt}}}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return &ClientError{Kind: ErrKindUnknown, Message: "failed to marshal request", Cause: err}
	}

	url := c.config.BaseURL + "/v1beta/models/" + c.config.Model + ":streamGenerateContent?alt=sse"

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delivered := false
		counting := func(delta string) {
			delivered = true
			callback(delta)
		}

		err := c.streamOnce(ctx, url, body, counting)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		// A partially consumed stream cannot be replayed without
		// duplicating delivered text.
		if delivered || !IsRetryable(err) {
			return err
		}

		lastErr = err
		if attempt < c.config.MaxAttempts {
			if err := c.backoff(ctx, attempt); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// streamOnce performs a single streaming attempt.
func (c *Client) streamOnce(ctx context.Context, url string, body []byte, callback StreamCallback) error {
	// Streaming uses a client without the request timeout; lifetime is
	// governed by ctx instead.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Kind: ErrKindUnknown, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.config.APIKey)

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ctx.Err()
		}
		return &ClientError{Kind: ErrKindNetworkUnreachable, Message: "failed to reach model service", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.responseError(resp)
	}

	reader := newSSEReader(resp.Body)
	return reader.process(ctx, callback)
}

// responseError drains a non-200 response into a classified ClientError.
func (c *Client) responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	message := resp.Status
	var envelope apiError
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	kind := classifyStatus(resp.StatusCode, message)
	if kind == ErrKindUnknown {
		return &ClientError{Kind: ErrKindUnknown, Message: "request failed: " + message}
	}
	return &ClientError{Kind: kind, Message: message}
}

// =============================================================================
// PACING AND BACKOFF
// =============================================================================

// pace blocks on the client-side rate limiter when one is configured.
func (c *Client) pace(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// backoff sleeps attempt*RetryDelay or returns early on cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * c.config.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
