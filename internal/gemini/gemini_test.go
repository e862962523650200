// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseBody renders reply fragments as an SSE stream body.
func sseBody(fragments ...string) string {
	var sb strings.Builder
	for _, f := range fragments {
		fmt.Fprintf(&sb, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}}]}\n\n", f)
	}
	return sb.String()
}

// testClient builds a client pointed at the test server with a fast
// retry delay.
func testClient(serverURL string) *Client {
	return NewClient(&ClientConfig{
		BaseURL:     serverURL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxAttempts: 3,
		RetryDelay:  5 * time.Millisecond,
	})
}

// TestStreamGenerateDeltas verifies deltas arrive in order and concatenate
// to the full reply.
func TestStreamGenerateDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.URL.Path, "test-model")
		fmt.Fprint(w, sseBody("Hello", ", ", "world"))
	}))
	defer server.Close()

	var got []string
	err := testClient(server.URL).StreamGenerate(context.Background(),
		[]Content{NewTextContent(RoleUser, "hi")},
		func(delta string) { got = append(got, delta) })

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", ", "world"}, got)
	assert.Equal(t, "Hello, world", strings.Join(got, ""))
}

// TestRetryOverloadedThenSuccess verifies the retry budget: two overload
// responses followed by a success yields exactly three attempts and no
// surfaced error.
func TestRetryOverloadedThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		fmt.Fprint(w, sseBody("ok"))
	}))
	defer server.Close()

	var reply strings.Builder
	err := testClient(server.URL).StreamGenerate(context.Background(),
		[]Content{NewTextContent(RoleUser, "hi")},
		func(delta string) { reply.WriteString(delta) })

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, "ok", reply.String())
}

// TestRetryBudgetExhausted verifies the final transient error surfaces
// after the attempt budget is spent.
func TestRetryBudgetExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := testClient(server.URL).StreamGenerate(context.Background(),
		[]Content{NewTextContent(RoleUser, "hi")}, func(string) {})

	require.Error(t, err)
	assert.Equal(t, ErrKindServiceOverloaded, KindOf(err))
	assert.Equal(t, int32(3), attempts.Load())
}

// TestNonTransientNotRetried verifies non-transient kinds surface on the
// first occurrence.
func TestNonTransientNotRetried(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		message string
		kind    ErrorKind
	}{
		{"token limit", 400, "input exceeds the maximum number of tokens", ErrKindTokenLimitExceeded},
		{"payload", 413, "request entity too large", ErrKindPayloadTooLarge},
		{"safety", 400, "request blocked for safety reasons", ErrKindContentRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tc.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, tc.status, tc.message)
			}))
			defer server.Close()

			err := testClient(server.URL).StreamGenerate(context.Background(),
				[]Content{NewTextContent(RoleUser, "hi")}, func(string) {})

			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
			assert.Equal(t, int32(1), attempts.Load(), "non-transient errors must not be retried")
		})
	}
}

// TestCancellationMidStream verifies cancellation stops delta delivery
// promptly, starts no retry, and leaves the partial text with the caller.
func TestCancellationMidStream(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		flusher := w.(http.Flusher)
		fmt.Fprint(w, sseBody("partial "))
		flusher.Flush()
		fmt.Fprint(w, sseBody("text"))
		flusher.Flush()
		// Hold the stream open so cancellation, not EOF, ends it.
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, sseBody(" never-seen"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var reply strings.Builder
	deltas := 0
	err := testClient(server.URL).StreamGenerate(ctx,
		[]Content{NewTextContent(RoleUser, "hi")},
		func(delta string) {
			reply.WriteString(delta)
			deltas++
			if deltas == 2 {
				cancel()
			}
		})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "partial text", reply.String())
	assert.Equal(t, int32(1), attempts.Load(), "cancellation must not trigger retries")
}

// TestMidStreamFailureNotRetried verifies a stream that drops after
// delivering deltas is not replayed.
func TestMidStreamFailureNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		flusher := w.(http.Flusher)
		fmt.Fprint(w, sseBody("some "))
		flusher.Flush()
		// Drop the connection mid-reply.
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer server.Close()

	var reply strings.Builder
	err := testClient(server.URL).StreamGenerate(context.Background(),
		[]Content{NewTextContent(RoleUser, "hi")},
		func(delta string) { reply.WriteString(delta) })

	require.Error(t, err)
	assert.Equal(t, ErrKindNetworkUnreachable, KindOf(err))
	assert.Equal(t, "some ", reply.String(), "partial text is preserved by the caller")
	assert.Equal(t, int32(1), attempts.Load(), "partially consumed streams must not be replayed")
}

// TestSafetyBlockMidStream verifies a safety-blocked chunk surfaces as
// ContentRejected.
func TestSafetyBlockMidStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseBody("start"))
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[]},\"finishReason\":\"SAFETY\"}]}\n\n")
	}))
	defer server.Close()

	err := testClient(server.URL).StreamGenerate(context.Background(),
		[]Content{NewTextContent(RoleUser, "hi")}, func(string) {})

	require.Error(t, err)
	assert.Equal(t, ErrKindContentRejected, KindOf(err))
}

// TestUpload verifies the files endpoint round trip.
func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "report.pdf", r.Header.Get("X-Goog-File-Name"))
		fmt.Fprint(w, `{"file":{"name":"files/abc","uri":"https://files.example/abc","mimeType":"application/pdf"}}`)
	}))
	defer server.Close()

	ref, err := testClient(server.URL).Upload(context.Background(),
		[]byte("%PDF-1.4"), "application/pdf", "report.pdf")

	require.NoError(t, err)
	assert.Equal(t, "https://files.example/abc", ref.URI)
	assert.Equal(t, "application/pdf", ref.MIMEType)
}

// TestUploadFailureCarriesSize verifies registration errors carry the
// attempted size for diagnostic classification.
func TestUploadFailureCarriesSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer server.Close()

	data := make([]byte, 4096)
	_, err := testClient(server.URL).Upload(context.Background(), data, "application/pdf", "big.pdf")

	require.Error(t, err)
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, int64(4096), ce.Size)
}

// TestClassifyStatus covers the status-to-kind mapping.
func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ErrKindServiceOverloaded, classifyStatus(429, ""))
	assert.Equal(t, ErrKindServiceOverloaded, classifyStatus(503, ""))
	assert.Equal(t, ErrKindPayloadTooLarge, classifyStatus(413, ""))
	assert.Equal(t, ErrKindTokenLimitExceeded, classifyStatus(400, "exceeds the maximum number of tokens"))
	assert.Equal(t, ErrKindContentRejected, classifyStatus(400, "blocked by safety settings"))
	assert.Equal(t, ErrKindUnknown, classifyStatus(400, "malformed request"))
}

// TestErrorKindRetryable pins down which kinds the budget absorbs.
func TestErrorKindRetryable(t *testing.T) {
	assert.True(t, ErrKindNetworkUnreachable.Retryable())
	assert.True(t, ErrKindServiceOverloaded.Retryable())
	assert.False(t, ErrKindContentRejected.Retryable())
	assert.False(t, ErrKindPayloadTooLarge.Retryable())
	assert.False(t, ErrKindTokenLimitExceeded.Retryable())
	assert.False(t, ErrKindAttachmentTooLarge.Retryable())
}
