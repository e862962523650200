// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// COALESCER
// =============================================================================

// Coalescer batches deltas for display. Deltas are accumulated and
// released either when the batch size threshold is reached or when
// enough time has passed since the last flush.
//
// This bounds rendering cost on very large streamed payloads: the
// transcript view re-renders at most once per flush interval instead of
// once per token. Coalescing never drops a delta - a withheld flush only
// delays when content surfaces, and ForceFlush drains everything at
// stream end.
//
// Thread-safety: deltas arrive from the streaming goroutine while
// flushes happen on the render loop, so all operations take the mutex.
type Coalescer struct {
	mu         sync.Mutex
	buf        strings.Builder
	deltaCount int
	lastFlush  time.Time

	// Configuration
	batchSize int           // deltas per batch before an early flush
	interval  time.Duration // minimum time between timed flushes
}

// Coalescer defaults. The 200ms interval is a tuned presentation
// heuristic carried from config, not a behavioral contract.
const (
	DefaultBatchSize = 15
	DefaultInterval  = 200 * time.Millisecond
)

// NewCoalescer creates a display coalescer. Non-positive arguments fall
// back to the defaults.
func NewCoalescer(batchSize int, interval time.Duration) *Coalescer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coalescer{
		batchSize: batchSize,
		interval:  interval,
		lastFlush: time.Now(),
	}
}

// Write adds a delta to the pending batch.
func (c *Coalescer) Write(delta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(delta)
	c.deltaCount++
}

// Flush returns the pending batch when a flush is due, either because
// the batch size was reached or the interval has elapsed. The second
// return value reports whether content was released.
func (c *Coalescer) Flush() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf.Len() == 0 || !c.dueLocked() {
		return "", false
	}
	return c.drainLocked(), true
}

// ForceFlush releases all pending content regardless of thresholds. Use
// at stream end or on cancellation so no captured delta is withheld.
func (c *Coalescer) ForceFlush() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf.Len() == 0 {
		return "", false
	}
	return c.drainLocked(), true
}

// Pending returns the number of deltas waiting to be flushed.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deltaCount
}

// Reset discards pending content, for a cancelled or restarted exchange.
func (c *Coalescer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.deltaCount = 0
	c.lastFlush = time.Now()
}

// Interval returns the configured flush interval, for render tickers.
func (c *Coalescer) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

func (c *Coalescer) dueLocked() bool {
	if c.deltaCount >= c.batchSize {
		return true
	}
	return time.Since(c.lastFlush) >= c.interval
}

func (c *Coalescer) drainLocked() string {
	content := c.buf.String()
	c.buf.Reset()
	c.deltaCount = 0
	c.lastFlush = time.Now()
	return content
}
