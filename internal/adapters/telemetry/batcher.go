// Package telemetry provides adapters for collecting and processing telemetry data.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultBatchBytes is the buffered size at which complete lines are flushed.
	DefaultBatchBytes = 4096
	// DefaultBatchDelay is the longest time output stays buffered.
	DefaultBatchDelay = 50 * time.Millisecond
)

// ErrBatcherClosed is returned by Write after Close.
var ErrBatcherClosed = zerr.New("output batcher is closed")

// OutputBatcher collects the output of a task and hands it to a sink in chunks.
//
// Once DefaultBatchBytes or more are buffered, every complete line is flushed and a
// trailing partial line stays buffered. Whatever is buffered is flushed at the latest
// one delay after the first byte arrived, and on Close. Chunks reach the sink in write
// order. OutputBatcher is safe for concurrent use.
type OutputBatcher struct {
	maxBytes int
	delay    time.Duration
	sink     func([]byte)

	mu     sync.Mutex
	buf    bytes.Buffer
	timer  *time.Timer
	closed bool
}

// NewOutputBatcher returns a batcher that passes chunks to sink. Non-positive limits
// select the defaults.
func NewOutputBatcher(maxBytes int, delay time.Duration, sink func([]byte)) *OutputBatcher {
	if maxBytes <= 0 {
		maxBytes = DefaultBatchBytes
	}
	if delay <= 0 {
		delay = DefaultBatchDelay
	}
	return &OutputBatcher{maxBytes: maxBytes, delay: delay, sink: sink}
}

// Write buffers p.
func (b *OutputBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBatcherClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	wasEmpty := b.buf.Len() == 0
	b.buf.Write(p)

	if b.buf.Len() >= b.maxBytes {
		if i := bytes.LastIndexByte(b.buf.Bytes(), '\n'); i >= 0 {
			b.emitLocked(i + 1)
		}
	}

	switch {
	case b.buf.Len() == 0:
		b.stopTimerLocked()
	case wasEmpty || b.timer == nil:
		b.armLocked()
	}
	return len(p), nil
}

// Flush hands everything buffered to the sink.
func (b *OutputBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.stopTimerLocked()
	b.emitLocked(b.buf.Len())
}

// Close flushes the buffer. Later writes fail with ErrBatcherClosed.
func (b *OutputBatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.stopTimerLocked()
	b.emitLocked(b.buf.Len())
	return nil
}

func (b *OutputBatcher) armLocked() {
	b.stopTimerLocked()
	b.timer = time.AfterFunc(b.delay, b.Flush)
}

func (b *OutputBatcher) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// emitLocked passes the first n buffered bytes to the sink. The sink runs under mu so
// chunks keep their order.
func (b *OutputBatcher) emitLocked(n int) {
	if n == 0 {
		return
	}
	chunk := make([]byte, n)
	copy(chunk, b.buf.Next(n))
	if b.sink != nil {
		b.sink(chunk)
	}
}
