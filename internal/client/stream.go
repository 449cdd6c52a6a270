// ABOUTME: Ordered interceptor list and the streaming chat bridge built on it
// ABOUTME: Each active stream owns one interceptor keyed by stream ID

package client

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/2389/coven-mcp/internal/protocol"
)

// ErrStreamClosed indicates the channel went down before the stream
// finished.
var ErrStreamClosed = errors.New("stream closed before completion")

// Interceptor inspects an inbound frame before default dispatch. Returning
// true consumes the frame: later interceptors and the default handlers do
// not see it.
type Interceptor func(msg *protocol.Message) bool

type interceptorEntry struct {
	id string
	fn Interceptor
}

// interceptorList is an ordered set of frame interceptors. Interceptors run
// in registration order; the first one to consume a frame wins. Removal by
// ID lets each streaming bridge clean up after itself without touching the
// others, so any number of streams can be active at once.
type interceptorList struct {
	mu      sync.Mutex
	entries []interceptorEntry
	nextID  int
}

func newInterceptorList() *interceptorList {
	return &interceptorList{}
}

func (l *interceptorList) add(id string, fn Interceptor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, interceptorEntry{id: id, fn: fn})
}

func (l *interceptorList) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, entry := range l.entries {
		if entry.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// dispatch offers the frame to each interceptor in order. Reports whether
// any interceptor consumed it.
func (l *interceptorList) dispatch(msg *protocol.Message) bool {
	l.mu.Lock()
	entries := make([]interceptorEntry, len(l.entries))
	copy(entries, l.entries)
	l.mu.Unlock()

	for _, entry := range entries {
		if entry.fn(msg) {
			return true
		}
	}
	return false
}

// streamBridge accumulates chunks for one streaming response. It resolves
// exactly once, on the final chunk or on teardown.
type streamBridge struct {
	streamID string
	onChunk  func(protocol.StreamChunk)

	mu       sync.Mutex
	resolved bool
	content  string
	done     chan struct{}
	err      error
}

func newStreamBridge(streamID string, onChunk func(protocol.StreamChunk)) *streamBridge {
	return &streamBridge{
		streamID: streamID,
		onChunk:  onChunk,
		done:     make(chan struct{}),
	}
}

// intercept is the bridge's Interceptor: it consumes stream/chunk
// notifications carrying this bridge's stream ID and ignores everything
// else, including chunks for other streams.
func (b *streamBridge) intercept(msg *protocol.Message) bool {
	if msg.Kind() != protocol.KindNotification || msg.Method != protocol.MethodStreamChunk {
		return false
	}

	var chunk protocol.StreamChunk
	if err := json.Unmarshal(msg.Params, &chunk); err != nil {
		return false
	}
	if chunk.StreamID != b.streamID {
		return false
	}

	b.mu.Lock()
	if b.resolved {
		b.mu.Unlock()
		return true
	}
	if chunk.Delta != "" {
		b.content += chunk.Delta
	} else if chunk.Content != "" {
		b.content = chunk.Content
	}
	final := chunk.Done
	if final {
		b.resolved = true
	}
	b.mu.Unlock()

	if b.onChunk != nil {
		b.onChunk(chunk)
	}
	if final {
		close(b.done)
	}
	return true
}

// fail resolves the bridge with an error if it has not already completed.
func (b *streamBridge) fail(err error) {
	b.mu.Lock()
	if b.resolved {
		b.mu.Unlock()
		return
	}
	b.resolved = true
	b.err = err
	b.mu.Unlock()
	close(b.done)
}

// result returns the accumulated content and any terminal error. Only valid
// after the done channel closes.
func (b *streamBridge) result() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content, b.err
}
