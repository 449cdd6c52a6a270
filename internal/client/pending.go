// ABOUTME: Pending request table correlating outbound requests with responses
// ABOUTME: Each entry resolves exactly once: response, timeout, or disconnect

package client

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/coven-mcp/internal/metrics"
	"github.com/2389/coven-mcp/internal/protocol"
)

var (
	// ErrRequestTimeout indicates the server did not respond within the
	// request deadline.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrConnectionClosed indicates the channel closed while the request
	// was in flight.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrNotConnected indicates an operation that requires an open channel.
	ErrNotConnected = errors.New("not connected")
)

// callResult is what a waiting caller receives: either the response frame
// or the error that completed the request.
type callResult struct {
	msg *protocol.Message
	err error
}

type pendingEntry struct {
	ch    chan callResult
	timer *time.Timer
}

// pendingTable tracks in-flight requests by ID. Completion removes the
// entry under the lock before delivery, so a request can never resolve
// twice: whichever of response, timeout, or disconnect arrives first wins,
// and the losers find the entry gone.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newPendingTable(logger *slog.Logger, m *metrics.Metrics) *pendingTable {
	return &pendingTable{
		entries: make(map[string]*pendingEntry),
		logger:  logger,
		metrics: m,
	}
}

// add registers a request and arms its deadline timer. The returned channel
// receives exactly one callResult.
func (t *pendingTable) add(id string, timeout time.Duration) <-chan callResult {
	ch := make(chan callResult, 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := &pendingEntry{ch: ch}
	entry.timer = time.AfterFunc(timeout, func() {
		t.expire(id)
	})
	t.entries[id] = entry
	return ch
}

// resolve completes a request with the server's response. Returns false when
// no matching request exists, which happens for responses that arrive after
// their request already timed out or the table was cleared on disconnect.
func (t *pendingTable) resolve(msg *protocol.Message) bool {
	t.mu.Lock()
	entry, ok := t.entries[msg.ID]
	if ok {
		delete(t.entries, msg.ID)
		entry.timer.Stop()
	}
	t.mu.Unlock()

	if !ok {
		return false
	}

	entry.ch <- callResult{msg: msg}
	return true
}

// expire completes a request with ErrRequestTimeout. A response racing the
// timer may have already removed the entry; in that case this is a no-op.
func (t *pendingTable) expire(id string) {
	t.mu.Lock()
	entry, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	t.logger.Warn("request timed out", "request_id", id)
	t.metrics.RequestFailed(metrics.ReasonTimeout)
	entry.ch <- callResult{err: ErrRequestTimeout}
}

// discard removes a request without delivering a result. Used when the
// caller already has an error in hand, such as a failed write or a
// cancelled context, and will not read the channel again.
func (t *pendingTable) discard(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.entries[id]; ok {
		entry.timer.Stop()
		delete(t.entries, id)
	}
}

// failAll completes every in-flight request with ErrConnectionClosed.
// Called when the channel goes down.
func (t *pendingTable) failAll() {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[string]*pendingEntry)
	t.mu.Unlock()

	for id, entry := range entries {
		entry.timer.Stop()
		t.metrics.RequestFailed(metrics.ReasonConnectionClosed)
		entry.ch <- callResult{err: ErrConnectionClosed}
		t.logger.Debug("failed pending request on disconnect", "request_id", id)
	}
}

// size reports the number of in-flight requests.
func (t *pendingTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
