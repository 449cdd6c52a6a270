// ABOUTME: In-memory fan-out broadcaster for frames observed on the MCP channel
// ABOUTME: Publishes every inbound frame to all subscribers exactly once

package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/coven-mcp/internal/protocol"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Broadcaster provides in-memory pub/sub for frames observed on the wire.
// The protocol engine publishes each inbound frame once, regardless of which
// dispatch branch handled it; observers such as the CLI or a streaming UI
// subscribe to watch traffic without participating in dispatch.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan protocol.Message
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan protocol.Message),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for observed frames. Returns a channel
// that receives frames and a subscription ID for later unsubscription. The
// subscription is automatically cleaned up when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan protocol.Message, string) {
	subID := uuid.New().String()
	ch := make(chan protocol.Message, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends a frame to every subscriber. Non-blocking: frames are
// dropped for subscribers whose channels are full.
func (b *Broadcaster) Publish(msg protocol.Message) {
	b.mu.RLock()
	targets := make([]chan protocol.Message, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- msg:
		default:
			b.logger.Debug("dropped frame for slow subscriber",
				"kind", msg.Kind().String(),
				"method", msg.Method)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}

	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("broadcaster closed")
}
