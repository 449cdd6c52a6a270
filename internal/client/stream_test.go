// ABOUTME: Tests for the interceptor list and stream bridge
// ABOUTME: Verifies consumption order, per-stream filtering, and single resolution

package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-mcp/internal/protocol"
)

func chunkNotification(t *testing.T, chunk protocol.StreamChunk) *protocol.Message {
	t.Helper()
	msg, err := protocol.NewNotification(protocol.MethodStreamChunk, chunk)
	require.NoError(t, err)
	return &msg
}

func TestInterceptorOrderAndConsumption(t *testing.T) {
	list := newInterceptorList()
	var order []string

	list.add("first", func(msg *protocol.Message) bool {
		order = append(order, "first")
		return false
	})
	list.add("second", func(msg *protocol.Message) bool {
		order = append(order, "second")
		return true
	})
	list.add("third", func(msg *protocol.Message) bool {
		order = append(order, "third")
		return true
	})

	msg := &protocol.Message{JSONRPC: protocol.Version, Method: "anything"}
	assert.True(t, list.dispatch(msg))
	// The third interceptor never runs: the second consumed the frame.
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestInterceptorRemove(t *testing.T) {
	list := newInterceptorList()
	list.add("only", func(msg *protocol.Message) bool { return true })
	list.remove("only")

	msg := &protocol.Message{JSONRPC: protocol.Version, Method: "anything"}
	assert.False(t, list.dispatch(msg))
}

func TestStreamBridgeFiltersByStreamID(t *testing.T) {
	var chunks []protocol.StreamChunk
	bridge := newStreamBridge("mine", func(c protocol.StreamChunk) {
		chunks = append(chunks, c)
	})

	assert.False(t, bridge.intercept(chunkNotification(t, protocol.StreamChunk{StreamID: "theirs", Delta: "x"})))
	assert.True(t, bridge.intercept(chunkNotification(t, protocol.StreamChunk{StreamID: "mine", Delta: "Hel"})))
	assert.True(t, bridge.intercept(chunkNotification(t, protocol.StreamChunk{StreamID: "mine", Delta: "lo", Done: true})))

	<-bridge.done
	content, err := bridge.result()
	require.NoError(t, err)
	assert.Equal(t, "Hello", content)
	assert.Len(t, chunks, 2)
}

func TestStreamBridgeIgnoresNonChunkFrames(t *testing.T) {
	bridge := newStreamBridge("mine", nil)

	other, err := protocol.NewNotification(protocol.MethodContextUpdate, nil)
	require.NoError(t, err)
	assert.False(t, bridge.intercept(&other))

	req, err := protocol.NewRequest("id-1", protocol.MethodStreamChunk, protocol.StreamChunk{StreamID: "mine"})
	require.NoError(t, err)
	assert.False(t, bridge.intercept(&req))
}

func TestStreamBridgeChunksAfterDoneAreDropped(t *testing.T) {
	bridge := newStreamBridge("mine", nil)

	require.True(t, bridge.intercept(chunkNotification(t, protocol.StreamChunk{StreamID: "mine", Content: "final", Done: true})))
	// Still consumed so it does not leak to default handling, but the
	// content must not change after resolution.
	require.True(t, bridge.intercept(chunkNotification(t, protocol.StreamChunk{StreamID: "mine", Delta: "late"})))

	content, err := bridge.result()
	require.NoError(t, err)
	assert.Equal(t, "final", content)
}

func TestStreamBridgeFailResolvesOnce(t *testing.T) {
	bridge := newStreamBridge("mine", nil)
	bridge.fail(ErrStreamClosed)
	bridge.fail(ErrConnectionClosed)

	<-bridge.done
	_, err := bridge.result()
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestStreamBridgeMalformedChunkPassesThrough(t *testing.T) {
	bridge := newStreamBridge("mine", nil)
	msg := &protocol.Message{
		JSONRPC: protocol.Version,
		Method:  protocol.MethodStreamChunk,
		Params:  json.RawMessage(`{"stream_id":42}`),
	}
	assert.False(t, bridge.intercept(msg))
}
