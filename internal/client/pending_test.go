// ABOUTME: Tests for the pending request table
// ABOUTME: Exercises the exactly-once completion guarantee under races

package client

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-mcp/internal/protocol"
)

func newTestTable() *pendingTable {
	return newPendingTable(slog.Default(), nil)
}

func TestPendingResolve(t *testing.T) {
	table := newTestTable()
	ch := table.add("req-1", time.Minute)

	msg := &protocol.Message{JSONRPC: protocol.Version, ID: "req-1", Result: []byte(`{"ok":true}`)}
	require.True(t, table.resolve(msg))

	res := <-ch
	require.NoError(t, res.err)
	assert.Equal(t, "req-1", res.msg.ID)
	assert.Equal(t, 0, table.size())
}

func TestPendingResolveUnknownID(t *testing.T) {
	table := newTestTable()
	msg := &protocol.Message{JSONRPC: protocol.Version, ID: "ghost"}
	assert.False(t, table.resolve(msg))
}

func TestPendingTimeout(t *testing.T) {
	table := newTestTable()
	ch := table.add("req-1", 20*time.Millisecond)

	select {
	case res := <-ch:
		require.ErrorIs(t, res.err, ErrRequestTimeout)
	case <-time.After(time.Second):
		t.Fatal("timeout never fired")
	}
	assert.Equal(t, 0, table.size())
}

func TestPendingLateResponseAfterTimeout(t *testing.T) {
	table := newTestTable()
	ch := table.add("req-1", 10*time.Millisecond)

	res := <-ch
	require.ErrorIs(t, res.err, ErrRequestTimeout)

	// The response arriving now finds no entry and must not deliver twice.
	msg := &protocol.Message{JSONRPC: protocol.Version, ID: "req-1"}
	assert.False(t, table.resolve(msg))

	select {
	case extra := <-ch:
		t.Fatalf("request resolved twice: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPendingFailAll(t *testing.T) {
	table := newTestTable()
	ch1 := table.add("req-1", time.Minute)
	ch2 := table.add("req-2", time.Minute)

	table.failAll()

	for _, ch := range []<-chan callResult{ch1, ch2} {
		res := <-ch
		require.ErrorIs(t, res.err, ErrConnectionClosed)
	}
	assert.Equal(t, 0, table.size())
}

func TestPendingDiscard(t *testing.T) {
	table := newTestTable()
	ch := table.add("req-1", time.Minute)
	table.discard("req-1")

	assert.Equal(t, 0, table.size())
	msg := &protocol.Message{JSONRPC: protocol.Version, ID: "req-1"}
	assert.False(t, table.resolve(msg))

	select {
	case res := <-ch:
		t.Fatalf("discarded request delivered a result: %+v", res)
	case <-time.After(20 * time.Millisecond):
	}
}
