// ABOUTME: Tests for the tool registry
// ABOUTME: Covers announcement queueing, idempotent unregister, and re-announce

package client

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, params json.RawMessage) (any, error) {
	return nil, nil
}

func TestRegistryQueuesAnnouncements(t *testing.T) {
	reg := newToolRegistry()
	reg.register(Tool{Name: "alpha", Handler: noopHandler})
	reg.register(Tool{Name: "beta", Handler: noopHandler})

	pending := reg.takeUnannounced()
	require.Len(t, pending, 2)
	assert.Equal(t, "alpha", pending[0].Name)
	assert.Equal(t, "beta", pending[1].Name)

	// Drained queue stays empty until something new registers.
	assert.Empty(t, reg.takeUnannounced())
}

func TestRegistryReRegisterDoesNotDuplicateQueue(t *testing.T) {
	reg := newToolRegistry()
	reg.register(Tool{Name: "alpha", Description: "v1", Handler: noopHandler})
	reg.register(Tool{Name: "alpha", Description: "v2", Handler: noopHandler})

	pending := reg.takeUnannounced()
	require.Len(t, pending, 1)
	assert.Equal(t, "v2", pending[0].Description)
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := newToolRegistry()
	reg.register(Tool{Name: "alpha", Handler: noopHandler})

	assert.True(t, reg.unregister("alpha"))
	assert.False(t, reg.unregister("alpha"))
	assert.False(t, reg.unregister("never-existed"))

	_, ok := reg.lookup("alpha")
	assert.False(t, ok)
}

func TestRegistryUnregisterRemovesQueuedAnnouncement(t *testing.T) {
	reg := newToolRegistry()
	reg.register(Tool{Name: "alpha", Handler: noopHandler})
	reg.register(Tool{Name: "beta", Handler: noopHandler})
	require.True(t, reg.unregister("alpha"))

	pending := reg.takeUnannounced()
	require.Len(t, pending, 1)
	assert.Equal(t, "beta", pending[0].Name)
}

func TestRegistryMarkAllUnannounced(t *testing.T) {
	reg := newToolRegistry()
	reg.register(Tool{Name: "alpha", Handler: noopHandler})
	reg.register(Tool{Name: "beta", Handler: noopHandler})
	reg.takeUnannounced()

	reg.markAllUnannounced()
	assert.Len(t, reg.takeUnannounced(), 2)
}
