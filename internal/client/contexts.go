// ABOUTME: Local cache of server-side context entries
// ABOUTME: Kept current by context/update notifications and retrieve results

package client

import (
	"sync"

	"github.com/2389/coven-mcp/internal/protocol"
)

// contextCache mirrors the context entries this client has seen, keyed by
// context ID. Entries land here on a successful store and on context/update
// notifications; the server owns every entry's lifetime, so the client
// never deletes them.
type contextCache struct {
	mu      sync.RWMutex
	entries map[string]protocol.Context
}

func newContextCache() *contextCache {
	return &contextCache{
		entries: make(map[string]protocol.Context),
	}
}

// put inserts or replaces an entry.
func (c *contextCache) put(ctx protocol.Context) {
	if ctx.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ctx.ID] = ctx
}

// get returns a cached entry by ID.
func (c *contextCache) get(id string) (protocol.Context, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// byConversation returns cached entries belonging to a conversation.
func (c *contextCache) byConversation(conversationID string) []protocol.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []protocol.Context
	for _, entry := range c.entries {
		if entry.ConversationID == conversationID {
			out = append(out, entry)
		}
	}
	return out
}

// size reports the number of cached entries.
func (c *contextCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
