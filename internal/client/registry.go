// ABOUTME: Local tool registry with server announcement tracking
// ABOUTME: Registrations made before the handshake finishes are queued and flushed on Ready

package client

import (
	"context"
	"encoding/json"
	"sync"
)

// ToolHandler executes a tool call. Params is the raw JSON parameters
// object from the server. The returned value is marshalled into the
// response; a non-nil error produces a failed tool result instead.
type ToolHandler func(ctx context.Context, params json.RawMessage) (any, error)

// Tool describes a locally registered tool. Parameters is the JSON schema
// announced to the server, if any.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Handler     ToolHandler
}

// toolRegistry holds the tools this client serves. Tools registered while
// the channel is down or still handshaking are queued for announcement and
// flushed once the connection reaches Ready.
type toolRegistry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	unannounced []string
}

func newToolRegistry() *toolRegistry {
	return &toolRegistry{
		tools: make(map[string]Tool),
	}
}

// register stores the tool locally and marks it as needing announcement.
// Re-registering a name replaces the previous handler.
func (r *toolRegistry) register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; !exists {
		r.unannounced = append(r.unannounced, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// unregister removes the tool. Removing an unknown name is a no-op;
// the returned bool reports whether the tool existed.
func (r *toolRegistry) unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)

	for i, queued := range r.unannounced {
		if queued == name {
			r.unannounced = append(r.unannounced[:i], r.unannounced[i+1:]...)
			break
		}
	}
	return true
}

// lookup returns the tool by name.
func (r *toolRegistry) lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// takeUnannounced drains the announcement queue, returning the tools that
// still need a tool/register sent to the server.
func (r *toolRegistry) takeUnannounced() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]Tool, 0, len(r.unannounced))
	for _, name := range r.unannounced {
		if tool, ok := r.tools[name]; ok {
			pending = append(pending, tool)
		}
	}
	r.unannounced = nil
	return pending
}

// markAllUnannounced requeues every registered tool, used after a reconnect
// so the new session re-announces the full set.
func (r *toolRegistry) markAllUnannounced() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unannounced = r.unannounced[:0]
	for name := range r.tools {
		r.unannounced = append(r.unannounced, name)
	}
}

// names returns the registered tool names.
func (r *toolRegistry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	return out
}
