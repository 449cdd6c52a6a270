// ABOUTME: Inbound frame dispatch: responses, server requests, notifications
// ABOUTME: Tool calls run in their own goroutines with panic recovery

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2389/coven-mcp/internal/metrics"
	"github.com/2389/coven-mcp/internal/protocol"
)

// handleFrame routes one decoded inbound frame. Every frame is published to
// the event broadcaster exactly once, here, before any handling.
func (c *Client) handleFrame(msg *protocol.Message) {
	c.events.Publish(*msg)

	switch msg.Kind() {
	case protocol.KindResponse:
		c.handleResponse(msg)
	case protocol.KindRequest:
		c.handleServerRequest(msg)
	case protocol.KindNotification:
		c.handleNotification(msg)
	default:
		c.metrics.FrameDropped()
		c.logger.Warn("dropping unclassifiable frame", "id", msg.ID, "method", msg.Method)
	}
}

// handleResponse resolves the matching pending request. Responses with no
// matching request are late arrivals (the request timed out or the table
// was cleared on a disconnect) and are logged and dropped.
func (c *Client) handleResponse(msg *protocol.Message) {
	if !c.pending.resolve(msg) {
		c.logger.Debug("ignoring response for unknown request", "request_id", msg.ID)
	}
}

// handleServerRequest dispatches a request initiated by the server. The
// reply carries the same ID. Unknown methods get a method-not-found error
// so the server's own pending table can resolve.
func (c *Client) handleServerRequest(msg *protocol.Message) {
	switch msg.Method {
	case protocol.MethodToolCall:
		go c.invokeTool(msg)
	case protocol.MethodPing:
		c.replyResult(msg.ID, protocol.PingResult{Pong: true})
	default:
		c.logger.Warn("server requested unknown method", "method", msg.Method, "request_id", msg.ID)
		c.replyError(msg.ID, protocol.CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

// invokeTool runs a locally registered tool and replies with its result.
// Runs on its own goroutine so a slow handler never blocks the read loop.
// A panicking handler is recovered into a failed result rather than taking
// the connection down.
func (c *Client) invokeTool(msg *protocol.Message) {
	var params protocol.ToolCallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		c.replyError(msg.ID, protocol.CodeInvalidParams, "invalid tool call params")
		return
	}

	tool, ok := c.registry.lookup(params.ToolName)
	if !ok {
		c.logger.Warn("tool call for unregistered tool", "tool", params.ToolName)
		c.metrics.ToolCall(metrics.OutcomeNotFound)
		c.replyResult(msg.ID, protocol.ToolCallResult{
			Success: false,
			Error:   fmt.Sprintf("tool not found: %s", params.ToolName),
		})
		return
	}

	start := time.Now()
	result, err := c.runToolHandler(tool, params.Parameters)
	elapsed := time.Since(start).Milliseconds()

	reply := protocol.ToolCallResult{
		Metadata: protocol.ToolCallMetadata{ExecutionTime: elapsed},
	}
	if err != nil {
		c.logger.Warn("tool handler failed", "tool", params.ToolName, "error", err)
		c.metrics.ToolCall(metrics.OutcomeError)
		reply.Error = err.Error()
	} else if raw, merr := json.Marshal(result); merr != nil {
		c.logger.Warn("tool result not serializable", "tool", params.ToolName, "error", merr)
		c.metrics.ToolCall(metrics.OutcomeError)
		reply.Error = fmt.Sprintf("unserializable tool result: %v", merr)
	} else {
		c.metrics.ToolCall(metrics.OutcomeSuccess)
		reply.Success = true
		reply.Result = raw
	}
	c.replyResult(msg.ID, reply)
}

// runToolHandler executes the handler, converting a panic into an error.
func (c *Client) runToolHandler(tool Tool, params json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("tool handler panicked", "tool", tool.Name, "panic", r)
			err = fmt.Errorf("tool handler panicked: %v", r)
		}
	}()
	return tool.Handler(context.Background(), params)
}

// handleNotification offers the frame to the interceptor list first; a
// consumed frame (an active stream's chunk) goes no further. Unconsumed
// notifications get their default handling, then the OnMessage callback.
func (c *Client) handleNotification(msg *protocol.Message) {
	if c.interceptors.dispatch(msg) {
		if msg.Method == protocol.MethodStreamChunk {
			c.metrics.StreamChunk()
		}
		return
	}

	switch msg.Method {
	case protocol.MethodContextUpdate:
		var ctx protocol.Context
		if err := json.Unmarshal(msg.Params, &ctx); err != nil {
			c.logger.Warn("malformed context update", "error", err)
			c.metrics.FrameDropped()
			return
		}
		c.contexts.put(ctx)
		c.logger.Debug("context updated", "context_id", ctx.ID, "conversation_id", ctx.ConversationID)
	case protocol.MethodStreamChunk:
		// A chunk with no live bridge: the stream already finished or
		// was torn down. Drop it.
		c.logger.Debug("dropping chunk with no active stream")
	}

	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(*msg)
	}
}

// replyResult sends a success response for a server-initiated request.
func (c *Client) replyResult(id string, result any) {
	msg, err := protocol.NewResult(id, result)
	if err != nil {
		c.logger.Error("failed to build response", "request_id", id, "error", err)
		return
	}
	if err := c.writeMessage(&msg); err != nil {
		c.logger.Warn("failed to send response", "request_id", id, "error", err)
	}
}

// replyError sends an error response for a server-initiated request.
func (c *Client) replyError(id string, code int, message string) {
	msg := protocol.NewError(id, code, message)
	if err := c.writeMessage(&msg); err != nil {
		c.logger.Warn("failed to send error response", "request_id", id, "error", err)
	}
}
