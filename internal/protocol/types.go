// ABOUTME: Method names and typed parameter/result structs for the MCP channel.
// ABOUTME: Decoded at the dispatch boundary so handlers never see untyped JSON.

package protocol

import (
	"encoding/json"
	"time"
)

// Methods consumed and produced by the client.
const (
	MethodInitialize      = "initialize"
	MethodAuthenticate    = "authenticate"
	MethodPing            = "ping"
	MethodToolRegister    = "tool/register"
	MethodToolUnregister  = "tool/unregister"
	MethodToolCall        = "tool/call"
	MethodContextStore    = "context/store"
	MethodContextRetrieve = "context/retrieve"
	MethodContextUpdate   = "context/update"
	MethodChatStream      = "chat/stream"
	MethodStreamChunk     = "stream/chunk"
)

// ClientInfo identifies the client in the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities announces which protocol features the client supports.
type Capabilities struct {
	Tools     bool `json:"tools"`
	Context   bool `json:"context"`
	Streaming bool `json:"streaming"`
	Functions bool `json:"functions"`
	Knowledge bool `json:"knowledge"`
}

// InitializeParams are the params for the initialize request.
type InitializeParams struct {
	ClientInfo   ClientInfo   `json:"client_info"`
	Capabilities Capabilities `json:"capabilities"`
}

// ServerInfo is the server's half of the handshake: capabilities and version
// negotiated once per connection, immutable until disconnect.
type ServerInfo struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	ProtocolVersion string          `json:"protocol_version,omitempty"`
	Capabilities    map[string]bool `json:"capabilities,omitempty"`
}

// AuthenticateParams are the params for the authenticate request.
type AuthenticateParams struct {
	Token string `json:"token"`
}

// AuthenticateResult is the result of the authenticate request.
type AuthenticateResult struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
}

// PingResult is the reply sent for a ping request.
type PingResult struct {
	Pong bool `json:"pong"`
}

// ToolRegisterParams announce a locally registered tool to the server.
type ToolRegisterParams struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolUnregisterParams withdraw a tool announcement.
type ToolUnregisterParams struct {
	Name string `json:"name"`
}

// ToolCallParams are the params of a server-initiated tool/call request.
type ToolCallParams struct {
	ToolName   string          `json:"tool_name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// ToolCallMetadata carries execution stats alongside a tool result.
type ToolCallMetadata struct {
	ExecutionTime int64 `json:"execution_time"` // milliseconds
}

// ToolCallResult is the reply to a tool/call request. A failing handler
// produces Success=false with Error set; the reply itself is always a
// well-formed success Response at the transport level.
type ToolCallResult struct {
	Success  bool             `json:"success"`
	Result   json.RawMessage  `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Metadata ToolCallMetadata `json:"metadata"`
}

// ContextMetadata describes how and when a context blob was produced.
type ContextMetadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Model      string    `json:"model,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
}

// Context is a conversation context blob. The server owns its lifetime; the
// client only caches the last-known copy per id.
type Context struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Content        json.RawMessage `json:"content"`
	Metadata       ContextMetadata `json:"metadata"`
}

// ContextQuery filters a context/retrieve request.
type ContextQuery struct {
	ConversationID string     `json:"conversation_id,omitempty"`
	Since          *time.Time `json:"since,omitempty"`
	Until          *time.Time `json:"until,omitempty"`
	Limit          int        `json:"limit,omitempty"`
}

// ContextRetrieveResult is the server's list reply for context/retrieve.
type ContextRetrieveResult struct {
	Contexts []Context `json:"contexts"`
}

// ChatStreamParams start a streaming chat exchange correlated by StreamID.
type ChatStreamParams struct {
	StreamID       string         `json:"stream_id"`
	Message        string         `json:"message"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// StreamChunk is the payload of a stream/chunk notification. Done marks the
// final chunk of the stream.
type StreamChunk struct {
	StreamID string `json:"stream_id"`
	Content  string `json:"content,omitempty"`
	Delta    string `json:"delta,omitempty"`
	Done     bool   `json:"done"`
}
