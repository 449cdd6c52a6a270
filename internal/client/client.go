// ABOUTME: Public MCP client API: configuration, lifecycle, and operations
// ABOUTME: One Client owns one WebSocket channel at a time

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/2389/coven-mcp/internal/events"
	"github.com/2389/coven-mcp/internal/metrics"
	"github.com/2389/coven-mcp/internal/protocol"
)

// Connection lifecycle defaults.
const (
	DefaultPingInterval         = 30 * time.Second
	DefaultRequestTimeout       = 30 * time.Second
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultHandshakeTimeout     = 10 * time.Second
)

// ConnectionState tracks where the client is in the connection lifecycle.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateInitialized
	StateAuthenticated
	StateReady
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateInitialized:
		return "initialized"
	case StateAuthenticated:
		return "authenticated"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Config carries the connection settings for a Client. Zero durations and
// counts take their defaults; set MaxReconnectAttempts negative for
// unlimited retries.
type Config struct {
	URL   string
	Token string

	ClientName    string
	ClientVersion string
	Capabilities  protocol.Capabilities

	PingInterval     time.Duration
	RequestTimeout   time.Duration
	HandshakeTimeout time.Duration

	Reconnect            bool
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
}

func (c *Config) applyDefaults() {
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = DefaultReconnectInterval
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.ClientName == "" {
		c.ClientName = "coven-mcp"
	}
}

// Handlers are optional lifecycle callbacks. All of them are invoked from
// the client's own goroutines, never concurrently with themselves.
type Handlers struct {
	// OnOpen fires when the connection reaches Ready.
	OnOpen func()
	// OnClose fires when the channel goes down, with the cause.
	OnClose func(err error)
	// OnError fires for terminal failures, such as reconnection giving up.
	OnError func(err error)
	// OnMessage fires for inbound notifications not consumed by an
	// active stream.
	OnMessage func(msg protocol.Message)
	// OnAuthenticated fires when the authenticate step succeeds, with the
	// user id the server resolved the token to.
	OnAuthenticated func(userID string)
	// OnReconnect fires at the start of every reconnection attempt with
	// the attempt number, so a caller can watch a failing sequence before
	// the terminal OnError.
	OnReconnect func(attempt int)
}

// Client is an MCP client speaking JSON-RPC 2.0 over a WebSocket channel.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	handlers Handlers

	pending      *pendingTable
	registry     *toolRegistry
	contexts     *contextCache
	interceptors *interceptorList
	events       *events.Broadcaster

	// mu guards the connection identity and lifecycle state below.
	mu            sync.Mutex
	conn          *websocket.Conn
	state         ConnectionState
	generation    int
	stopPing      chan struct{}
	closing       bool
	authenticated bool
	serverInfo    *protocol.ServerInfo

	// writeMu serializes frame writes on the shared connection.
	writeMu sync.Mutex

	streamMu sync.Mutex
	streams  map[string]*streamBridge
}

// New creates a Client. The metrics argument may be nil to disable
// instrumentation.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		pending:      newPendingTable(logger, m),
		registry:     newToolRegistry(),
		contexts:     newContextCache(),
		interceptors: newInterceptorList(),
		events:       events.NewBroadcaster(logger),
		streams:      make(map[string]*streamBridge),
	}
}

// SetHandlers installs the lifecycle callbacks. Must be called before
// Connect.
func (c *Client) SetHandlers(h Handlers) {
	c.handlers = h
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the channel is up and the handshake has
// completed.
func (c *Client) IsConnected() bool {
	return c.State() == StateReady
}

// IsAuthenticated reports whether the current connection passed the
// authenticate step. Always false in unauthenticated mode and after a
// disconnect.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// ServerInfo returns the server identity from the initialize handshake,
// or nil before the first successful handshake.
func (c *Client) ServerInfo() *protocol.ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// Subscribe returns a channel observing every inbound frame. Cancel the
// context to unsubscribe.
func (c *Client) Subscribe(ctx context.Context) <-chan protocol.Message {
	ch, _ := c.events.Subscribe(ctx)
	return ch
}

// Call sends a request and blocks until the response arrives, the request
// deadline passes, the context is cancelled, or the channel closes. The
// response result is unmarshalled into result when it is non-nil.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.call(ctx, method, params, result)
}

// call is Call without the readiness check, so the handshake can use it
// while the state is still Connecting.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id := uuid.New().String()
	msg, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}

	ch := c.pending.add(id, c.cfg.RequestTimeout)
	if err := c.writeMessage(&msg); err != nil {
		c.pending.discard(id)
		return fmt.Errorf("sending %s request: %w", method, err)
	}
	c.metrics.RequestSent()

	select {
	case res := <-ch:
		if res.err != nil {
			return fmt.Errorf("%s: %w", method, res.err)
		}
		if res.msg.Error != nil {
			c.metrics.RequestFailed(metrics.ReasonRPCError)
			return fmt.Errorf("%s: %w", method, res.msg.Error)
		}
		if result != nil && len(res.msg.Result) > 0 {
			if err := json.Unmarshal(res.msg.Result, result); err != nil {
				return fmt.Errorf("decoding %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.pending.discard(id)
		return ctx.Err()
	}
}

// Notify sends a notification. No response is expected and none is waited
// for. Notifications while disconnected are dropped with a warning rather
// than returned as an error.
func (c *Client) Notify(method string, params any) error {
	msg, err := protocol.NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("building %s notification: %w", method, err)
	}
	if err := c.writeMessage(&msg); err != nil {
		if errors.Is(err, ErrNotConnected) {
			c.logger.Warn("dropping notification while disconnected", "method", method)
			return nil
		}
		return err
	}
	return nil
}

// RegisterTool registers a tool locally and announces it to the server.
// Called before the connection is Ready, the announcement is queued and
// flushed when the handshake completes.
func (c *Client) RegisterTool(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}

	c.registry.register(tool)
	if c.IsConnected() {
		return c.announceTools()
	}
	c.logger.Debug("queued tool announcement", "tool", tool.Name)
	return nil
}

// UnregisterTool removes a tool and tells the server. Removing a tool that
// was never registered is a no-op.
func (c *Client) UnregisterTool(ctx context.Context, name string) error {
	if !c.registry.unregister(name) {
		return nil
	}
	if !c.IsConnected() {
		return nil
	}
	return c.call(ctx, protocol.MethodToolUnregister, protocol.ToolUnregisterParams{Name: name}, nil)
}

// Tools returns the names of the locally registered tools.
func (c *Client) Tools() []string {
	return c.registry.names()
}

// announceTools sends tool/register for every registration the server has
// not seen yet.
func (c *Client) announceTools() error {
	for _, tool := range c.registry.takeUnannounced() {
		params := protocol.ToolRegisterParams{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RequestTimeout)
		err := c.call(ctx, protocol.MethodToolRegister, params, nil)
		cancel()
		if err != nil {
			return fmt.Errorf("announcing tool %s: %w", tool.Name, err)
		}
		c.logger.Info("tool registered", "tool", tool.Name)
	}
	return nil
}

// StoreContext builds a context entry with a fresh id and timestamp, stores
// it on the server, and caches it locally on success. A failed store caches
// nothing.
func (c *Client) StoreContext(ctx context.Context, conversationID string, content json.RawMessage, meta protocol.ContextMetadata) (protocol.Context, error) {
	entry := protocol.Context{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Content:        content,
		Metadata:       meta,
	}
	entry.Metadata.Timestamp = time.Now().UTC()

	if err := c.Call(ctx, protocol.MethodContextStore, entry, nil); err != nil {
		return protocol.Context{}, err
	}
	c.contexts.put(entry)
	return entry, nil
}

// RetrieveContexts queries the server for context entries. The result is
// returned as-is; the local cache is maintained only by storeContext and
// context/update notifications.
func (c *Client) RetrieveContexts(ctx context.Context, query protocol.ContextQuery) ([]protocol.Context, error) {
	var result protocol.ContextRetrieveResult
	if err := c.Call(ctx, protocol.MethodContextRetrieve, query, &result); err != nil {
		return nil, err
	}
	return result.Contexts, nil
}

// CachedContext returns a locally cached context entry by ID.
func (c *Client) CachedContext(id string) (protocol.Context, bool) {
	return c.contexts.get(id)
}

// CachedContexts returns the locally cached entries for a conversation.
func (c *Client) CachedContexts(conversationID string) []protocol.Context {
	return c.contexts.byConversation(conversationID)
}

// SendStreamingMessage starts a streaming chat exchange. onChunk fires for
// each chunk as it arrives; the call returns the accumulated content once
// the server sends the final chunk. Chunks for other concurrent streams
// are unaffected.
func (c *Client) SendStreamingMessage(ctx context.Context, message, conversationID string, meta map[string]any, onChunk func(protocol.StreamChunk)) (string, error) {
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	streamID := uuid.New().String()
	bridge := newStreamBridge(streamID, onChunk)
	c.addStream(bridge)
	defer c.removeStream(streamID)

	params := protocol.ChatStreamParams{
		StreamID:       streamID,
		Message:        message,
		ConversationID: conversationID,
		Metadata:       meta,
	}
	if err := c.call(ctx, protocol.MethodChatStream, params, nil); err != nil {
		return "", err
	}

	select {
	case <-bridge.done:
		return bridge.result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) addStream(bridge *streamBridge) {
	c.streamMu.Lock()
	c.streams[bridge.streamID] = bridge
	c.streamMu.Unlock()
	c.interceptors.add(bridge.streamID, bridge.intercept)
}

func (c *Client) removeStream(streamID string) {
	c.interceptors.remove(streamID)
	c.streamMu.Lock()
	delete(c.streams, streamID)
	c.streamMu.Unlock()
}

// failStreams resolves every active stream bridge with the given error.
func (c *Client) failStreams(err error) {
	c.streamMu.Lock()
	bridges := make([]*streamBridge, 0, len(c.streams))
	for _, bridge := range c.streams {
		bridges = append(bridges, bridge)
	}
	c.streamMu.Unlock()

	for _, bridge := range bridges {
		bridge.fail(err)
	}
}
