// ABOUTME: WebSocket connection lifecycle: dial, handshake, read loop, keepalive
// ABOUTME: Unclean closes fail all pending work and drive bounded fixed-delay reconnection

package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389/coven-mcp/internal/protocol"
)

// Connect dials the server and runs the handshake: initialize, then
// authenticate when a token is configured. On return the client is Ready
// and queued tool announcements have been flushed. An existing connection
// is closed first: one socket per client.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting {
		c.mu.Unlock()
		return fmt.Errorf("connect already in progress")
	}
	if c.conn != nil {
		gen := c.generation
		c.closing = true
		c.mu.Unlock()
		c.teardown(gen, nil)
		c.mu.Lock()
	}
	c.state = StateConnecting
	c.closing = false
	c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}
	return nil
}

// connect performs one dial-and-handshake cycle. The caller has already
// moved the state to Connecting.
func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		Subprotocols:     []string{protocol.Subprotocol},
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.conn = conn
	c.stopPing = make(chan struct{})
	stopPing := c.stopPing
	c.mu.Unlock()

	go c.readLoop(conn, gen)

	if err := c.handshake(ctx); err != nil {
		c.teardown(gen, err)
		return err
	}

	c.mu.Lock()
	c.state = StateReady
	c.mu.Unlock()
	c.logger.Info("connection ready", "url", c.cfg.URL)

	go c.pingLoop(gen, stopPing)

	if err := c.announceTools(); err != nil {
		c.logger.Warn("tool announcement failed", "error", err)
	}
	if c.handlers.OnOpen != nil {
		c.handlers.OnOpen()
	}
	return nil
}

// handshake runs initialize and, when a token is configured, authenticate.
// The read loop is already running, so these go through the pending table
// like any other request.
func (c *Client) handshake(ctx context.Context) error {
	initParams := protocol.InitializeParams{
		ClientInfo: protocol.ClientInfo{
			Name:    c.cfg.ClientName,
			Version: c.cfg.ClientVersion,
		},
		Capabilities: c.cfg.Capabilities,
	}

	var info protocol.ServerInfo
	if err := c.call(ctx, protocol.MethodInitialize, initParams, &info); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	c.mu.Lock()
	c.serverInfo = &info
	c.state = StateInitialized
	c.mu.Unlock()
	c.logger.Debug("initialized", "server", info.Name, "version", info.Version)

	if c.cfg.Token == "" {
		return nil
	}

	var authResult protocol.AuthenticateResult
	authParams := protocol.AuthenticateParams{Token: c.cfg.Token}
	if err := c.call(ctx, protocol.MethodAuthenticate, authParams, &authResult); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if !authResult.Authenticated {
		return fmt.Errorf("authenticate: server rejected token")
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.authenticated = true
	c.mu.Unlock()
	c.logger.Debug("authenticated", "user_id", authResult.UserID)

	if c.handlers.OnAuthenticated != nil {
		c.handlers.OnAuthenticated(authResult.UserID)
	}
	return nil
}

// Disconnect closes the channel cleanly. Pending requests fail with
// ErrConnectionClosed and no reconnection is attempted.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.closing = true
	conn := c.conn
	gen := c.generation
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
	c.writeMu.Unlock()

	c.teardown(gen, nil)
	return nil
}

// writeMessage encodes and writes one frame under the write lock.
func (c *Client) writeMessage(msg *protocol.Message) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := protocol.Encode(*msg)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// readLoop reads and dispatches frames until the connection dies. The
// generation number ties the loop to the connection it was started for, so
// a stale loop exiting after a reconnect cannot tear down the new session.
func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.teardown(gen, err)
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.metrics.FrameDropped()
			c.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		c.handleFrame(&msg)
	}
}

// pingLoop sends a protocol-level ping at the keepalive interval. A failed
// ping is left to the read loop to notice; the write error is only logged.
func (c *Client) pingLoop(gen int, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RequestTimeout)
			var pong protocol.PingResult
			err := c.call(ctx, protocol.MethodPing, nil, &pong)
			cancel()
			if err != nil {
				c.logger.Warn("keepalive ping failed", "generation", gen, "error", err)
			}
		}
	}
}

// teardown closes one connection generation exactly once: it fails pending
// requests and active streams, notifies OnClose, and schedules reconnection
// for unclean closes. Calls for a stale generation are no-ops.
func (c *Client) teardown(gen int, cause error) {
	c.mu.Lock()
	if gen != c.generation || c.conn == nil {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	wasReady := c.state == StateReady
	c.state = StateDisconnected
	c.authenticated = false
	c.serverInfo = nil
	if c.stopPing != nil {
		close(c.stopPing)
		c.stopPing = nil
	}
	closing := c.closing
	c.mu.Unlock()

	_ = conn.Close()
	c.pending.failAll()
	c.failStreams(ErrStreamClosed)
	c.registry.markAllUnannounced()

	if closing {
		c.logger.Info("disconnected")
	} else {
		c.logger.Warn("connection lost", "error", cause)
	}

	if c.handlers.OnClose != nil {
		c.handlers.OnClose(cause)
	}

	// Only an established connection dropping uncleanly triggers
	// reconnection; a handshake that never reached Ready reports its error
	// to the caller instead.
	if wasReady && !closing && c.cfg.Reconnect {
		go c.reconnectLoop()
	}
}

// reconnectLoop retries the connection on a fixed delay until it succeeds
// or MaxReconnectAttempts is exhausted. A negative limit retries forever.
func (c *Client) reconnectLoop() {
	for attempt := 1; c.cfg.MaxReconnectAttempts < 0 || attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		time.Sleep(c.cfg.ReconnectInterval)

		c.mu.Lock()
		if c.closing || c.state != StateDisconnected {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		c.metrics.ReconnectAttempt()
		c.logger.Info("reconnecting", "attempt", attempt, "max_attempts", c.cfg.MaxReconnectAttempts)
		if c.handlers.OnReconnect != nil {
			c.handlers.OnReconnect(attempt)
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout+c.cfg.RequestTimeout)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			c.logger.Info("reconnected", "attempt", attempt)
			return
		}

		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		c.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", err)
	}

	err := fmt.Errorf("reconnection gave up after %d attempts", c.cfg.MaxReconnectAttempts)
	c.logger.Error("reconnection exhausted", "attempts", c.cfg.MaxReconnectAttempts)
	if c.handlers.OnError != nil {
		c.handlers.OnError(err)
	}
}
