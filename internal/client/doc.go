// ABOUTME: Package documentation for client
// ABOUTME: Describes the MCP WebSocket client and its moving parts

// Package client implements the MCP client side of the gateway protocol
// over a WebSocket channel.
//
// A Client owns one connection at a time. Outbound requests are correlated
// with responses through a pending table keyed by request ID; each entry
// carries its own deadline timer and completes exactly once, whether by
// response, timeout, or disconnect. Inbound frames are classified by shape
// (response, server request, or notification) and dispatched accordingly:
// tool calls run in their own goroutines so a slow handler never stalls
// the read loop, and streaming chunks are routed through an ordered
// interceptor list so concurrent streams do not trample each other.
//
// When the channel closes uncleanly the client fails all pending requests
// and, if reconnection is enabled, retries on a fixed delay up to a bounded
// number of attempts.
package client
