// ABOUTME: Package documentation for metrics
// ABOUTME: Describes the coven_mcp Prometheus namespace

// Package metrics exposes Prometheus counters for MCP channel activity.
//
// The client records requests, failures by reason, reconnection attempts,
// tool call outcomes, and stream chunks. All record methods tolerate a nil
// receiver, so callers that run without a metrics endpoint pass nil and
// skip the conditional at every call site.
package metrics
