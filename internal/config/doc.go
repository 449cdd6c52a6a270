// Package config handles configuration loading for the coven-mcp client.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation; runtime defaults for timing values live in
// the client package so that a zero Config still produces a working client.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  token: "${COVEN_MCP_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	timing:
//	  ping_interval: "30s"
//	  request_timeout: "30s"
//	  reconnect_interval: "5s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server endpoint:
//
//	server:
//	  url: "wss://gateway.example.com/mcp"
//
// Authentication:
//
//	auth:
//	  token: "${COVEN_MCP_TOKEN}"
//
// Timing:
//
//	timing:
//	  reconnect: true
//	  reconnect_interval: "5s"
//	  max_reconnect_attempts: 10
//	  ping_interval: "30s"
//	  request_timeout: "30s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: false
//	  addr: "127.0.0.1:9090"
//	  path: "/metrics"
package config
