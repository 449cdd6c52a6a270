// Package protocol defines the wire format spoken over the MCP WebSocket
// channel.
//
// # Frames
//
// The channel carries JSON-RPC 2.0-flavored frames of exactly three shapes:
//
//	Request      {"id", "jsonrpc", "method", "params"}
//	Response     {"id", "jsonrpc", "result"? | "error"?}
//	Notification {"jsonrpc", "method", "params"}
//
// A frame is a Request iff it carries both an id and a method, a Response iff
// it carries an id and no method, and a Notification iff it carries a method
// and no id. Classification is exposed via Message.Kind.
//
// # Methods
//
// The methods consumed and produced by the client are declared as constants
// (MethodInitialize, MethodToolCall, ...) together with typed parameter and
// result structs for each. Payloads travel as json.RawMessage and are decoded
// at the dispatch boundary, so unknown methods fall through to a typed
// "unhandled" branch rather than silent any-soup.
package protocol
