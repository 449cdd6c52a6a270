// ABOUTME: JSON-RPC 2.0 message envelope codec for the MCP WebSocket channel.
// ABOUTME: Serializes, deserializes, and classifies Request/Response/Notification frames.

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC version carried by every frame.
const Version = "2.0"

// Subprotocol is the WebSocket subprotocol negotiated for MCP channels.
const Subprotocol = "mcp-v1"

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// Codec errors.
var (
	ErrBadVersion   = errors.New("unsupported jsonrpc version")
	ErrInvalidFrame = errors.New("frame matches no message shape")
)

// MessageKind classifies a decoded frame into one of the three wire shapes.
type MessageKind int

const (
	KindInvalid MessageKind = iota
	KindRequest
	KindResponse
	KindNotification
)

// String returns the kind name for logging.
func (k MessageKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return "invalid"
	}
}

// Error is a JSON-RPC error object carried in a Response frame.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface so an RPC failure can reject a
// pending request directly.
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Message is the envelope for all three frame shapes. Exactly one shape
// applies per frame; Kind reports which.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Kind classifies the frame. A frame is a Request iff it has both id and
// method, a Response iff it has an id and no method, and a Notification iff
// it has a method and no id.
func (m *Message) Kind() MessageKind {
	switch {
	case m.ID != "" && m.Method != "":
		return KindRequest
	case m.ID != "":
		return KindResponse
	case m.Method != "":
		return KindNotification
	default:
		return KindInvalid
	}
}

// NewRequest builds a Request frame, marshaling params to JSON.
func NewRequest(id, method string, params any) (Message, error) {
	raw, err := marshalPayload(params)
	if err != nil {
		return Message{}, fmt.Errorf("marshaling %s params: %w", method, err)
	}
	return Message{JSONRPC: Version, ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a Notification frame, marshaling params to JSON.
func NewNotification(method string, params any) (Message, error) {
	raw, err := marshalPayload(params)
	if err != nil {
		return Message{}, fmt.Errorf("marshaling %s params: %w", method, err)
	}
	return Message{JSONRPC: Version, Method: method, Params: raw}, nil
}

// NewResult builds a success Response frame for the given request id.
func NewResult(id string, result any) (Message, error) {
	raw, err := marshalPayload(result)
	if err != nil {
		return Message{}, fmt.Errorf("marshaling result for %s: %w", id, err)
	}
	return Message{JSONRPC: Version, ID: id, Result: raw}, nil
}

// NewError builds an error Response frame for the given request id.
func NewError(id string, code int, message string) Message {
	return Message{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message}}
}

// Encode serializes a frame for transmission.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a raw frame and validates its version and shape.
// Malformed frames are reported so the caller can drop them without
// closing the connection.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if m.JSONRPC != Version {
		return Message{}, fmt.Errorf("%w: %q", ErrBadVersion, m.JSONRPC)
	}
	if m.Kind() == KindInvalid {
		return Message{}, ErrInvalidFrame
	}
	return m, nil
}

// marshalPayload converts a payload value to raw JSON, passing raw messages
// through untouched and mapping nil to no payload at all.
func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
