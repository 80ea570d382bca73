// Package relay speaks the sable relay wire protocol over WebSocket.
// Frames are JSON envelopes: requests carry an id the relay echoes in
// its response, events arrive unsolicited.
package relay

import (
	"encoding/json"

	"github.com/sablechat/sable/internal/domain"
)

// Frame types for the relay protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Methods a client may invoke on a relay.
const (
	MethodPublish   = "publish"
	MethodSubscribe = "subscribe"
)

// EventMessage delivers a message for a subscribed group.
const EventMessage = "message"

// Frame is the base envelope for all relay messages.
// The Type field discriminates between request, response, and event frames.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`

	// Error (response only)
	Error *ErrorShape `json:"error,omitempty"`
}

// ErrorShape is the standard error format in response frames.
type ErrorShape struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// PublishParams carry the message in a "publish" request.
type PublishParams struct {
	Message *domain.Message `json:"message"`
}

// PublishAck is the relay's payload after accepting a publish.
type PublishAck struct {
	ID string `json:"id"`
}

// SubscribeParams name the groups a client wants messages for.
type SubscribeParams struct {
	GroupIDs []string `json:"groupIds"`
}

// SubscribeAck reports how many groups the subscription covers.
type SubscribeAck struct {
	Groups int `json:"groups"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: raw,
	}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{
		Type:    FrameTypeResponse,
		ID:      id,
		OK:      &ok,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: &errShape,
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}

// Succeeded reports whether a response frame carries a success.
func (f Frame) Succeeded() bool {
	return f.Type == FrameTypeResponse && f.OK != nil && *f.OK
}
