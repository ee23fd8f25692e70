package proto

import "encoding/json"

// ChatRequest is the body posted to the assistant service and to POST /api/messages.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant service's answer. Only Response is used.
type ChatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// Inbound is the envelope for messages coming from a WebSocket client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeSend  = "send"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventHistory     = "history"
	EventMessage     = "message"
	EventSendStarted = "send_started"
	EventSendSettled = "send_settled"
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	User     string `json:"user,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// SendData submits a chat message. Text is passed on untrimmed.
type SendData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// OutboundFrame is Outbound as decoded by clients, with Data left raw.
type OutboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// Message is one conversation entry as seen by displays.
type Message struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	HTML      string `json:"html,omitempty"`
}

// EventHistoryData delivers the whole conversation when a client connects.
type EventHistoryData struct {
	Messages []Message `json:"messages"`
	InFlight bool      `json:"in_flight"`
}

// EventMessageData carries one appended message and its position.
type EventMessageData struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

// EventSendData reports an in-flight transition.
type EventSendData struct {
	InFlight bool `json:"in_flight"`
}

// Status reports the controller state.
type Status struct {
	InFlight bool   `json:"in_flight"`
	State    string `json:"state"`
	Messages int    `json:"messages"`
}

// SubmitResult answers POST /api/messages.
type SubmitResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

const (
	SubmitAccepted = "accepted"
	SubmitSkipped  = "skipped"
)

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
