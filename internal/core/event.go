package core

// EventKind is a notification the conversation emits to its subscribers.
type EventKind int

const (
	// EventMessageAppended notifies about a message added to the conversation.
	EventMessageAppended EventKind = iota
	// EventSendStarted notifies that a turn entered the sending state.
	EventSendStarted
	// EventSendSettled notifies that the in-flight turn finished and the controller is idle again.
	EventSendSettled
)

func (k EventKind) String() string {
	switch k {
	case EventMessageAppended:
		return "message"
	case EventSendStarted:
		return "send_started"
	case EventSendSettled:
		return "send_settled"
	default:
		return "unknown"
	}
}

// Event describes what happened in the conversation.
type Event struct {
	Kind     EventKind
	Message  Message // set for EventMessageAppended
	Index    int     // position of Message in the conversation
	InFlight bool
}
