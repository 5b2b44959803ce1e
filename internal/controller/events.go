package controller

import "github.com/comigor/helpdesk-go/internal/conversation"

// EventKind tells presentation what changed.
type EventKind int

const (
	// EventPendingChanged toggles the "assistant is typing" indicator; see Event.Pending.
	EventPendingChanged EventKind = iota
	// EventMessageAppended carries the new message in Event.Message.
	EventMessageAppended
	// EventFeedbackChanged carries the updated message in Event.Message.
	EventFeedbackChanged
	// EventTransportFailed carries the failed operation in Event.Op and the cause in Event.Err.
	EventTransportFailed
	// EventConversationCleared follows NewConversation and Logout.
	EventConversationCleared
	// EventLoggedIn follows a successful Login.
	EventLoggedIn
	// EventLoggedOut follows Logout.
	EventLoggedOut
)

func (k EventKind) String() string {
	switch k {
	case EventPendingChanged:
		return "pending_changed"
	case EventMessageAppended:
		return "message_appended"
	case EventFeedbackChanged:
		return "feedback_changed"
	case EventTransportFailed:
		return "transport_failed"
	case EventConversationCleared:
		return "conversation_cleared"
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Event is a signal from the controller to presentation.
type Event struct {
	Kind    EventKind
	Pending bool
	Message conversation.Message
	Op      string
	Err     error
	// Helpful is the rating a feedback event was about.
	Helpful bool
}
