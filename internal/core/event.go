package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventDocumentSnapshot delivers the current document to a joining client.
	EventDocumentSnapshot EventKind = iota
	// EventDocumentUpdate carries a document replacement made by someone else.
	EventDocumentUpdate
	// EventUserJoined notifies clients about a name entering a room.
	EventUserJoined
	// EventUserLeft notifies clients about a name leaving a room.
	EventUserLeft
	// EventChatMessage relays a chat message to every room member.
	EventChatMessage
	// EventError notifies a client about a rejected request.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventDocumentSnapshot:
		return "document"
	case EventDocumentUpdate:
		return "document_update"
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	case EventChatMessage:
		return "message"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// A single Event value is shared by every recipient of a fan-out and must
// not be mutated after delivery.
type Event struct {
	Kind     EventKind
	Room     string
	User     string
	Document string  // EventDocumentSnapshot and EventDocumentUpdate
	Message  Message // EventChatMessage
	Error    *CoreError
}
