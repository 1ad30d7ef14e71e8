package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin = "join"
	InboundTypeEdit = "edit"
	InboundTypeChat = "chat"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventDocument       = "document"
	EventDocumentUpdate = "document_update"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventMessage        = "message"
)

// JoinData asks to enter a room under a display name.
type JoinData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EditData replaces the room document. Text is required but may be empty.
type EditData struct {
	Room string  `json:"room"`
	Text *string `json:"text"`
}

// ChatData is a chat message from the client. User overrides the join name.
type ChatData struct {
	Room string `json:"room"`
	Text string `json:"text"`
	User string `json:"user,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// DocumentData carries a full document, either a snapshot or an update.
type DocumentData struct {
	Room string `json:"room"`
	Text string `json:"text"`
	User string `json:"user,omitempty"`
}

// MessageData is a relayed chat message. TS is Unix milliseconds.
type MessageData struct {
	Room string `json:"room"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// UserData notifies that a name entered or left a room.
type UserData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
