package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom joins the client to a room under a display name.
	CommandJoinRoom CommandKind = iota
	// CommandEditDocument replaces the room document.
	CommandEditDocument
	// CommandSendChat relays a chat message to the whole room.
	CommandSendChat
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join"
	case CommandEditDocument:
		return "edit"
	case CommandSendChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Room string
	User string // display name; required for join, optional for chat
	Text string // document text for edits, message text for chat
}
