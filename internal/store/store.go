package store

import "time"

// Welcome documents seeded into freshly created rooms.
const (
	// DefaultDocument is used for rooms created implicitly by a join.
	DefaultDocument = "// Welcome to Real-time Code Collaboration!\n// Start coding together...\n\nfunction hello() {\n  console.log('Hello, World!');\n}"
	// CreatedDocument is used for rooms created through the discovery API.
	CreatedDocument = "// Welcome to your new collaboration room!\n// Share this room ID with your teammates\n\nfunction hello() {\n  console.log('Hello, World!');\n}"
)

// Room is a point-in-time copy of a room's state.
type Room struct {
	ID           string
	Document     string
	Members      []string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Summary is the read-only projection served to discovery clients.
type Summary struct {
	ID           string
	Members      []string // sorted
	LastActivity time.Time
}

// MemberCount returns the number of distinct names present.
func (s Summary) MemberCount() int {
	return len(s.Members)
}

// JoinResult describes the outcome of an atomic ensure-and-add.
type JoinResult struct {
	Document string
	Created  bool // the room did not exist before this join
	Added    bool // the name entered the member set
}

// LeaveResult describes the outcome of removing one connection's membership.
type LeaveResult struct {
	Removed bool // the name left the member set
	Deleted bool // the room was destroyed because it became empty
}

// Stats are cumulative store counters.
type Stats struct {
	ActiveRooms  int
	RoomsCreated int64
}

// RoomStore owns all live rooms. Every method is safe for concurrent use and
// missing rooms are reported through boolean results, never errors.
type RoomStore interface {
	// EnsureRoom returns the room, creating it with DefaultDocument if absent.
	EnsureRoom(id string) (Room, bool)
	// CreateRoom creates an empty room under a fresh id.
	CreateRoom() string
	// Join ensures the room exists and adds one reference for name.
	Join(id, name string) JoinResult
	// AddMember adds one reference for name to an existing room.
	AddMember(id, name string) bool
	// RemoveMember drops one reference for name, deleting the room when empty.
	RemoveMember(id, name string) LeaveResult
	// SetDocument replaces the document of an existing room.
	SetDocument(id, text string) bool
	// Touch bumps the last activity timestamp of an existing room.
	Touch(id string) bool
	GetDocument(id string) (string, bool)
	GetRoom(id string) (Summary, bool)
	ListRooms() []Summary
	Stats() Stats
}
